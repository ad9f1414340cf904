package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/gridiron/cmd/gridiron/config"
	"github.com/papercomputeco/gridiron/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gridiron-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// A local .gridiron dir takes precedence over the home directory.
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".gridiron"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	loaded := func() *config.Config {
		data, err := os.ReadFile(filepath.Join(tmpDir, ".gridiron", "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	Describe("set subcommand", func() {
		It("writes the value to config.toml", func() {
			Expect(run("set", "model.provider", "anthropic")).To(Succeed())
			Expect(loaded().Model.Provider).To(Equal("anthropic"))
		})

		It("keeps defaults for other keys", func() {
			Expect(run("set", "memory.provider", "local")).To(Succeed())
			Expect(loaded().Embedding.Dimensions).To(Equal(config.NewDefaultConfig().Embedding.Dimensions))
		})

		It("splits broker lists", func() {
			Expect(run("set", "events.brokers", "a:9092, b:9092")).To(Succeed())
			Expect(loaded().Events.Brokers).To(Equal([]string{"a:9092", "b:9092"}))
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "model.provider")).To(HaveOccurred())
			Expect(run("set")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "embedding.dimensions", "not-a-number")).To(HaveOccurred())
		})

		It("rejects invalid durations", func() {
			Expect(run("set", "adapters.cache_ttl", "soon")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("prints a previously set value", func() {
			Expect(run("set", "model.model", "gpt-4o")).To(Succeed())

			out.Reset()
			Expect(run("get", "model.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("gpt-4o"))
		})

		It("redacts secrets", func() {
			Expect(run("set", "model.api_key", "sk-secret")).To(Succeed())

			out.Reset()
			Expect(run("get", "model.api_key")).To(Succeed())
			Expect(out.String()).NotTo(ContainSubstring("sk-secret"))
			Expect(out.String()).To(ContainSubstring("<redacted>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
