package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/gridiron/cmd/gridiron/init"
	"github.com/papercomputeco/gridiron/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	readConfig := func() *config.Config {
		cfg := &config.Config{}
		_, err := toml.DecodeFile(filepath.Join(tmpDir, ".gridiron", "config.toml"), cfg)
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "gridiron-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the .gridiron directory", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".gridiron"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		_, err = os.Stat(filepath.Join(tmpDir, ".gridiron", "config.toml"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("is idempotent", func() {
		Expect(run()).To(Succeed())
		Expect(run()).To(Succeed())
	})

	It("writes the local preset", func() {
		Expect(run("--preset", "local")).To(Succeed())

		cfg := readConfig()
		Expect(cfg.VectorStore.Provider).To(Equal("sqlite"))
		Expect(cfg.Memory.Provider).To(Equal("local"))
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
	})

	It("writes the aws preset", func() {
		Expect(run("--preset", "aws")).To(Succeed())

		cfg := readConfig()
		Expect(cfg.VectorStore.Provider).To(Equal("tidb"))
		Expect(cfg.Memory.Provider).To(Equal("agentcore"))
	})

	It("rejects an unknown preset", func() {
		Expect(run("--preset", "mainframe")).To(MatchError(ContainSubstring("unknown preset")))
	})

	It("refuses to overwrite without --force", func() {
		Expect(run("--preset", "local")).To(Succeed())
		Expect(run("--preset", "openai")).To(MatchError(ContainSubstring("--force")))
		Expect(readConfig().VectorStore.Provider).To(Equal("sqlite"))

		Expect(run("--preset", "openai", "--force")).To(Succeed())
		Expect(readConfig().VectorStore.Provider).To(Equal("qdrant"))
	})
})
