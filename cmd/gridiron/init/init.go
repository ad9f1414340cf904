// Package initcmder provides the init command for initializing a local
// .gridiron directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/pkg/cliui"
	"github.com/papercomputeco/gridiron/pkg/config"
)

const (
	dirName    = ".gridiron"
	configFile = "config.toml"
)

type initCommander struct {
	preset string
	force  bool
}

const initLongDesc string = `Initialize a new .gridiron/ directory in the current working directory.

Creates a local .gridiron/ directory that takes precedence over the default
~/.gridiron/ directory. With --preset, also writes a config.toml for one of
the deployment presets:

  aws      Bedrock models and embeddings, TiDB vectors, AgentCore memory
  local    Ollama models and embeddings, sqlite-vec vectors, in-process memory
  openai   OpenAI models and embeddings, Qdrant vectors, in-process memory

Examples:
  gridiron init
  gridiron init --preset local
  gridiron init --preset aws --force`

const initShortDesc string = "Initialize a local .gridiron/ directory"

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Write config.toml for a preset ("+strings.Join(config.ValidPresetNames(), ", ")+")")
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml")

	return cmd
}

func (c *initCommander) run(w io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .gridiron directory: %w", err)
		}
		fmt.Fprintf(w, "Initialized .gridiron directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, configFile)
	if _, err := os.Stat(path); err == nil && !c.force {
		return fmt.Errorf("%s already exists; pass --force to overwrite", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Wrote %s preset to %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(c.preset),
		cliui.DimStyle.Render(path),
	)
	return nil
}
