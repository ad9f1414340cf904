// Package configcmder provides the config command for managing persistent
// gridiron configuration stored in the .gridiron/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent gridiron configuration.

Configuration is stored as config.toml in the .gridiron/ directory and
provides default values for command flags. CLI flags and GRIDIRON_*
environment variables always take precedence over config file values.

Keys use dotted notation matching the TOML section structure, for example:
  server.listen, aws.region, secrets.arn,
  embedding.provider, embedding.model, embedding.dimensions,
  vector_store.provider, vector_store.target, vector_store.table,
  memory.provider, memory.id, model.provider, model.model,
  adapters.cache_ttl, events.provider, events.brokers

Use subcommands to get, set, or list configuration values:
  gridiron config set <key> <value>    Set a configuration value
  gridiron config get <key>            Get a configuration value
  gridiron config list                 List all configuration values

Examples:
  gridiron config set model.provider anthropic
  gridiron config set vector_store.provider qdrant
  gridiron config get embedding.model
  gridiron config list`

const configShortDesc string = "Manage persistent gridiron configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
