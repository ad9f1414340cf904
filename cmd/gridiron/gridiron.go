// Package gridironcmder
package gridironcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/gridiron/cmd/gridiron/ask"
	configcmder "github.com/papercomputeco/gridiron/cmd/gridiron/config"
	ingestcmder "github.com/papercomputeco/gridiron/cmd/gridiron/ingest"
	initcmder "github.com/papercomputeco/gridiron/cmd/gridiron/init"
	servecmder "github.com/papercomputeco/gridiron/cmd/gridiron/serve"
	versioncmder "github.com/papercomputeco/gridiron/cmd/version"
)

const gridironLongDesc string = `Gridiron answers NFL playoff questions with retrieval, live
game data and conversational memory.

Run the service and load its knowledge base using:
  gridiron serve               Run the HTTP server (/ping, /invocations, /mcp)
  gridiron ingest chunks.json  Load knowledge-base chunks
  gridiron ask "question"      Ask a running server`

const gridironShortDesc string = "Gridiron - NFL playoff analyst"

func NewGridironCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gridiron",
		Short:         gridironShortDesc,
		Long:          gridironLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	// Global flags
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .gridiron/ config directory")

	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
