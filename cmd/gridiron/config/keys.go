package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/pkg/cliui"
	"github.com/papercomputeco/gridiron/pkg/config"
)

// secretKeys are masked by get and list.
var secretKeys = map[string]bool{
	"vector_store.password": true,
	"model.api_key":         true,
}

func validateKey(key string) error {
	if config.IsValidConfigKey(key) {
		return nil
	}
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
	} else {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
	}
}

func display(key, value string) string {
	if value == "" {
		return cliui.DimStyle.Render("<not set>")
	}
	if secretKeys[key] {
		return cliui.DimStyle.Render("<redacted>")
	}
	return cliui.ValueStyle.Render(value)
}
