// Command chatgw-cli inspects a chat gateway deployment: it validates config
// files, shows which API keys and routes the environment provides, and sends
// test messages.
package main

import (
	"fmt"
	"os"

	chatgw "github.com/blueember/storefront-chat"
	"github.com/blueember/storefront-chat/internal/version"
	"github.com/blueember/storefront-chat/plugin"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Environ).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(environ func() []string) *cobra.Command {
	root := &cobra.Command{
		Use:          "chatgw-cli",
		Short:        "Storefront chat gateway command line tool",
		SilenceUsage: true,
	}
	root.AddCommand(
		validateCmd(),
		pluginsCmd(),
		versionCmd(),
		keysCmd(environ),
		routeCmd(environ),
		modelsCmd(),
		askCmd(),
	)
	return root
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a gateway configuration file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := chatgw.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := chatgw.ValidateConfig(*cfg); err != nil {
				return err
			}
			eff := cfg.WithDefaults()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Config is valid")
			fmt.Fprintf(out, "  Listen:        %s\n", eff.Listen)
			fmt.Fprintf(out, "  Default model: %s\n", eff.DefaultModel)
			fmt.Fprintf(out, "  Timeout:       %s\n", eff.UpstreamTimeout())
			for _, p := range cfg.Plugins {
				status := "disabled"
				if p.Enabled {
					status = "enabled"
				}
				stage := p.Stage
				if stage == "" {
					stage = string(plugin.StageBeforeRequest)
				}
				fmt.Fprintf(out, "  Plugin:        %s (%s, %s)\n", p.Name, stage, status)
			}
			return nil
		},
	}
}

func pluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List all registered plugins",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			names := plugin.RegisteredPlugins()
			if len(names) == 0 {
				fmt.Fprintln(out, "No plugins registered.")
				return
			}
			fmt.Fprintln(out, "Registered plugins:")
			for _, name := range names {
				factory, _ := plugin.GetFactory(name)
				fmt.Fprintf(out, "  %-20s type=%s\n", name, factory().Type())
			}
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chatgw-cli %s\n", version.String())
		},
	}
}
