package main

import (
	"fmt"
	"strings"

	"github.com/blueember/storefront-chat/internal/strategies"
	"github.com/blueember/storefront-chat/models"
	"github.com/blueember/storefront-chat/providers"
	"github.com/spf13/cobra"
)

func keysCmd(environ func() []string) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the API keys found in the environment (masked)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			reg := providers.NewRegistry(providers.DiscoverCredentials(environ()))
			if reg.Len() == 0 {
				var prefixes []string
				for _, s := range providers.DefaultSpecs {
					prefixes = append(prefixes, s.EnvPrefix)
				}
				fmt.Fprintf(out, "No API keys found. Set one of: %s\n", strings.Join(prefixes, ", "))
				return
			}
			for _, kind := range reg.Providers() {
				creds := reg.ByProvider(kind)
				fmt.Fprintf(out, "%s (%d)\n", kind, len(creds))
				for _, c := range creds {
					fmt.Fprintf(out, "  %-28s %s\n", c.SourceID, c.MaskedSecret())
				}
			}
		},
	}
}

func routeCmd(environ func() []string) *cobra.Command {
	return &cobra.Command{
		Use:   "route <model>",
		Short: "Show the rule and failover chain a model resolves to",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			creds := providers.DiscoverCredentials(environ())
			rule, chain := strategies.DefaultConditional().Select(args[0], creds)

			fmt.Fprintf(out, "Model:     %s\n", args[0])
			fmt.Fprintf(out, "Rule:      %s\n", rule.Name)
			fmt.Fprintf(out, "Providers: %s\n", joinKinds(rule.Providers))
			if len(chain) == 0 {
				fmt.Fprintf(out, "Chain:     (empty) set %s\n",
					strings.Join(providers.Prefixes(providers.DefaultSpecs, rule.Providers...), " or "))
				return
			}
			fmt.Fprintln(out, "Chain:")
			for i, c := range chain {
				fmt.Fprintf(out, "  %d. %s\n", i+1, c)
			}
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the selectable chat models and their routing",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			catalog := models.Load()
			router := strategies.DefaultConditional()
			for _, m := range catalog.Models {
				marker := " "
				if m.ID == catalog.DefaultModel {
					marker = "*"
				}
				rule, _ := router.Match(m.ID)
				fmt.Fprintf(out, "%s %-42s %-10s %s\n", marker, m.ID, rule.Name, joinKinds(rule.Providers))
			}
		},
	}
}

func joinKinds(kinds []providers.Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, " → ")
}
