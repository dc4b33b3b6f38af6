package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	resolveName   string
	resolveDomain string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a name and/or domain to a company id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveName == "" && resolveDomain == "" {
			return eris.New("resolve: --name or --domain is required")
		}

		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		id, err := env.resolver.ResolveID(cmd.Context(), resolveName, resolveDomain)
		if err != nil {
			return err
		}
		if id == "" {
			fmt.Println("no match")
			return nil
		}
		fmt.Println(id)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "company display name")
	resolveCmd.Flags().StringVar(&resolveDomain, "domain", "", "company domain or URL")
	rootCmd.AddCommand(resolveCmd)
}
