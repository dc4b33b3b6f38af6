package main

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/pkg/enrich"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Seed name aliases from the enrichment service",
	Long:  "Looks up every company's primary domain against the enrichment API and records any returned display name as a name alias, so future meetings using that spelling resolve to the existing record.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		companies, err := env.companies.ListCompanies(cmd.Context())
		if err != nil {
			return err
		}

		client := enrich.New(cfg.Enrich.Key,
			enrich.WithBaseURL(cfg.Enrich.BaseURL),
			enrich.WithRateLimit(cfg.Enrich.RPS),
		)

		var seeded atomic.Int64
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Enrich.Concurrency)
		for i := range companies {
			c := companies[i]
			if c.PrimaryDomain == "" {
				continue
			}
			g.Go(func() error {
				name, err := client.LookupDomain(ctx, c.PrimaryDomain)
				if err != nil {
					return err
				}
				if name == "" || name == c.CanonicalName {
					return nil
				}
				if err := env.companies.AddAlias(ctx, c.ID, name, company.AliasName); err != nil {
					return err
				}
				zap.L().Debug("enrich: seeded alias",
					zap.String("company_id", c.ID),
					zap.String("alias", name),
				)
				seeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("seeded %d aliases across %d companies\n", seeded.Load(), len(companies))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
