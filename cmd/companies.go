package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/internal/export"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "Manage the company book",
}

var (
	companyDomain  string
	companyWebsite string
)

var companiesCreateCmd = &cobra.Command{
	Use:   "get-or-create <name>",
	Short: "Resolve a company by name, creating it on miss",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		c, created, err := env.resolver.GetOrCreateByName(cmd.Context(), args[0], company.CreateOptions{
			Domain:     companyDomain,
			WebsiteURL: companyWebsite,
		})
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(map[string]any{"company": c, "created": created}, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var (
	classifyType    string
	classifyInclude bool
	classifyConf    float64
)

var companiesClassifyCmd = &cobra.Command{
	Use:   "classify <name>",
	Short: "Apply a manual classification to a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if classifyType == "" {
			return eris.New("companies classify: --type is required")
		}

		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		conf := classifyConf
		c, err := env.resolver.UpsertClassification(cmd.Context(), args[0], companyDomain,
			company.EntityType(classifyType), classifyInclude, &conf)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(c, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var exportPath string

var companiesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the company book to an XLSX workbook",
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
		if err := export.WriteCompanies(exportPath, companies); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %d companies to %s\n", len(companies), exportPath)
		return nil
	},
}

func init() {
	companiesCreateCmd.Flags().StringVar(&companyDomain, "domain", "", "company domain")
	companiesCreateCmd.Flags().StringVar(&companyWebsite, "website", "", "company website URL")

	companiesClassifyCmd.Flags().StringVar(&companyDomain, "domain", "", "company domain")
	companiesClassifyCmd.Flags().StringVar(&classifyType, "type", "", "entity type (prospect, vc_fund, portfolio, customer, partner, vendor, other, unknown)")
	companiesClassifyCmd.Flags().BoolVar(&classifyInclude, "include", true, "include in primary view")
	companiesClassifyCmd.Flags().Float64Var(&classifyConf, "confidence", 1.0, "classification confidence")

	companiesExportCmd.Flags().StringVar(&exportPath, "out", "companies.xlsx", "output path")

	companiesCmd.AddCommand(companiesCreateCmd, companiesClassifyCmd, companiesExportCmd)
	rootCmd.AddCommand(companiesCmd)
}
