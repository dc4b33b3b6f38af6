package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Re-score entity types for every auto-classified company",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		cl, err := env.classifier()
		if err != nil {
			return err
		}
		updated, err := cl.ReclassifyAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("updated %d companies\n", updated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
