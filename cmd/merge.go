package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <target-id> <source-id>",
	Short: "Merge a duplicate company into a canonical one",
	Long:  "Re-points every meeting, email, contact, deal, and alias reference from the source company to the target, then deletes the source. All-or-nothing.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.merger.Merge(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
