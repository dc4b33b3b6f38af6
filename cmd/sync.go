package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealflow/internal/ingest"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync contacts and links from raw meeting data",
}

var (
	syncAttendees []string
	syncEmails    []string
)

var syncAttendeesCmd = &cobra.Command{
	Use:   "attendees",
	Short: "Apply one attendee batch to the contact store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.syncer.SyncAttendees(cmd.Context(), syncAttendees, syncEmails)
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

var syncMeetingsCmd = &cobra.Command{
	Use:   "meetings",
	Short: "Re-run attendee sync and company linking over every stored meeting",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.ingestor.SyncContactsFromMeetings(cmd.Context())
		if err != nil {
			return err
		}
		linked, err := env.syncer.AutoLinkByDomain(cmd.Context())
		if err != nil {
			return err
		}
		out, _ := json.MarshalIndent(struct {
			ingest.BackfillStats
			AutoLinked int `json:"auto_linked"`
		}{stats, linked}, "", "  ")
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	syncAttendeesCmd.Flags().StringSliceVar(&syncAttendees, "attendee", nil, "attendee display string (repeatable)")
	syncAttendeesCmd.Flags().StringSliceVar(&syncEmails, "email", nil, "attendee email, parallel to --attendee (repeatable)")

	syncCmd.AddCommand(syncAttendeesCmd, syncMeetingsCmd)
	rootCmd.AddCommand(syncCmd)
}
