package cmd

import (
	"fmt"

	"littlesteps-be/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	cleanupCmd.Flags().Bool("dry-run", false, "list inactive users without deleting them")
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(purgeCmd)
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete users inactive for longer than INACTIVE_DAYS",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, core, err := openCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		color.Cyan("Looking for users inactive for %d days", cfg.Policy.InactiveDays)
		result, err := core.NewCleanupService(cfg).Run(cmd.Context(), service.CleanupOptions{DryRun: dryRun})
		if err != nil {
			return err
		}

		for _, u := range result.Candidates {
			fmt.Printf("  %s  %s  joined %s\n", u.Id, u.Email, u.CreatedAt.Format("2006-01-02"))
		}
		if dryRun {
			color.Yellow("Dry run: %d users would be deleted", len(result.Candidates))
			return nil
		}

		color.Green("Deleted %d inactive users", result.DeletedCount)
		if result.PurgeFailed {
			color.Red("Expired verification purge failed, see the log")
		} else {
			color.Green("Purged %d expired verifications", result.PurgedCount)
		}
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-verifications",
	Short: "Delete expired email verification tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, core, err := openCore(cmd)
		if err != nil {
			return err
		}
		defer core.Close()

		purged, err := core.NewCleanupService(cfg).PurgeVerifications(cmd.Context())
		if err != nil {
			return err
		}
		color.Green("Purged %d expired verifications", purged)
		return nil
	},
}
