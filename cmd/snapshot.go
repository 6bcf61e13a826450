package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// snapshotCmd groups the snapshot subcommands
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage quest snapshots",
}

// snapshotInitCmd represents the snapshot init command
var snapshotInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Adopt the current catalog as baseline",
	Long:  `Records every quest's fingerprint as already voiced. Use this once when audio already exists for the current catalog.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")

		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		set, err := rt.service.CreateInitialSnapshot(cmd.Context(), tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created snapshot %s with %d quests\n", set.DataVersion, set.QuestCount)
		return nil
	},
}

// snapshotListCmd represents the snapshot list command
var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		list, err := rt.service.ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No snapshots yet. Run 'snapshot init' or 'apply'.")
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, info := range list {
			active := ""
			if info.Active {
				active = "*"
			}
			rows = append(rows, []string{
				active,
				info.DataVersion,
				string(info.Kind),
				strconv.Itoa(info.QuestCount),
				info.CreatedAt.Local().Format(time.DateTime),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"", "Data Version", "Kind", "Quests", "Created"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			nil,
		))
		return nil
	},
}

func init() {
	snapshotInitCmd.Flags().String("tag", "", "data version of the initial snapshot (default: initial-<timestamp>)")
	snapshotCmd.AddCommand(snapshotInitCmd, snapshotListCmd)
	RootCmd.AddCommand(snapshotCmd)
}
