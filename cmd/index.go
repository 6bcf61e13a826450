package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// indexCmd groups the audio index subcommands
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the audio index",
}

// indexRebuildCmd represents the index rebuild command
var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rescan the audio directory and rewrite the index",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		n, err := rt.service.RebuildIndex(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d audio files\n", n)
		return nil
	},
}

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the add-on package from the audio index",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		res, err := rt.exporter.Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d quests (%d files, %d copied, %d uploaded) to %s\n",
			res.Quests, res.Files, res.Copied, res.Uploaded, res.Dir)
		return nil
	},
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	RootCmd.AddCommand(indexCmd, exportCmd)
}
