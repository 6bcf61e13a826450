package cmd

import (
	"fmt"
	"io"

	"quest-voice/feature/integrity"

	"github.com/spf13/cobra"
)

var fixFlag bool

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the audio layout and its storage mirror",
	Long:  `Checks that the local audio directories and the storage folders of the mirror exist.`,
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		report, err := rt.checker.CheckStructure(cmd.Context())
		if err != nil {
			return err
		}
		if fixFlag && (len(report.MissingLocal) > 0 || len(report.MissingStorage) > 0) {
			if err := rt.checker.FixStructure(cmd.Context(), report); err != nil {
				return fmt.Errorf("failed to fix structure: %w", err)
			}
		}
		printStructure(cmd.OutOrStdout(), report, rt.checker.StorageEnabled())
		return nil
	},
}

func printStructure(w io.Writer, report *integrity.StructureReport, storageEnabled bool) {
	var rows [][]string
	for _, dir := range report.MissingLocal {
		rows = append(rows, []string{"local", dir})
	}
	for _, folder := range report.MissingStorage {
		rows = append(rows, []string{"storage", folder + "/"})
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "Structure OK")
	} else {
		verb := "Missing"
		if report.Status == "fixed" {
			verb = "Created"
		}
		fmt.Fprintln(w, renderTable([]string{"Where", verb}, rows, nil, nil))
	}
	if !storageEnabled {
		fmt.Fprintln(w, "Storage is disabled, bucket folders were not checked")
	}
}

func init() {
	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "create missing folders")
	integrityCmd.AddCommand(structureCmd)
	RootCmd.AddCommand(integrityCmd)
}
