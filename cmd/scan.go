package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"quest-voice/feature/diff"
	"quest-voice/feature/voicesync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// targetPreviewLimit is how many targets scan and dry-run listings show.
const targetPreviewLimit = 20

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Compare the quest catalog against the last snapshot",
	Long:  `Classifies every quest as new, changed, removed or unchanged. Nothing is generated or saved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")

		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		result, err := rt.service.Scan(cmd.Context(), nil)
		if err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("scan failed: %s", result.ErrorMessage)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}
		printScan(out, result, voicesync.SelectTargets(result.Diff, voicesync.DefaultApplyOptions()))
		return nil
	},
}

func printScan(w io.Writer, result *voicesync.ScanResult, targets []diff.Entry) {
	fmt.Fprintf(w, "Scanned %d quests in %s\n", result.QuestCount, result.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, result.Diff.Summary)
	if len(targets) > 0 {
		fmt.Fprintln(w, renderTargets(targets, targetPreviewLimit))
	}
	if removed := result.Diff.Filter(diff.TypeRemoved); len(removed) > 0 {
		fmt.Fprintf(w, "%d quests were removed from the catalog and will be dropped from the next snapshot\n", len(removed))
	}
}

// renderTargets lists up to limit targets followed by the remainder count.
func renderTargets(targets []diff.Entry, limit int) string {
	shown := targets
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	rows := make([][]string, 0, len(shown))
	for _, e := range shown {
		rows = append(rows, []string{strconv.Itoa(e.QuestID), string(e.Type), e.Zone, truncateTitle(e.Title, 50)})
	}
	s := renderTable([]string{"ID", "Type", "Zone", "Title"}, rows, []columnAlignment{alignRight}, nil)
	if rest := len(targets) - len(shown); rest > 0 {
		s += fmt.Sprintf("\n... and %d more", rest)
	}
	return s
}

func truncateTitle(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	scanCmd.Flags().Bool("json", false, "print the full scan result as JSON")
	RootCmd.AddCommand(scanCmd)
}
