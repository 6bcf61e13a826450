package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"quest-voice/feature/voicesync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// applyCmd represents the apply command
var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Regenerate audio for new and changed quests",
	Long: `Scans the catalog, regenerates audio for every new or changed quest and writes
a new snapshot. Failed quests keep their previous fingerprint and are retried by
the next run. Ctrl+C stops before the next quest and keeps what was generated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		all, _ := cmd.Flags().GetBool("all")
		questIDs, _ := cmd.Flags().GetIntSlice("quest-id")
		exportAddon, _ := cmd.Flags().GetBool("export")
		dataVersion, _ := cmd.Flags().GetString("data-version")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		opts := voicesync.ApplyOptions{
			OnlyNewAndChanged: !all,
			AutoExportAddon:   exportAddon,
			QuestIDs:          questIDs,
			DataVersion:       dataVersion,
		}
		out := cmd.OutOrStdout()

		scan, err := rt.service.Scan(ctx, nil)
		if err != nil {
			return err
		}
		if !scan.Success {
			return fmt.Errorf("scan failed: %s", scan.ErrorMessage)
		}
		fmt.Fprintln(out, scan.Diff.Summary)

		targets := voicesync.SelectTargets(scan.Diff, opts)
		if dryRun {
			if len(targets) == 0 {
				fmt.Fprintln(out, "[DRY-RUN] Nothing to voice")
				return nil
			}
			fmt.Fprintf(out, "[DRY-RUN] %d quests would be voiced:\n", len(targets))
			fmt.Fprintln(out, renderTargets(targets, targetPreviewLimit))
			return nil
		}
		if rt.generatorErr != nil && len(targets) > 0 {
			return fmt.Errorf("tts generator not configured: %w", rt.generatorErr)
		}

		result, err := rt.service.Apply(ctx, opts, applyProgressPrinter(out))
		if err != nil {
			return err
		}
		printApply(out, result)

		switch {
		case result.State == voicesync.StateCancelled:
			rt.logger.Warn("Apply cancelled", zap.String("run_id", result.RunID))
			return context.Canceled
		case !result.Success:
			return fmt.Errorf("apply failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

// applyProgressPrinter prints one line per processed quest.
func applyProgressPrinter(w io.Writer) voicesync.ProgressFunc {
	return func(p voicesync.Progress) {
		fmt.Fprintf(w, "[%5.1f%%] %s\n", p.Percentage, p.Message)
	}
}

func printApply(w io.Writer, r *voicesync.ApplyResult) {
	fmt.Fprintln(w, r.Summary)
	if len(r.FailedQuests) > 0 {
		rows := make([][]string, 0, len(r.FailedQuests))
		for _, f := range r.FailedQuests {
			rows = append(rows, []string{strconv.Itoa(f.QuestID), f.Error})
		}
		fmt.Fprintln(w, renderTable([]string{"Failed Quest", "Error"}, rows, []columnAlignment{alignRight}, nil))
	}
	if r.ExportError != "" {
		fmt.Fprintf(w, "Add-on export failed: %s\n", r.ExportError)
	}
}

func init() {
	applyCmd.Flags().Bool("dry-run", false, "list the quests that would be voiced without generating")
	applyCmd.Flags().Bool("all", false, "revoice every quest, not only new and changed ones")
	applyCmd.Flags().IntSlice("quest-id", nil, "restrict the run to these quest IDs")
	applyCmd.Flags().Bool("export", false, "export the add-on package after a completed run")
	applyCmd.Flags().String("data-version", "", "data version of the snapshot written by the run (default: generated)")
	RootCmd.AddCommand(applyCmd)
}
