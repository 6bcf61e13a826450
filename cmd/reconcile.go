package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quest-voice/core/reconcile"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile audio command
	uploadAudio  bool
	purgeAudio   bool
	dryRunAudio  bool
	yesConfirm   bool
	jsonOutAudio bool
)

// sampleActions is how many planned actions the report lists.
const sampleActions = 10

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile generated audio between the catalog, local disk and storage",
}

// audioReconcileCmd performs audio mirror reconciliation with optional upload/purge.
var audioReconcileCmd = &cobra.Command{
	Use:   "audio",
	Short: "Reconcile the audio mirror (report + optionally upload/purge)",
	Long: `Reconcile quest audio across the quest catalog, the local audio index and the storage mirror.

Reports audio missing locally, audio missing from storage and orphaned audio.
Optionally upload local files missing from storage, or purge audio of quests
no longer in the catalog.

Examples:
  # Report only
  reconcile audio

  # Upload missing objects (with interactive confirmation)
  reconcile audio --upload

  # Purge orphans with auto-confirm (non-interactive)
  reconcile audio --purge --yes`,
	RunE: runAudioReconcile,
}

func init() {
	reconcileCmd.AddCommand(audioReconcileCmd)

	audioReconcileCmd.Flags().BoolVar(&uploadAudio, "upload", false, "Upload local audio missing from storage")
	audioReconcileCmd.Flags().BoolVar(&purgeAudio, "purge", false, "Delete audio of quests not in the catalog")
	audioReconcileCmd.Flags().BoolVar(&dryRunAudio, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	audioReconcileCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")
	audioReconcileCmd.Flags().BoolVar(&jsonOutAudio, "json", false, "Print the plan as JSON")

	RootCmd.AddCommand(reconcileCmd)
}

func runAudioReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.logger.Sync()
	l := rt.logger

	opts := reconcile.Options{
		DoUpload: uploadAudio,
		DoPurge:  purgeAudio,
		DryRun:   true,
	}

	// Step 1: Plan (always runs)
	l.Info("Planning audio reconciliation...")
	report, err := rt.checker.SyncAudio(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to plan reconciliation: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutAudio {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Plan); err != nil {
			return err
		}
	} else {
		printReconcileReport(out, report.Plan)
	}

	// Step 2: Check if actions are requested
	if !uploadAudio && !purgeAudio {
		l.Info("No actions requested. Use --upload to fill the mirror or --purge to delete orphaned audio.")
		return nil
	}
	if dryRunAudio {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}
	if len(report.Plan.Actions) == 0 {
		l.Info("No actions required based on current flags.")
		return nil
	}

	// Step 3: Apply (if confirmed)
	if !confirmDestructiveAction(cmd.InOrStdin(), out, yesConfirm) {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	opts.DryRun = false
	opts.Confirmed = true
	l.Info("Applying actions...")
	applied, err := rt.checker.SyncAudio(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}
	l.Info("Successfully executed actions", zap.Int("count", applied.Executed))
	return nil
}

// printReconcileReport renders the plan summary and a sample of the planned actions.
func printReconcileReport(w io.Writer, plan *reconcile.Plan) {
	s := plan.Summary
	rows := [][]string{
		{"Audio files", strconv.Itoa(s.TotalItems)},
		{"Missing locally", strconv.Itoa(s.MissingLocal)},
		{"Missing in storage", strconv.Itoa(s.MissingStorage)},
		{"Orphaned", strconv.Itoa(s.Orphaned)},
	}
	if len(plan.Actions) > 0 {
		rows = append(rows,
			[]string{"Planned uploads", strconv.Itoa(s.UploadActions)},
			[]string{"Planned purges", strconv.Itoa(s.PurgeActions)},
		)
	}
	fmt.Fprintln(w, renderTable([]string{"Check", "Count"}, rows, []columnAlignment{alignLeft, alignRight}, nil))

	if len(plan.Actions) == 0 {
		return
	}
	maxShow := min(sampleActions, len(plan.Actions))
	actionRows := make([][]string, 0, maxShow)
	for _, action := range plan.Actions[:maxShow] {
		actionRows = append(actionRows, []string{string(action.Type), action.Key, action.Reason})
	}
	var footer []string
	if len(plan.Actions) > maxShow {
		footer = []string{fmt.Sprintf("... and %d more", len(plan.Actions)-maxShow)}
	}
	fmt.Fprintln(w, renderTable([]string{"Action", "Key", "Reason"}, actionRows, nil, footer))
}

// confirmDestructiveAction prompts the user for confirmation or uses the --yes flag.
func confirmDestructiveAction(in io.Reader, out io.Writer, autoConfirm bool) bool {
	if autoConfirm {
		fmt.Fprintln(out, "\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Fprint(out, "\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
