package cmd

import (
	"fmt"
	"io"
	"strconv"

	"quest-voice/feature/progress"
	"quest-voice/feature/quests"
	"quest-voice/feature/voicesync"

	"github.com/spf13/cobra"
)

// progressCmd represents the progress command
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show voicing progress per zone",
	Long: `Shows how many quests have audio, per zone and in total. With --zone the
quests of that zone are listed, narrowed by --filter (missing, problem,
missing_and_problem, all).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		zone, _ := cmd.Flags().GetString("zone")
		filter, _ := cmd.Flags().GetString("filter")

		mode, err := progress.ParseFilterMode(filter)
		if err != nil {
			return err
		}

		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		out := cmd.OutOrStdout()
		colorize := shouldColorize(out)

		if zone != "" {
			list, err := rt.service.ZoneQuests(cmd.Context(), zone, mode, source)
			if err != nil {
				return err
			}
			lookup, err := rt.service.Lookup(cmd.Context(), source)
			if err != nil {
				return err
			}
			printZoneQuests(out, zone, list, lookup, rt.cfg.Voice.RequireBothGenders)
			return nil
		}

		report, err := rt.service.Progress(cmd.Context(), source)
		if err != nil {
			return err
		}
		printProgress(out, report, colorize)
		return nil
	},
}

func printProgress(w io.Writer, report *voicesync.ProgressReport, colorize bool) {
	rows := make([][]string, 0, len(report.Zones))
	for _, z := range report.Zones {
		rows = append(rows, []string{
			z.Zone,
			strconv.Itoa(z.Voiced),
			strconv.Itoa(z.Total),
			strconv.Itoa(z.Missing),
			strconv.Itoa(z.Problem),
			fmt.Sprintf("%d/%d", z.MainVoiced, z.MainTotal),
			formatPercent(z.Percent, colorize),
		})
	}
	t := report.Totals
	footer := []string{
		fmt.Sprintf("Total (%d zones)", t.ZoneCount),
		strconv.Itoa(t.Voiced),
		strconv.Itoa(t.Total),
		strconv.Itoa(t.Missing),
		strconv.Itoa(t.Problem),
		fmt.Sprintf("%d/%d", t.MainVoiced, t.MainTotal),
		formatPercent(t.Percent, colorize),
	}
	fmt.Fprintf(w, "Audio source: %s\n", report.Source)
	fmt.Fprintln(w, renderTable(
		[]string{"Zone", "Voiced", "Total", "Missing", "Problem", "Main Story", "Progress"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
		footer,
	))
}

func printZoneQuests(w io.Writer, zone string, list []quests.Quest, lookup progress.Lookup, requireBoth bool) {
	if len(list) == 0 {
		fmt.Fprintf(w, "No matching quests in %s\n", zone)
		return
	}
	rows := make([][]string, 0, len(list))
	for _, q := range list {
		voiced := "no"
		if progress.IsVoiced(lookup, q.ID, requireBoth) {
			voiced = "yes"
		}
		problem := ""
		if q.IsProblem() {
			problem = "incomplete translation"
		}
		rows = append(rows, []string{strconv.Itoa(q.ID), truncateTitle(q.Title, 50), quests.DisplayName(q.Category), voiced, problem})
	}
	fmt.Fprintf(w, "%s: %d quests\n", zone, len(list))
	fmt.Fprintln(w, renderTable([]string{"ID", "Title", "Category", "Voiced", "Problem"}, rows, []columnAlignment{alignRight}, nil))
}

func init() {
	progressCmd.Flags().String("source", voicesync.SourceLocal, "audio source: local or storage")
	progressCmd.Flags().String("zone", "", "list the quests of one zone")
	progressCmd.Flags().String("filter", string(progress.All), "quest filter for --zone")
	RootCmd.AddCommand(progressCmd)
}
