package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/mindjournal/internal/contracts"
)

// heatmapCmd represents the heatmap command
var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Print a user's yearly heatmap",
	Long: `Build the yearly journaling heatmap of a user and print it as a
terminal calendar with streaks and milestones.

The fixture source works offline and needs no database.

Example:
  go run ./cmd/mindjournal heatmap --user alice --source fixture
  go run ./cmd/mindjournal heatmap --user alice --year 2024 --month 3
  go run ./cmd/mindjournal heatmap --user alice --json`,
	RunE: runHeatmap,
}

var (
	heatmapUser  string
	heatmapYear  int
	heatmapMonth int
	heatmapJSON  bool
)

func init() {
	rootCmd.AddCommand(heatmapCmd)

	heatmapCmd.Flags().StringVar(&heatmapUser, "user", "", "user id")
	heatmapCmd.Flags().IntVar(&heatmapYear, "year", 0, "year (default current year)")
	heatmapCmd.Flags().IntVar(&heatmapMonth, "month", 0, "also print statistics for this month (1-12)")
	heatmapCmd.Flags().BoolVar(&heatmapJSON, "json", false, "print the raw response as JSON")
	_ = heatmapCmd.MarkFlagRequired("user")
}

func runHeatmap(cmd *cobra.Command, args []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.Close()

	year := heatmapYear
	if year == 0 {
		year = a.service.Today().Year
	}

	resp, err := a.service.Heatmap(cmd.Context(), heatmapUser, year)
	if err != nil {
		return fmt.Errorf("build heatmap: %w", err)
	}

	if heatmapJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	out := newReport(cmd.OutOrStdout(), 14)
	out.heavyRule()
	out.line("  %s · %d", resp.UserID, resp.Year)
	out.rule()
	renderCalendar(out.w, resp)
	out.rule()
	printStreak(out, resp)

	if heatmapMonth != 0 {
		stats, err := a.service.MonthlyStats(cmd.Context(), heatmapUser, year, heatmapMonth)
		if err != nil {
			return fmt.Errorf("monthly stats: %w", err)
		}
		out.rule()
		printMonthlyStats(out, stats)
	}

	return nil
}

var levelGlyphs = [contracts.MaxActivityLevel + 1]string{"·", "░", "▒", "▓", "█"}

// renderCalendar prints one row per grid day offset and one column per week.
// Rows are labelled with the weekday the offset falls on in this year.
func renderCalendar(w io.Writer, resp *contracts.HeatmapResponse) {
	const labelWidth = 4

	fmt.Fprintln(w, strings.Repeat(" ", labelWidth)+monthHeader(resp))

	for d := 0; d < contracts.DaysPerWeek; d++ {
		var b strings.Builder
		b.WriteString(resp.Weeks[0][d].Date.Weekday().String()[:3])
		b.WriteByte(' ')
		for wk := 0; wk < contracts.WeeksPerGrid; wk++ {
			cell := resp.Weeks[wk][d]
			if !cell.InYear {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(levelGlyphs[cell.ActivityLevel])
		}
		fmt.Fprintln(w, b.String())
	}

	fmt.Fprintf(w, "%sless %s more\n", strings.Repeat(" ", labelWidth), strings.Join(levelGlyphs[:], ""))
}

// monthHeader places a month abbreviation over the first week of each month
func monthHeader(resp *contracts.HeatmapResponse) string {
	header := []rune(strings.Repeat(" ", contracts.WeeksPerGrid))
	free := 0 // first column not yet taken by a label
	prev := 0
	for wk := 0; wk < contracts.WeeksPerGrid; wk++ {
		cell := resp.Weeks[wk][0]
		if !cell.InYear {
			break
		}
		month := int(cell.Date.Month)
		if month == prev {
			continue
		}
		prev = month
		label := []rune(cell.Date.Month.String()[:3])
		if wk < free || wk+len(label) > len(header) {
			continue
		}
		copy(header[wk:], label)
		free = wk + len(label) + 1
	}
	return strings.TrimRight(string(header), " ")
}

func printStreak(out *report, resp *contracts.HeatmapResponse) {
	milestones := "none yet"
	if len(resp.Milestones) > 0 {
		parts := make([]string, len(resp.Milestones))
		for i, m := range resp.Milestones {
			parts[i] = strconv.Itoa(m) + "d"
		}
		milestones = strings.Join(parts, ", ")
	}

	out.kv("Entries", "%d", resp.TotalEntries)
	out.kv("Current streak", "%d days", resp.Streak.CurrentStreak)
	out.kv("Longest streak", "%d days", resp.Streak.LongestStreak)
	out.kv("Milestones", "%s", milestones)
	if resp.Skipped > 0 {
		out.warn("%d record(s) had no usable date and were skipped", resp.Skipped)
	}
}

func printMonthlyStats(out *report, s *contracts.MonthlyStats) {
	out.line("  %d-%02d", s.Year, s.Month)
	out.kv("Entries", "%d (text %d, video %d)", s.TotalEntries, s.TextEntries, s.VideoEntries)
	out.kv("Active days", "%d", s.DaysWithEntries)
	out.kv("Avg overall", "%.1f", s.AvgOverallScore)
	out.kv("Avg stress", "%.1f", s.AvgStressScore)
	if s.BestDay != nil {
		out.kv("Best day", "%s", s.BestDay)
	}
	if s.ChallengingDay != nil {
		out.kv("Hardest day", "%s", s.ChallengingDay)
	}
}
