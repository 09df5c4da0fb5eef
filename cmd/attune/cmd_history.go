package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// historyCmd renders the per-metric history dashboard
var historyCmd = &cobra.Command{
	Use:   "history [metric]",
	Short: "Show metric history and trends",
	Long: `Without arguments, summarizes every tracked metric. With a metric name,
prints that metric's full series in completion order.

Metrics: personalizationScore, recallRate, contextualRelevance, conversationNaturalness`,
	Args: cobra.MaximumNArgs(1),
	RunE: showHistory,
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		return showSeries(a, args[0])
	}

	names := a.pipeline.Metrics()
	if len(names) == 0 {
		fmt.Println("No metric history yet. Complete a session first.")
		return nil
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%-26s %5s %8s %8s %8s %8s", "metric", "n", "min", "mean", "max", "trend")))
	for _, name := range names {
		sum := a.pipeline.Summarize(name)
		trend := fmt.Sprintf("%+.1f", sum.Delta)
		switch {
		case sum.Delta > 0:
			trend = upStyle.Render(trend)
		case sum.Delta < 0:
			trend = downStyle.Render(trend)
		default:
			trend = dimStyle.Render(trend)
		}
		fmt.Printf("%-26s %5d %8.1f %8.1f %8.1f %8s\n", name, sum.Count, sum.Min, sum.Mean, sum.Max, trend)
	}
	return nil
}

func showSeries(a *app, metric string) error {
	entries := a.pipeline.History(metric)
	if len(entries) == 0 {
		fmt.Printf("No history for %q.\n", metric)
		return nil
	}

	fmt.Println(headerStyle.Render(metric))
	for _, e := range entries {
		bar := strings.Repeat("█", barWidth(e.Value))
		fmt.Printf("%s  %7.1f  %s  %s\n",
			e.Date.Format("2006-01-02 15:04"),
			e.Value,
			bar,
			dimStyle.Render(e.SessionID))
	}

	sum := a.pipeline.Summarize(metric)
	fmt.Println(dimStyle.Render(fmt.Sprintf("n=%d min=%.1f mean=%.1f max=%.1f latest=%.1f delta=%+.1f",
		sum.Count, sum.Min, sum.Mean, sum.Max, sum.Latest, sum.Delta)))
	return nil
}

// barWidth scales a metric value (any of the 0-5, 1-10, or 0-100 ranges) to
// at most 40 columns.
func barWidth(v float64) int {
	if v <= 10 {
		v = v * 10
	}
	w := int(v / 2.5)
	if w < 1 {
		w = 1
	}
	if w > 40 {
		w = 40
	}
	return w
}
