package pipeline

import (
	"sort"

	"attune/internal/types"
)

// Summary is a read-side aggregation over one metric's history series.
// History itself is append-only; summarizing never mutates it.
type Summary struct {
	Metric string
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Latest float64
	// Delta is latest minus first: the trend over the whole series.
	Delta float64
}

// Metrics returns the metric names present in history, sorted.
func (p *Pipeline) Metrics() []string {
	history := p.store.GetHistory()
	names := make([]string, 0, len(history))
	for name := range history {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// History returns the raw series for a metric, in completion order.
func (p *Pipeline) History(metric string) []types.MetricsHistoryEntry {
	return p.store.GetHistory()[metric]
}

// Summarize aggregates a metric's series. An empty or absent series yields a
// zero-count summary.
func (p *Pipeline) Summarize(metric string) Summary {
	entries := p.store.GetHistory()[metric]
	s := Summary{Metric: metric, Count: len(entries)}
	if len(entries) == 0 {
		return s
	}

	s.Min = entries[0].Value
	s.Max = entries[0].Value
	var sum float64
	for _, e := range entries {
		if e.Value < s.Min {
			s.Min = e.Value
		}
		if e.Value > s.Max {
			s.Max = e.Value
		}
		sum += e.Value
	}
	s.Mean = sum / float64(len(entries))
	s.Latest = entries[len(entries)-1].Value
	s.Delta = s.Latest - entries[0].Value
	return s
}
