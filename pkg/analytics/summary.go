package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prompt-arena/arena/pkg/api"
	"github.com/prompt-arena/arena/pkg/storage"
)

// topProviders caps the provider usage list in the summary.
const topProviders = 5

// trendDays is the length of the daily comparison series, today included.
const trendDays = 7

// Summarizer computes the admin dashboard payload from the completion log.
type Summarizer struct {
	store storage.Store

	// now is swapped in tests.
	now func() time.Time
}

// NewSummarizer creates a summarizer over the given store.
func NewSummarizer(store storage.Store) *Summarizer {
	return &Summarizer{store: store, now: time.Now}
}

// Summary aggregates the whole completion log. Provider usage is keyed by
// configured display name where the config still exists, config ID otherwise.
func (s *Summarizer) Summary(ctx context.Context) (*api.AnalyticsSummary, error) {
	records, err := s.store.ListCompletions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing completions: %w", err)
	}

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}

	names := s.providerNames(ctx)

	summary := &api.AnalyticsSummary{
		TotalComparisons: len(records),
		TotalUsers:       users,
		ProviderUsage:    []api.ProviderUsage{},
		ComparisonsByDay: []api.DailyComparison{},
	}

	usage := make(map[string]int)
	byDay := make(map[string]int)
	var totalElapsed int64

	for _, rec := range records {
		totalElapsed += rec.ElapsedMs
		byDay[rec.CreatedAt.UTC().Format("2006-01-02")]++
		for _, id := range rec.ProvidersAttempted {
			label := id
			if name, ok := names[id]; ok {
				label = name
			}
			usage[label]++
		}
	}

	if len(records) > 0 {
		summary.AverageElapsedMs = totalElapsed / int64(len(records))
	}

	summary.ProviderUsage = topUsage(usage)
	summary.ComparisonsByDay = dailyTrend(byDay, s.now().UTC())

	return summary, nil
}

// providerNames maps config IDs to display names. A storage failure here
// degrades to raw IDs rather than failing the summary.
func (s *Summarizer) providerNames(ctx context.Context) map[string]string {
	configs, err := s.store.ListConfigs(ctx)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(configs))
	for _, cfg := range configs {
		names[cfg.ID] = cfg.DisplayName
	}
	return names
}

// topUsage sorts usage counts descending (name ascending on ties) and
// keeps the top entries.
func topUsage(usage map[string]int) []api.ProviderUsage {
	out := make([]api.ProviderUsage, 0, len(usage))
	for name, count := range usage {
		out = append(out, api.ProviderUsage{Provider: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Provider < out[j].Provider
	})
	if len(out) > topProviders {
		out = out[:topProviders]
	}
	return out
}

// dailyTrend produces one entry per day for the trailing window, oldest
// first, zero-filled for days without comparisons.
func dailyTrend(byDay map[string]int, now time.Time) []api.DailyComparison {
	out := make([]api.DailyComparison, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		out = append(out, api.DailyComparison{Date: day, Count: byDay[day]})
	}
	return out
}
