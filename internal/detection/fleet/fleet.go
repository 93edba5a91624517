// Package fleet ranks companies across the whole posting history by how
// often they recycle postings.
package fleet

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	apperrors "ghostjob-workers/internal/common/errors"
	"ghostjob-workers/internal/common/logger"
	"ghostjob-workers/internal/common/metrics"
	"ghostjob-workers/internal/models"
	"ghostjob-workers/internal/store"
)

const (
	// minSimilarLinks is exclusive: a record needs more links than this.
	minSimilarLinks = 3

	maxBaseScore        = 10
	titleRatioCutoff    = 0.5
	minPostingsForBonus = 5
	titleBonusWeight    = 5
)

type Aggregator struct {
	store    store.HistoryStore
	pageSize int
	logger   logger.Logger
}

func NewAggregator(st store.HistoryStore, pageSize int, log logger.Logger) *Aggregator {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &Aggregator{store: st, pageSize: pageSize, logger: log}
}

type group struct {
	postings  int
	similar   int
	titles    map[string]struct{}
	locations map[string]struct{}
}

// ListSuspiciousCompanies scans every stored record and returns one entry per
// company with at least one heavily linked record, highest score first.
func (a *Aggregator) ListSuspiciousCompanies(ctx context.Context) ([]models.CompanySuspicionEntry, error) {
	groups := make(map[string]*group)
	scanned := 0

	err := store.Scan(ctx, a.store, a.pageSize, func(rec models.PostingRecord) error {
		scanned++
		if len(rec.SimilarJobIDs) <= minSimilarLinks {
			return nil
		}
		g, ok := groups[rec.CompanyName]
		if !ok {
			g = &group{titles: map[string]struct{}{}, locations: map[string]struct{}{}}
			groups[rec.CompanyName] = g
		}
		g.postings++
		g.similar += len(rec.SimilarJobIDs)
		g.titles[strings.TrimSpace(rec.JobTitle)] = struct{}{}
		if loc := strings.TrimSpace(rec.Location); loc != "" {
			g.locations[loc] = struct{}{}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("history-store", err)
		}
		return nil, apperrors.NewStoreUnavailableError("scan", err)
	}

	entries := make([]models.CompanySuspicionEntry, 0, len(groups))
	for name, g := range groups {
		entries = append(entries, models.CompanySuspicionEntry{
			CompanyName:          name,
			PostingCount:         g.postings,
			SimilarPostingsCount: g.similar,
			Titles:               sortedKeys(g.titles),
			Locations:            sortedKeys(g.locations),
			SuspicionScore:       Score(g.postings, g.similar, len(g.titles)),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SuspicionScore != entries[j].SuspicionScore {
			return entries[i].SuspicionScore > entries[j].SuspicionScore
		}
		return entries[i].CompanyName < entries[j].CompanyName
	})

	metrics.SuspiciousCompanies.Set(float64(len(entries)))
	a.logger.Info("fleet report built", map[string]interface{}{
		"scannedRecords": scanned,
		"companies":      len(entries),
	})

	return entries, nil
}

// Score is min(10, similar/2) plus a bonus of (1-ratio)*5 when the company
// reuses few titles across more than five postings, rounded.
func Score(postingCount, similarCount, distinctTitles int) int {
	base := math.Min(maxBaseScore, float64(similarCount)/2)

	bonus := 0.0
	if postingCount > 0 {
		ratio := float64(distinctTitles) / float64(postingCount)
		if ratio < titleRatioCutoff && postingCount > minPostingsForBonus {
			bonus = (1 - ratio) * titleBonusWeight
		}
	}

	return int(math.Round(base + bonus))
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
