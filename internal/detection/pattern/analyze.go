// Package pattern compares a new posting with its company's history and
// derives the duplicate, recycling and cadence signals behind the
// confidence score.
package pattern

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ghostjob-workers/internal/detection/similarity"
	"ghostjob-workers/internal/models"
)

const (
	MaxConfidence = 10
	MinConfidence = 1

	DefaultSimilarityThreshold = 0.85
	DefaultRecentWindow        = 30 * 24 * time.Hour

	longOpenDays          = 90
	recycledMinSimilar    = 3
	frequentMaxGapDays    = 7
	frequentMinRecent     = 5
	longOpenPenalty       = 2
	recycledPenalty       = 2
	frequentRepostPenalty = 1
)

// Rule names, also used as metric labels.
const (
	RuleLongOpen          = "long_open"
	RuleRecycled          = "recycled_description"
	RuleFrequentReposting = "frequent_reposting"
)

// Policy holds the tunables of the analysis.
type Policy struct {
	// SimilarityThreshold is exclusive: scores must be strictly above it.
	SimilarityThreshold float64
	// RecentWindow bounds RecentPostingCount. Zero counts all history.
	RecentWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SimilarityThreshold: DefaultSimilarityThreshold,
		RecentWindow:        DefaultRecentWindow,
	}
}

// Posting is the submitted posting, company already normalized.
type Posting struct {
	CompanyName    string
	JobTitle       string
	Location       string
	JobDescription string
}

// Assessment is the outcome of Evaluate. RawScore is the score before
// clamping and may fall below MinConfidence.
type Assessment struct {
	Summary    models.PatternSummary
	RawScore   int
	FiredRules []string
}

// Analyze returns the pattern summary for posting against history.
func Analyze(posting Posting, history []models.PostingRecord, now time.Time, policy Policy) models.PatternSummary {
	return Evaluate(posting, history, now, policy).Summary
}

// Evaluate runs the analysis and reports which rules fired.
func Evaluate(posting Posting, history []models.PostingRecord, now time.Time, policy Policy) Assessment {
	sorted := make([]models.PostingRecord, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstSeen.Before(sorted[j].FirstSeen)
	})

	summary := models.PatternSummary{
		CompanyName:        posting.CompanyName,
		SuspiciousPatterns: []string{},
		SimilarJobs:        []models.SimilarJob{},
	}

	summary.AveragePostingFrequencyDays = averageGapDays(sorted)
	summary.RecentPostingCount = recentCount(sorted, now, policy.RecentWindow)

	for _, rec := range sorted {
		openUntil := rec.OpenUntil(now)
		score := similarity.Compare(posting.JobDescription, rec.JobDescription)
		if score > policy.SimilarityThreshold {
			// the posting has reappeared, so the matched one is still open
			if now.After(openUntil) {
				openUntil = now
			}
			summary.SimilarJobs = append(summary.SimilarJobs, models.SimilarJob{
				ID:         rec.ID,
				JobTitle:   rec.JobTitle,
				Location:   rec.Location,
				FirstSeen:  rec.FirstSeen,
				Similarity: similarity.Percent(score),
			})
		}
		if open := daysBetween(rec.FirstSeen, openUntil); open > summary.LongestOpenDays {
			summary.LongestOpenDays = open
		}
	}
	summary.SimilarJobCount = len(summary.SimilarJobs)

	score := MaxConfidence
	var fired []string

	if summary.LongestOpenDays > longOpenDays {
		summary.SuspiciousPatterns = append(summary.SuspiciousPatterns,
			fmt.Sprintf("A posting from this company has stayed open for %d days", summary.LongestOpenDays))
		score -= longOpenPenalty
		fired = append(fired, RuleLongOpen)
	}

	if summary.SimilarJobCount > recycledMinSimilar {
		summary.RecycledDescriptions = true
		summary.SuspiciousPatterns = append(summary.SuspiciousPatterns,
			fmt.Sprintf("Description closely matches %d earlier postings", summary.SimilarJobCount))
		score -= recycledPenalty
		fired = append(fired, RuleRecycled)
	}

	if summary.AveragePostingFrequencyDays < frequentMaxGapDays && summary.RecentPostingCount > frequentMinRecent {
		summary.SuspiciousPatterns = append(summary.SuspiciousPatterns,
			fmt.Sprintf("Company reposts every %d days on average with %d recent postings",
				summary.AveragePostingFrequencyDays, summary.RecentPostingCount))
		score -= frequentRepostPenalty
		fired = append(fired, RuleFrequentReposting)
	}

	summary.ConfidenceScore = Clamp(score)

	return Assessment{
		Summary:    summary,
		RawScore:   score,
		FiredRules: fired,
	}
}

// Clamp bounds a score to [MinConfidence, MaxConfidence].
func Clamp(score int) int {
	if score < MinConfidence {
		return MinConfidence
	}
	if score > MaxConfidence {
		return MaxConfidence
	}
	return score
}

// SimilarIDs lists the ids of the similar jobs in summary order.
func SimilarIDs(summary models.PatternSummary) []string {
	ids := make([]string, 0, len(summary.SimilarJobs))
	for _, j := range summary.SimilarJobs {
		ids = append(ids, j.ID)
	}
	return ids
}

// averageGapDays is the rounded mean gap in days between consecutive
// FirstSeen values of sorted, or 0 with fewer than two records.
func averageGapDays(sorted []models.PostingRecord) int {
	if len(sorted) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(sorted); i++ {
		total += sorted[i].FirstSeen.Sub(sorted[i-1].FirstSeen).Hours() / 24
	}
	return int(math.Round(total / float64(len(sorted)-1)))
}

func recentCount(history []models.PostingRecord, now time.Time, window time.Duration) int {
	if window <= 0 {
		return len(history)
	}
	cutoff := now.Add(-window)
	n := 0
	for _, rec := range history {
		if !rec.FirstSeen.Before(cutoff) {
			n++
		}
	}
	return n
}

// daysBetween counts whole days from start to end, never negative.
func daysBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
