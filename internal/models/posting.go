// internal/models/posting.go
package models

import "time"

// AnonymousOwner is stored as OwnerID when a posting is submitted without a user.
const AnonymousOwner = "anonymous"

// PostingRecord is one stored observation of a job posting.
type PostingRecord struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"companyName"`
	JobTitle       string    `json:"jobTitle"`
	Location       string    `json:"location"`
	JobDescription string    `json:"jobDescription"`
	FirstSeen      time.Time `json:"firstSeen"`
	LastSeen       time.Time `json:"lastSeen"`
	// SimilarJobIDs points at earlier records found similar when this one was
	// analyzed. Older records are never updated to point back.
	SimilarJobIDs []string `json:"similarJobIds"`
	OwnerID       string   `json:"ownerId"`
}

// OpenUntil returns LastSeen, or now when the record was never re-sighted.
func (r PostingRecord) OpenUntil(now time.Time) time.Time {
	if r.LastSeen.IsZero() {
		return now
	}
	return r.LastSeen
}

// Clone returns a copy that shares no slices with r.
func (r PostingRecord) Clone() PostingRecord {
	out := r
	if r.SimilarJobIDs != nil {
		out.SimilarJobIDs = append([]string(nil), r.SimilarJobIDs...)
	}
	return out
}

// SimilarJob is a historical posting whose description matched the new one.
type SimilarJob struct {
	ID         string    `json:"id"`
	JobTitle   string    `json:"jobTitle"`
	Location   string    `json:"location"`
	FirstSeen  time.Time `json:"firstSeen"`
	Similarity int       `json:"similarity"` // percent
}

// PatternSummary is computed per request from a company's history and is not
// persisted on its own.
type PatternSummary struct {
	RecordID                    string       `json:"recordId"`
	CompanyName                 string       `json:"companyName"`
	RecentPostingCount          int          `json:"recentPostingCount"`
	SimilarJobCount             int          `json:"similarJobCount"`
	LongestOpenDays             int          `json:"longestOpenDays"`
	AveragePostingFrequencyDays int          `json:"averagePostingFrequencyDays"`
	RecycledDescriptions        bool         `json:"recycledDescriptions"`
	SuspiciousPatterns          []string     `json:"suspiciousPatterns"`
	ConfidenceScore             int          `json:"confidenceScore"`
	SimilarJobs                 []SimilarJob `json:"similarJobs"`
}

// CompanySuspicionEntry is one row of the fleet report.
type CompanySuspicionEntry struct {
	CompanyName          string   `json:"companyName"`
	PostingCount         int      `json:"postingCount"`
	SimilarPostingsCount int      `json:"similarPostingsCount"`
	Locations            []string `json:"locations"`
	Titles               []string `json:"titles"`
	SuspicionScore       int      `json:"suspicionScore"`
}

// JobPosting is the free-text payload handed to the authenticity judge.
type JobPosting struct {
	JobTitle       string `json:"jobTitle"`
	Company        string `json:"company"`
	Location       string `json:"location"`
	JobDescription string `json:"jobDescription"`
}

// AuthenticityJudgement is the structured verdict returned by the judge.
type AuthenticityJudgement struct {
	AuthenticityScore int      `json:"authenticityScore"`
	RedFlags          []string `json:"redFlags"`
	GreenFlags        []string `json:"greenFlags"`
	Reasoning         string   `json:"reasoning"`
}
