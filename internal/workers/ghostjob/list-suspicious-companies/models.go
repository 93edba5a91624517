package listsuspiciouscompanies

import "ghostjob-workers/internal/models"

type Input struct {
	// Limit caps the number of companies returned; zero returns all.
	Limit        int  `json:"limit,omitempty"`
	RefreshCache bool `json:"refreshCache,omitempty"`
}

type Output struct {
	Companies      []models.CompanySuspicionEntry `json:"companies"`
	TotalCompanies int                            `json:"totalCompanies"`
	GeneratedAt    string                         `json:"generatedAt"`
	FromCache      bool                           `json:"fromCache"`
}

// report is the cached form of a full fleet report.
type report struct {
	Companies   []models.CompanySuspicionEntry `json:"companies"`
	GeneratedAt string                         `json:"generatedAt"`
}
