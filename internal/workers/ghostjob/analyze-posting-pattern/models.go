package analyzepostingpattern

import "ghostjob-workers/internal/models"

type Input struct {
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
	Location       string `json:"location,omitempty"`
	JobDescription string `json:"jobDescription"`
	OwnerID        string `json:"ownerId,omitempty"`
}

// Output keeps the score and record id at the top level so BPMN gateways can
// branch on them without unpacking the summary.
type Output struct {
	RecordID             string                 `json:"recordId"`
	ConfidenceScore      int                    `json:"confidenceScore"`
	RecycledDescriptions bool                   `json:"recycledDescriptions"`
	PatternSummary       *models.PatternSummary `json:"patternSummary"`
}
