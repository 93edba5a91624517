package getpostingrecord

import "ghostjob-workers/internal/models"

type Input struct {
	RecordID string `json:"recordId"`
	// RequesterID must match the record owner unless the record is anonymous.
	RequesterID string `json:"requesterId,omitempty"`
}

type Output struct {
	PostingRecord *models.PostingRecord `json:"postingRecord"`
}
