package models

import "time"

// SessionBatch is a group of session records pushed to the ingestion API in one request.
type SessionBatch struct {
	BatchID    string           `json:"batchId"`
	ReceivedAt time.Time        `json:"receivedAt"`
	Records    []*SessionRecord `json:"records"`
}
