package models

import "time"

// ReportRow is one user's line in a report.
type ReportRow struct {
	Username             string `json:"username"`
	OutgoingBytes        int64  `json:"outgoingBytes"`
	IncomingBytes        int64  `json:"incomingBytes"`
	ConnectionCount      int64  `json:"connectionCount"`
	TotalDurationSeconds int64  `json:"totalDurationSeconds"`
}

type ReportTotals struct {
	OutgoingBytes        int64 `json:"outgoingBytes"`
	IncomingBytes        int64 `json:"incomingBytes"`
	ConnectionCount      int64 `json:"connectionCount"`
	TotalDurationSeconds int64 `json:"totalDurationSeconds"`
}

// Report is built from a snapshot and never mutated afterwards. Rows are
// sorted by username.
type Report struct {
	WindowKind  WindowKind   `json:"windowKind"`
	WindowStart time.Time    `json:"windowStart"`
	GeneratedAt time.Time    `json:"generatedAt"`
	Rows        []ReportRow  `json:"rows"`
	Totals      ReportTotals `json:"totals"`
}

// IsEmpty reports whether no user had any activity in the window.
func (r *Report) IsEmpty() bool {
	return r.Totals == ReportTotals{}
}

// ImageBlob is an encoded image ready to be sent or stored.
type ImageBlob struct {
	Data        []byte
	ContentType string
	Filename    string
}
