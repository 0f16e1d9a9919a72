package events

import (
	"time"

	"ocstat/internal/models"
)

// RolloverEvent is emitted when a window closes. Snapshot holds the closed
// window's accumulators exactly as they were persisted.
//
// Example JSON:
//
//	{
//	  "windowKind": "daily",
//	  "closedWindowStart": "2025-12-28T00:00:00Z",
//	  "newWindowStart": "2025-12-29T00:00:00Z",
//	  "rolledAt": "2025-12-29T00:00:07Z",
//	  "snapshot": {
//	    "windowKind": "daily",
//	    "windowStart": "2025-12-28T00:00:00Z",
//	    "accumulators": {
//	      "alice": {"outgoingBytes": 2097152, "incomingBytes": 1048576, "connectionCount": 2, "totalDurationSeconds": 3600}
//	    }
//	  }
//	}
type RolloverEvent struct {
	WindowKind        models.WindowKind     `json:"windowKind"`
	ClosedWindowStart time.Time             `json:"closedWindowStart"`
	NewWindowStart    time.Time             `json:"newWindowStart"`
	RolledAt          time.Time             `json:"rolledAt"`
	Snapshot          models.WindowSnapshot `json:"snapshot"`
}
