package events

import (
	"time"

	"ocstat/internal/models"
)

type NoticeKind string

const (
	// NoticeNewIP is raised the first time a user connects from an address.
	NoticeNewIP NoticeKind = "new_ip"
	// NoticeDisconnect is raised for every accepted disconnect.
	NoticeDisconnect NoticeKind = "disconnect"
)

// ConnectionNotice is a user-facing message produced while ingesting records.
type ConnectionNotice struct {
	Kind      NoticeKind
	Username  string
	Reason    string
	IPReal    string
	IPRemote  string
	Usage     models.SessionUsage
	Timestamp time.Time
}
