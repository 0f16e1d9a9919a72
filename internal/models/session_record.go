package models

import (
	"fmt"
	"strings"
	"time"
)

type EventKind string

const (
	EventConnect    EventKind = "connect"
	EventDisconnect EventKind = "disconnect"
)

func NewEventKindFromString(s string) (EventKind, error) {
	switch EventKind(strings.ToLower(strings.TrimSpace(s))) {
	case EventConnect:
		return EventConnect, nil
	case EventDisconnect:
		return EventDisconnect, nil
	default:
		return "", fmt.Errorf("invalid event kind %q", s)
	}
}

// SessionRecord is one connect or disconnect event as delivered by a source.
// Numeric fields keep the text received so validation can report what was wrong.
//
// Example JSON line:
//
//	{"username":"alice","eventKind":"disconnect","ipReal":"203.0.113.7","ipRemote":"10.10.0.2",
//	 "bytesIn":"1048576","bytesOut":"2097152","durationSeconds":"3600","timestamp":"2025-12-28T18:03:00Z"}
type SessionRecord struct {
	Username        string    `json:"username"`
	EventKind       EventKind `json:"eventKind"`
	IPReal          string    `json:"ipReal,omitempty"`
	IPRemote        string    `json:"ipRemote,omitempty"`
	BytesIn         string    `json:"bytesIn,omitempty"`
	BytesOut        string    `json:"bytesOut,omitempty"`
	DurationSeconds string    `json:"durationSeconds,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	// Reason carries the raw status the event came from (connect, disconnect, idle-timeout...).
	Reason string `json:"reason,omitempty"`
}

// SessionUsage is the validated numeric payload of a disconnect event.
type SessionUsage struct {
	Username        string
	BytesIn         int64
	BytesOut        int64
	DurationSeconds int64
	Timestamp       time.Time
}

// NormalizeUsername trims name and cuts it at the first sep. VPN accounts are
// commonly suffixed per device ("alice_phone") but billed per person.
func NormalizeUsername(name, sep string) string {
	name = strings.TrimSpace(name)
	if sep == "" {
		return name
	}
	if before, _, found := strings.Cut(name, sep); found && before != "" {
		return before
	}
	return name
}
