package reports

import (
	"fmt"
	"time"

	"ocstat/internal/events"
	"ocstat/internal/models"

	"github.com/dustin/go-humanize"
)

const gigabyte = 1024 * 1024 * 1024

// Caption is the text sent along with a report image.
func Caption(report *models.Report, tag string, now time.Time) string {
	return fmt.Sprintf("%s: %s report %s for %s Outgoing: %.2f GB Incoming: %.2f GB Connections: %s Duration: %s seconds",
		tag,
		report.WindowKind.Title(),
		windowLabel(report.WindowKind, report.WindowStart),
		now.Format(time.DateTime),
		float64(report.Totals.OutgoingBytes)/gigabyte,
		float64(report.Totals.IncomingBytes)/gigabyte,
		humanize.Comma(report.Totals.ConnectionCount),
		humanize.Comma(report.Totals.TotalDurationSeconds),
	)
}

func windowLabel(kind models.WindowKind, start time.Time) string {
	if kind == models.WindowMonthly {
		return start.Format("2006-01")
	}
	return start.Format(time.DateOnly)
}

// FormatNotice renders a connection notice for the chat. Unknown kinds yield "".
func FormatNotice(notice events.ConnectionNotice, tag string) string {
	switch notice.Kind {
	case events.NoticeNewIP:
		return fmt.Sprintf("%s: User: %s connected from IP address: %s.", tag, notice.Username, notice.IPReal)
	case events.NoticeDisconnect:
		reason := notice.Reason
		if reason == "" {
			reason = string(models.EventDisconnect)
		}
		return fmt.Sprintf("%s: Status: %s User: %s IP: %s TO: %s IN: %s OUT: %s TIME: %s",
			tag, reason, notice.Username, notice.IPReal, notice.IPRemote,
			humanize.IBytes(uint64(notice.Usage.BytesIn)),
			humanize.IBytes(uint64(notice.Usage.BytesOut)),
			(time.Duration(notice.Usage.DurationSeconds) * time.Second).String(),
		)
	default:
		return ""
	}
}
