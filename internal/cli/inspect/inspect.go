package inspect

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"ocstat/internal/sources"

	"github.com/dustin/go-humanize"
)

// Store is the read side of the postgres backend.
type Store interface {
	ListKnownIPs(ctx context.Context) ([]sources.KnownIP, error)
	ListSessions(ctx context.Context, since time.Time, limit int) ([]sources.SessionRow, error)
}

// PrintKnownIPs writes the user_ips table.
func PrintKnownIPs(ctx context.Context, store Store, out io.Writer) error {
	ips, err := store.ListKnownIPs(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "user_ips:")
	if len(ips) == 0 {
		fmt.Fprintln(out, "No user IPs found.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tIP ADDRESS\tFIRST SEEN")
	for _, ip := range ips {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ip.Username, ip.IPAddress, ip.FirstSeen.UTC().Format(time.DateTime))
	}
	return tw.Flush()
}

// PrintSessions writes completed sessions newer than since, oldest first.
func PrintSessions(ctx context.Context, store Store, out io.Writer, since time.Time, limit int) error {
	rows, err := store.ListSessions(ctx, since, limit)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "user_sessions:")
	if len(rows) == 0 {
		fmt.Fprintln(out, "No user sessions found.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tDISCONNECT TIME\tDURATION\tBYTES IN\tBYTES OUT\tIP\tREASON")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Username,
			row.DisconnectTime.UTC().Format(time.DateTime),
			(time.Duration(row.DurationSeconds) * time.Second).String(),
			humanize.IBytes(uint64(row.BytesIn)),
			humanize.IBytes(uint64(row.BytesOut)),
			row.IPReal,
			row.Reason,
		)
	}
	return tw.Flush()
}
