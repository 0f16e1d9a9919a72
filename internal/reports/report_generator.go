package reports

import (
	"ocstat/internal/models"

	"github.com/coder/quartz"
)

// SnapshotReader hands out immutable copies of a window as it should be
// reported; the monthly window includes the open day.
// *stores.AccumulatorStore satisfies it.
type SnapshotReader interface {
	Current(kind models.WindowKind) models.WindowSnapshot
}

//go:generate mockgen -source=report_generator.go -destination=./mocks/report_generator_mock.go -package=mocks
type Generator interface {
	// Build reports the open window of kind as it is right now.
	Build(reader SnapshotReader, kind models.WindowKind) *models.Report
	// BuildSnapshot reports an already captured window, typically one that
	// was just closed by a rollover.
	BuildSnapshot(snapshot models.WindowSnapshot) *models.Report
}

type generator struct {
	clock quartz.Clock
}

func NewGenerator(clock quartz.Clock) Generator {
	return &generator{clock: clock}
}

func (g *generator) Build(reader SnapshotReader, kind models.WindowKind) *models.Report {
	return g.BuildSnapshot(reader.Current(kind))
}

func (g *generator) BuildSnapshot(snapshot models.WindowSnapshot) *models.Report {
	report := &models.Report{
		WindowKind:  snapshot.WindowKind,
		WindowStart: snapshot.WindowStart,
		GeneratedAt: g.clock.Now(),
		Rows:        make([]models.ReportRow, 0, len(snapshot.Accumulators)),
	}

	for _, name := range snapshot.Usernames() {
		acc := snapshot.Accumulators[name]
		report.Rows = append(report.Rows, models.ReportRow{
			Username:             name,
			OutgoingBytes:        acc.OutgoingBytes,
			IncomingBytes:        acc.IncomingBytes,
			ConnectionCount:      acc.ConnectionCount,
			TotalDurationSeconds: acc.TotalDurationSeconds,
		})
		report.Totals.OutgoingBytes += acc.OutgoingBytes
		report.Totals.IncomingBytes += acc.IncomingBytes
		report.Totals.ConnectionCount += acc.ConnectionCount
		report.Totals.TotalDurationSeconds += acc.TotalDurationSeconds
	}

	return report
}
