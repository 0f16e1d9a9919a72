package aggregators

import (
	"fmt"
	"math"

	"ocstat/internal/models"
)

//go:generate mockgen -source=usage_rolluper.go -destination=./mocks/usage_rolluper_mock.go -package=mocks
type UsageRolluper interface {
	// Rollup mutates acc by adding one completed session.
	Rollup(acc *models.Accumulator, usage models.SessionUsage) error
	// Fold mutates monthly by adding a closed daily accumulator of the same
	// month and records the day in monthly.FoldedThrough.
	Fold(monthly *models.Accumulator, daily models.Accumulator) error
	// Merge mutates acc by adding other, an accumulator of the same window.
	Merge(acc *models.Accumulator, other models.Accumulator) error
}

type usageRolluper struct{}

func NewUsageRolluper() UsageRolluper {
	return &usageRolluper{}
}

func (r *usageRolluper) Rollup(acc *models.Accumulator, usage models.SessionUsage) error {
	if !acc.WindowKind.Contains(acc.WindowStart, usage.Timestamp) {
		return fmt.Errorf("timestamp outside window: window=%s/%v, timestamp=%v", acc.WindowKind, acc.WindowStart, usage.Timestamp)
	}
	if usage.BytesIn < 0 || usage.BytesOut < 0 || usage.DurationSeconds < 0 {
		return fmt.Errorf("negative usage for %q", usage.Username)
	}

	return add(acc, models.Accumulator{
		OutgoingBytes:        usage.BytesOut,
		IncomingBytes:        usage.BytesIn,
		ConnectionCount:      1,
		TotalDurationSeconds: usage.DurationSeconds,
	})
}

func (r *usageRolluper) Fold(monthly *models.Accumulator, daily models.Accumulator) error {
	if monthly.WindowKind != models.WindowMonthly {
		return fmt.Errorf("fold target must be monthly, got %q", monthly.WindowKind)
	}
	if daily.WindowKind != models.WindowDaily {
		return fmt.Errorf("fold source must be daily, got %q", daily.WindowKind)
	}
	if !models.WindowMonthly.Contains(monthly.WindowStart, daily.WindowStart) {
		return fmt.Errorf("windowStart mismatch: monthly=%v, daily=%v", monthly.WindowStart, daily.WindowStart)
	}

	if err := add(monthly, daily); err != nil {
		return err
	}
	if daily.WindowStart.After(monthly.FoldedThrough) {
		monthly.FoldedThrough = daily.WindowStart
	}
	return nil
}

func (r *usageRolluper) Merge(acc *models.Accumulator, other models.Accumulator) error {
	if acc.WindowKind != other.WindowKind || !acc.WindowStart.Equal(other.WindowStart) {
		return fmt.Errorf("window mismatch: %s/%v and %s/%v", acc.WindowKind, acc.WindowStart, other.WindowKind, other.WindowStart)
	}
	return add(acc, other)
}

// add applies delta to acc only when no counter would overflow.
func add(acc *models.Accumulator, delta models.Accumulator) error {
	pairs := [][2]int64{
		{acc.OutgoingBytes, delta.OutgoingBytes},
		{acc.IncomingBytes, delta.IncomingBytes},
		{acc.ConnectionCount, delta.ConnectionCount},
		{acc.TotalDurationSeconds, delta.TotalDurationSeconds},
	}
	for _, p := range pairs {
		if p[1] > math.MaxInt64-p[0] {
			return fmt.Errorf("counter overflow: %d + %d", p[0], p[1])
		}
	}

	acc.OutgoingBytes += delta.OutgoingBytes
	acc.IncomingBytes += delta.IncomingBytes
	acc.ConnectionCount += delta.ConnectionCount
	acc.TotalDurationSeconds += delta.TotalDurationSeconds
	return nil
}
