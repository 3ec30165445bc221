package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceStatus indicates whether a water source is accepting bookings.
type SourceStatus string

const (
	SourceActive           SourceStatus = "ACTIVE"
	SourceUnderMaintenance SourceStatus = "MAINTENANCE"
)

// WaterSource is a shared physical dispensing point. Slots are defined
// against a source by the configuration editor; the booking core only
// reads sources.
type WaterSource struct {
	SourceID      string          `json:"sourceID"` // Primary Key (UUID)
	Name          string          `json:"name"`
	Status        SourceStatus    `json:"status"`
	PricePerLiter decimal.Decimal `json:"pricePerLiter"`
	// Operating hours, minutes from midnight local time. Slots must fall
	// inside [OpensAt, ClosesAt).
	OpensAtMinute  int `json:"opensAtMinute"`
	ClosesAtMinute int `json:"closesAtMinute"`
	AuditFields
}

// AcceptsBookings reports whether new bookings may be created against the source.
func (s *WaterSource) AcceptsBookings() bool {
	return s.Status == SourceActive
}

// WithinOperatingHours reports whether the interval [start, end) falls inside
// the source's daily operating hours.
func (s *WaterSource) WithinOperatingHours(start, end time.Time) bool {
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	if endMin == 0 { // slot ending exactly at midnight
		endMin = 24 * 60
	}
	return startMin >= s.OpensAtMinute && endMin <= s.ClosesAtMinute && startMin < endMin
}
