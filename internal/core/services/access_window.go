package services

import (
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
)

// AccessWindowPolicy staggers when each priority tier may begin booking a
// slot. A slot opens ReleaseWindow before its start time; the Essential tier
// may book from that moment, and each lower tier waits a further TierStagger.
// Ties among equal-tier households are broken by arrival order at the
// store's serialization point, so no explicit queueing is needed here.
type AccessWindowPolicy struct {
	ReleaseWindow time.Duration
	TierStagger   time.Duration
}

// OpensAt returns the instant the given tier gains access to the slot.
func (p AccessWindowPolicy) OpensAt(tier domain.PriorityTier, slotStart time.Time) time.Time {
	release := slotStart.Add(-p.ReleaseWindow)
	return release.Add(time.Duration(tier.Rank()) * p.TierStagger)
}

// Open reports whether the tier may book the slot at now. The window closes
// for everyone at slot start.
func (p AccessWindowPolicy) Open(tier domain.PriorityTier, slotStart, now time.Time) bool {
	if !now.Before(slotStart) {
		return false
	}
	return !now.Before(p.OpensAt(tier, slotStart))
}
