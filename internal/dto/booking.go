package dto

import (
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBookingRequest is the payload for requesting a slot booking.
type CreateBookingRequest struct {
	SlotID         string `json:"slotID" binding:"required"`
	QuantityLiters int64  `json:"quantityLiters" binding:"required,gt=0"`
}

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	BookingID      string               `json:"bookingID"`
	HouseholdID    string               `json:"householdID"`
	SlotID         string               `json:"slotID"`
	QuantityLiters int64                `json:"quantityLiters"`
	Price          decimal.Decimal      `json:"price"`
	Status         domain.BookingStatus `json:"status"`
	CreatedAt      time.Time            `json:"createdAt"`
	ResolvedAt     *time.Time           `json:"resolvedAt,omitempty"`
}

// ToBookingResponse maps a domain booking to its API representation.
func ToBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID:      b.BookingID,
		HouseholdID:    b.HouseholdID,
		SlotID:         b.SlotID,
		QuantityLiters: b.QuantityLiters,
		Price:          b.Price,
		Status:         b.Status,
		CreatedAt:      b.CreatedAt,
		ResolvedAt:     b.ResolvedAt,
	}
}

// ListBookingsParams holds pagination parameters for booking listings.
type ListBookingsParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListBookingsResponse is a page of bookings plus the token for the next page.
type ListBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	NextToken *string           `json:"nextToken,omitempty"`
}
