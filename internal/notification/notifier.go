// Package notification delivers booking lifecycle notifications. Delivery is
// best-effort: failures are logged and never surfaced to the booking core.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	portssvc "github.com/cwas-project/cwas_backend/internal/core/ports/services"
	"github.com/cwas-project/cwas_backend/internal/middleware"
)

// logNotifier writes booking transitions to the structured log. It is the
// fallback when no SMTP relay is configured.
type logNotifier struct{}

// NewLogNotifier creates a log-only notifier.
func NewLogNotifier() portssvc.BookingNotifier {
	return &logNotifier{}
}

var _ portssvc.BookingNotifier = (*logNotifier)(nil)

func (n *logNotifier) NotifyBookingStatus(ctx context.Context, householdID, bookingID string, status domain.BookingStatus) {
	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Info("Booking status notification",
		slog.String("household_id", householdID),
		slog.String("booking_id", bookingID),
		slog.String("status", string(status)))
}

// EmailConfig holds the SMTP relay settings for the community notifications
// mailbox.
type EmailConfig struct {
	Host string
	Port string
	From string
	To   string
}

// emailNotifier sends one plain-text mail per booking transition to the
// community notifications mailbox.
type emailNotifier struct {
	cfg  EmailConfig
	send func(addr, from string, to []string, msg []byte) error
}

// NewEmailNotifier creates an SMTP-backed notifier.
func NewEmailNotifier(cfg EmailConfig) portssvc.BookingNotifier {
	return &emailNotifier{
		cfg: cfg,
		send: func(addr, from string, to []string, msg []byte) error {
			return smtp.SendMail(addr, nil, from, to, msg)
		},
	}
}

var _ portssvc.BookingNotifier = (*emailNotifier)(nil)

func (n *emailNotifier) NotifyBookingStatus(ctx context.Context, householdID, bookingID string, status domain.BookingStatus) {
	logger := middleware.GetLoggerFromCtx(ctx)

	subject := fmt.Sprintf("Booking %s is now %s", bookingID, status)
	body := fmt.Sprintf("Household: %s\r\nBooking: %s\r\nStatus: %s\r\n", householdID, bookingID, status)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", n.cfg.From, n.cfg.To, subject, body))

	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	if err := n.send(addr, n.cfg.From, []string{n.cfg.To}, msg); err != nil {
		logger.Warn("Failed to send booking notification mail",
			slog.String("booking_id", bookingID),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("Booking notification mail sent",
		slog.String("booking_id", bookingID),
		slog.String("status", string(status)))
}
