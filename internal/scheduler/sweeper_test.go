package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cwas-project/cwas_backend/internal/core/domain"
	"github.com/cwas-project/cwas_backend/internal/dto"
	"github.com/cwas-project/cwas_backend/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingWriterSvc is a mock implementation of portssvc.BookingWriterSvc
type MockBookingWriterSvc struct {
	mock.Mock
}

func (m *MockBookingWriterSvc) Request(ctx context.Context, actor domain.Actor, req dto.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingWriterSvc) Approve(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingWriterSvc) Deny(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingWriterSvc) Cancel(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, actor, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingWriterSvc) CompleteElapsed(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_RunSweepsUntilCancelled(t *testing.T) {
	bookingSvc := new(MockBookingWriterSvc)

	swept := make(chan struct{}, 1)
	bookingSvc.On("CompleteElapsed", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]domain.Booking{}, nil).
		Run(func(mock.Arguments) {
			select {
			case swept <- struct{}{}:
			default:
			}
		})

	sweeper := scheduler.NewSweeper(bookingSvc, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never swept")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}

	bookingSvc.AssertCalled(t, "CompleteElapsed", mock.Anything, mock.AnythingOfType("time.Time"))
}

func TestSweeper_KeepsRunningAfterSweepError(t *testing.T) {
	bookingSvc := new(MockBookingWriterSvc)

	calls := make(chan struct{}, 4)
	bookingSvc.On("CompleteElapsed", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(nil, assert.AnError).
		Run(func(mock.Arguments) {
			select {
			case calls <- struct{}{}:
			default:
			}
		})

	sweeper := scheduler.NewSweeper(bookingSvc, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	// A failed sweep must not kill the loop.
	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d never happened", i+1)
		}
	}
}
