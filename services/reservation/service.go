package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	bookingRepo "courtly/database/repository/booking"
	holdRepo "courtly/database/repository/hold"
	"courtly/models"
)

// ReservationService covers the upstream reservation-request flow: placing a
// temporary hold on a slot and reading holds and bookings back.
type ReservationService interface {
	CreateHold(ctx context.Context, in CreateHoldInput) (*models.TemporaryHold, error)
	GetHold(ctx context.Context, reference string) (*models.TemporaryHold, error)
	GetBooking(ctx context.Context, id string) (*models.ConfirmedBooking, error)
}

// DefaultReservationService implements ReservationService.
type DefaultReservationService struct {
	Holds    holdRepo.HoldRepository
	Bookings bookingRepo.BookingRepository
	Logger   *zap.Logger
	HoldTTL  time.Duration
}

// CreateHoldInput carries the fields needed to place a hold.
type CreateHoldInput struct {
	Reference  string            `json:"reference"`
	Court      string            `json:"court"`
	Date       string            `json:"date"`
	StartTime  string            `json:"startTime"`
	Client     models.ClientInfo `json:"client"`
	Amount     float64           `json:"amount"`
	TotalPrice float64           `json:"totalPrice"`
}

var ErrInvalidHold = errors.New("invalid hold request")

const defaultHoldTTL = 10 * time.Minute

// CreateHold places a new pending hold on the slot. Multiple holds for the
// same slot are allowed; payment reconciliation decides the winner.
func (s *DefaultReservationService) CreateHold(ctx context.Context, in CreateHoldInput) (*models.TemporaryHold, error) {
	if in.Reference == "" {
		return nil, fmt.Errorf("%w: missing reference", ErrInvalidHold)
	}
	if in.Court == "" || in.Date == "" || in.StartTime == "" {
		return nil, fmt.Errorf("%w: missing slot fields", ErrInvalidHold)
	}
	if in.TotalPrice <= 0 || in.Amount <= 0 || in.Amount > in.TotalPrice {
		return nil, fmt.Errorf("%w: invalid amounts", ErrInvalidHold)
	}

	ttl := s.HoldTTL
	if ttl <= 0 {
		ttl = defaultHoldTTL
	}

	now := time.Now()
	hold := &models.TemporaryHold{
		Reference:  in.Reference,
		SlotKey:    models.SlotKey(in.Court, in.Date, in.StartTime),
		Status:     models.HoldStatusPending,
		ExpiresAt:  now.Add(ttl),
		Client:     in.Client,
		Amount:     in.Amount,
		TotalPrice: in.TotalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.Holds.Create(ctx, hold); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("%w: reference already in use", ErrInvalidHold)
		}
		return nil, fmt.Errorf("failed to create hold: %w", err)
	}

	// Surface contention on the slot; racing is resolved at payment time.
	competing, err := s.Holds.FindRacingBySlotKey(ctx, hold.SlotKey, hold.Reference)
	if err != nil {
		s.Logger.Warn("could not query competing holds",
			zap.String("slotKey", hold.SlotKey), zap.Error(err))
	}

	s.Logger.Info("temporary hold placed",
		zap.String("reference", hold.Reference),
		zap.String("slotKey", hold.SlotKey),
		zap.Time("expiresAt", hold.ExpiresAt),
		zap.Int("competingHolds", len(competing)))
	return hold, nil
}

func (s *DefaultReservationService) GetHold(ctx context.Context, reference string) (*models.TemporaryHold, error) {
	return s.Holds.GetByReference(ctx, reference)
}

func (s *DefaultReservationService) GetBooking(ctx context.Context, id string) (*models.ConfirmedBooking, error) {
	return s.Bookings.GetByID(ctx, id)
}
