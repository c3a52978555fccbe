package models

import (
	"fmt"
	"strings"
	"time"
)

// HoldStatus is the lifecycle state of a temporary hold.
type HoldStatus string

const (
	HoldStatusLocked             HoldStatus = "locked"
	HoldStatusPending            HoldStatus = "pending"
	HoldStatusPaid               HoldStatus = "paid"
	HoldStatusRejected           HoldStatus = "rejected"
	HoldStatusVoided             HoldStatus = "voided"
	HoldStatusExpired            HoldStatus = "expired"
	HoldStatusCancelledBySibling HoldStatus = "cancelled_by_sibling"
)

// RacingStatuses are the states in which a hold is still contending for its
// slot. Only holds in one of these states may be expired or cancelled by a
// winning sibling.
var RacingStatuses = []HoldStatus{HoldStatusLocked, HoldStatusPending}

// ClientInfo carries the customer metadata captured at reservation time and
// copied onto the booking at finalization.
type ClientInfo struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// TemporaryHold represents one party's attempt to claim a slot pending payment.
// The reference doubles as the payment provider's transaction reference and is
// immutable once created.
type TemporaryHold struct {
	Reference       string     `bson:"reference" json:"reference"` // Identity key, shared with the payment provider
	SlotKey         string     `bson:"slotKey" json:"slotKey"`     // "court|date|time"; multiple holds may share one
	Status          HoldStatus `bson:"status" json:"status"`
	ExpiresAt       time.Time  `bson:"expiresAt" json:"expiresAt"`
	WebhookReceived bool       `bson:"webhookReceived" json:"webhookReceived"`
	Finalized       bool       `bson:"finalized" json:"finalized"`
	FinalBookingID  string     `bson:"finalBookingId,omitempty" json:"finalBookingId,omitempty"`

	Client        ClientInfo `bson:"client" json:"client"`
	Amount        float64    `bson:"amount" json:"amount"`         // Amount the client is paying now
	TotalPrice    float64    `bson:"totalPrice" json:"totalPrice"` // Full price of the slot
	PaymentMethod string     `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	TransactionID string     `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	StatusMessage string     `bson:"statusMessage,omitempty" json:"statusMessage,omitempty"`
	CancelReason  string     `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	PaidAt      *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	ExpiredAt   *time.Time `bson:"expiredAt,omitempty" json:"expiredAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// IsRacing reports whether the hold is still contending for its slot.
func (h *TemporaryHold) IsRacing() bool {
	return h.Status == HoldStatusLocked || h.Status == HoldStatusPending
}

// SlotKey builds the canonical key for a contended slot.
func SlotKey(court, date, startTime string) string {
	return fmt.Sprintf("%s|%s|%s", court, date, startTime)
}

// ParseSlotKey splits a slot key back into its court, date and time parts.
func ParseSlotKey(key string) (court, date, startTime string, err error) {
	parts := strings.Split(key, "|")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed slot key %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}
