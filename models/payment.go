package models

// Payment provider transaction statuses. Any other value is accepted but
// applies no mutation.
const (
	PaymentStatusApproved = "APPROVED"
	PaymentStatusDeclined = "DECLINED"
	PaymentStatusVoided   = "VOIDED"
)

// PaymentEvent is the normalized form of one provider transaction update.
type PaymentEvent struct {
	Reference             string `json:"reference"`
	Status                string `json:"status"`
	ProviderTransactionID string `json:"providerTransactionId"`
	PaymentMethod         string `json:"paymentMethod"`
	AmountInCents         int64  `json:"amountInCents"`
	StatusMessage         string `json:"statusMessage"`
	FinalizedAt           string `json:"finalizedAt"`
}

// AmountPaid converts the provider's cents figure to the currency units stored
// on holds and bookings.
func (e PaymentEvent) AmountPaid() float64 {
	return float64(e.AmountInCents) / 100
}

// WebhookEventUpdated is the only provider event type this service processes.
const WebhookEventUpdated = "transaction.updated"

// WebhookPayload mirrors the provider's webhook envelope.
type WebhookPayload struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			Reference     string `json:"reference"`
			Status        string `json:"status"`
			ID            string `json:"id"`
			PaymentMethod string `json:"payment_method"`
			AmountInCents int64  `json:"amount_in_cents"`
			StatusMessage string `json:"status_message"`
			FinalizedAt   string `json:"finalized_at"`
		} `json:"transaction"`
	} `json:"data"`
}

// ToPaymentEvent flattens the webhook envelope into a PaymentEvent.
func (p WebhookPayload) ToPaymentEvent() PaymentEvent {
	t := p.Data.Transaction
	return PaymentEvent{
		Reference:             t.Reference,
		Status:                t.Status,
		ProviderTransactionID: t.ID,
		PaymentMethod:         t.PaymentMethod,
		AmountInCents:         t.AmountInCents,
		StatusMessage:         t.StatusMessage,
		FinalizedAt:           t.FinalizedAt,
	}
}
