package models

import "time"

// Abono types recorded on a confirmed booking.
const (
	AbonoCompleto = "completo"
	AbonoParcial  = "parcial"
)

// ConfirmedBooking is the durable outcome of a successful payment. It is
// created exactly once per winning slot and never mutated afterwards.
type ConfirmedBooking struct {
	ID        string `bson:"id" json:"id"` // Store-assigned UUID
	Court     string `bson:"court" json:"court"`
	Date      string `bson:"date" json:"date"` // "YYYY-MM-DD"
	StartTime string `bson:"startTime" json:"startTime"`
	SlotKey   string `bson:"slotKey" json:"slotKey"`

	Client        ClientInfo `bson:"client" json:"client"`
	AmountPaid    float64    `bson:"amountPaid" json:"amountPaid"`
	TotalPrice    float64    `bson:"totalPrice" json:"totalPrice"`
	TipoAbono     string     `bson:"tipoAbono" json:"tipoAbono"` // "completo" or "parcial"
	PaymentMethod string     `bson:"paymentMethod" json:"paymentMethod"`
	TransactionID string     `bson:"transactionId" json:"transactionId"`

	// Back-reference to the hold that produced this booking.
	Reference string    `bson:"reference" json:"reference"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
