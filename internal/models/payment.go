package models

// PaymentTransaction is the ledger row written once per executed gateway
// payment. The unique PaymentID makes a replayed callback a no-op.
type PaymentTransaction struct {
	BaseModel
	PaymentID     string  `gorm:"size:100;uniqueIndex;not null" json:"paymentId"`
	AppointmentID string  `gorm:"size:36;index;not null" json:"appointmentId"`
	InvoiceNumber string  `gorm:"size:191;not null" json:"invoiceNumber"`
	TrxID         string  `gorm:"size:100" json:"trxId"`
	Amount        float64 `json:"amount"`
	Status        string  `gorm:"size:30" json:"status"`
}
