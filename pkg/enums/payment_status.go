package enums

// PaymentStatus maps to the payment_status enum in Postgres.
//
// The platform has no payment gateway today; every purchase is created with
// payment already completed. The column is kept for wire compatibility with
// existing clients.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
)

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusCompleted
}
