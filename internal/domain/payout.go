package domain

// PayoutMethodKind is where a developer receives payouts.
type PayoutMethodKind string

const (
	PayoutStripe PayoutMethodKind = "stripe"
	PayoutPayPal PayoutMethodKind = "paypal"
)

// Valid reports whether k is a supported payout method.
func (k PayoutMethodKind) Valid() bool {
	return k == PayoutStripe || k == PayoutPayPal
}

// PayoutMethod is a developer's payout destination.
type PayoutMethod struct {
	Kind  PayoutMethodKind `json:"kind"`
	Email string           `json:"email"`
}
