package domain

import (
	"fmt"
	"strings"
	"time"
)

// LicenseStatus is the entitlement state of a license.
type LicenseStatus string

const (
	LicenseActive   LicenseStatus = "active"
	LicenseRefunded LicenseStatus = "refunded"
)

// PayoutStatus tracks the developer's share of a license.
type PayoutStatus string

const (
	// PayoutPending means the 60-day hold has not elapsed yet.
	PayoutPending PayoutStatus = "pending"

	// PayoutReady means the hold elapsed and the amount joins the next cycle.
	PayoutReady PayoutStatus = "ready"

	// PayoutPaid means the amount was settled to the developer.
	PayoutPaid PayoutStatus = "paid"

	// PayoutCancelled means the license was refunded. Terminal.
	PayoutCancelled PayoutStatus = "cancelled"
)

// Platform-wide constants.
const (
	// RefundWindowDays is how long a purchaser may self-refund.
	RefundWindowDays = 14

	// PayoutHoldDays is the hold between payment and payout eligibility.
	PayoutHoldDays = 60

	// DateLayout renders dates the way the marketplace shows them (M/D/YYYY).
	DateLayout = "1/2/2006"

	// LicenseKeyPrefix starts every license key.
	LicenseKeyPrefix = "DH"

	// LifetimeKeySuffix marks keys issued by the purchase flow.
	LifetimeKeySuffix = "LIFE"
)

// License is proof of purchase for a project.
type License struct {
	// ID is the unique identifier for the license.
	ID string `json:"id"`

	// Key is the human-readable license key, e.g. DH-0420-PHO-LIFE.
	Key string `json:"key"`

	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`

	// Amount is the price charged at purchase time.
	Amount Money `json:"amount"`

	CustomerEmail string `json:"customer_email"`

	Status       LicenseStatus `json:"status"`
	PayoutStatus PayoutStatus  `json:"payout_status"`

	PaymentDate        time.Time `json:"payment_date"`
	ExpectedPayoutDate time.Time `json:"expected_payout_date"`
}

// NewLicense creates an active, pending license for a purchase made at paidAt.
func NewLicense(id, key string, project *Project, email string, paidAt time.Time) *License {
	return &License{
		ID:                 id,
		Key:                key,
		ProjectID:          project.ID,
		ProjectName:        project.Name,
		Amount:             project.Price(),
		CustomerEmail:      email,
		Status:             LicenseActive,
		PayoutStatus:       PayoutPending,
		PaymentDate:        paidAt,
		ExpectedPayoutDate: PayoutDateFor(paidAt),
	}
}

// PayoutDateFor returns the expected payout date for a payment.
func PayoutDateFor(paidAt time.Time) time.Time {
	return paidAt.AddDate(0, 0, PayoutHoldDays)
}

// IsActive reports whether the license still grants access.
func (l *License) IsActive() bool {
	return l.Status == LicenseActive
}

// IsRefunded reports whether the license was refunded.
func (l *License) IsRefunded() bool {
	return l.Status == LicenseRefunded
}

// BelongsTo reports whether the license was bought by email.
func (l *License) BelongsTo(email string) bool {
	return strings.EqualFold(l.CustomerEmail, email)
}

// RefundDeadline is the last instant a purchaser may self-refund.
func (l *License) RefundDeadline() time.Time {
	return l.PaymentDate.AddDate(0, 0, RefundWindowDays)
}

// WithinRefundWindow reports whether now is on or before the refund deadline.
func (l *License) WithinRefundWindow(now time.Time) bool {
	return !now.After(l.RefundDeadline())
}

// HoldElapsed reports whether the 60-day payout hold has passed.
func (l *License) HoldElapsed(now time.Time) bool {
	return !now.Before(l.ExpectedPayoutDate)
}

// MarkRefunded moves the license to refunded and cancels its payout.
// Both fields change together.
func (l *License) MarkRefunded() {
	l.Status = LicenseRefunded
	l.PayoutStatus = PayoutCancelled
}

// Clone returns a copy of the license.
func (l *License) Clone() *License {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// FormatLicenseKey builds DH-<4 digits>-<first 3 letters of name> with an
// optional -LIFE suffix.
func FormatLicenseKey(number int, projectName string, lifetime bool) string {
	code := []rune(strings.ToUpper(strings.TrimSpace(projectName)))
	if len(code) > 3 {
		code = code[:3]
	}
	key := fmt.Sprintf("%s-%04d-%s", LicenseKeyPrefix, number%10000, string(code))
	if lifetime {
		key += "-" + LifetimeKeySuffix
	}
	return key
}

// FormatDate renders t as M/D/YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
