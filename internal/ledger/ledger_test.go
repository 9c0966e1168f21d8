package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prn-tf/devehub/internal/domain"
)

var now = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func lic(project string, amount domain.Money, status domain.LicenseStatus, payout domain.PayoutStatus, email string, paid time.Time) *domain.License {
	return &domain.License{
		ProjectID:          project,
		Amount:             amount,
		CustomerEmail:      email,
		Status:             status,
		PayoutStatus:       payout,
		PaymentDate:        paid,
		ExpectedPayoutDate: domain.PayoutDateFor(paid),
	}
}

func payoutFixture() []*domain.License {
	return []*domain.License{
		lic("p1", 990, domain.LicenseActive, domain.PayoutPending, "a@x.com", now),
		lic("p1", 1990, domain.LicenseActive, domain.PayoutReady, "b@x.com", now.AddDate(0, 0, -70)),
		lic("p1", 990, domain.LicenseRefunded, domain.PayoutCancelled, "c@x.com", now),
	}
}

func TestPendingPayout(t *testing.T) {
	// 0.9 * (9.90 + 19.90)
	assert.Equal(t, domain.Money(2682), PendingPayout(payoutFixture()))
	assert.Equal(t, domain.Money(0), PendingPayout(nil))
}

func TestPendingPayout_ExcludesPaid(t *testing.T) {
	licenses := []*domain.License{
		lic("p1", 1990, domain.LicenseActive, domain.PayoutPaid, "a@x.com", now),
		lic("p1", 990, domain.LicenseActive, domain.PayoutReady, "a@x.com", now),
	}
	assert.Equal(t, domain.Money(891), PendingPayout(licenses))
}

func TestPendingPayoutsByDeveloper(t *testing.T) {
	projects := []*domain.Project{
		{ID: "p1", DeveloperName: "PixelLabs"},
		{ID: "p2", DeveloperName: "Other"},
	}
	licenses := append(payoutFixture(),
		lic("p2", 990, domain.LicenseActive, domain.PayoutPending, "a@x.com", now),
		lic("missing", 990, domain.LicenseActive, domain.PayoutPending, "a@x.com", now),
	)

	got := PendingPayoutsByDeveloper(projects, licenses)
	assert.Equal(t, domain.Money(2682), got["PixelLabs"])
	assert.Equal(t, domain.Money(891), got["Other"])
	assert.Equal(t, domain.Money(891), got[UnknownDeveloper])
	assert.Len(t, got, 3)
}

func TestRevenueAggregates(t *testing.T) {
	licenses := payoutFixture()
	assert.Equal(t, domain.Money(2980), ActiveRevenue(licenses))
	assert.Equal(t, domain.Money(990), RefundedAmount(licenses))
	assert.Equal(t, 1, RefundedCount(licenses))
	assert.Equal(t, domain.Money(298), PlatformFees(licenses))
}

func TestProjectPayouts(t *testing.T) {
	projects := []*domain.Project{{ID: "p1", Name: "PhotoFix AI"}, {ID: "p2", Name: "Empty"}}
	licenses := append(payoutFixture(),
		lic("p1", 990, domain.LicenseActive, domain.PayoutPaid, "d@x.com", now.AddDate(0, 0, -90)),
		// hold elapsed but not yet released by the cycle job
		lic("p1", 990, domain.LicenseActive, domain.PayoutPending, "e@x.com", now.AddDate(0, 0, -61)),
	)

	rows := ProjectPayouts(projects, licenses, now)
	assert.Len(t, rows, 2)
	assert.Equal(t, 4, rows[0].Sales)
	assert.Equal(t, domain.Money(4960), rows[0].Gross)
	assert.Equal(t, domain.Money(2682), rows[0].Ready)
	assert.Equal(t, domain.Money(891), rows[0].Held)
	assert.Equal(t, domain.Money(891), rows[0].Paid)
	assert.Equal(t, ProjectPayout{ProjectID: "p2", ProjectName: "Empty"}, rows[1])
}

func TestRefundEligible(t *testing.T) {
	const buyer = "demo@user.com"

	tests := []struct {
		name     string
		license  *domain.License
		others   []*domain.License
		expected bool
	}{
		{
			name:     "fresh purchase",
			license:  lic("p1", 990, domain.LicenseActive, domain.PayoutPending, buyer, now.AddDate(0, 0, -3)),
			expected: true,
		},
		{
			name:     "last day of window",
			license:  lic("p1", 990, domain.LicenseActive, domain.PayoutPending, buyer, now.AddDate(0, 0, -14)),
			expected: true,
		},
		{
			name:     "window closed",
			license:  lic("p1", 990, domain.LicenseActive, domain.PayoutPending, buyer, now.AddDate(0, 0, -15)),
			expected: false,
		},
		{
			name:     "already refunded",
			license:  lic("p1", 990, domain.LicenseRefunded, domain.PayoutCancelled, buyer, now),
			expected: false,
		},
		{
			name:     "other purchaser",
			license:  lic("p1", 990, domain.LicenseActive, domain.PayoutPending, "x@y.com", now),
			expected: false,
		},
		{
			name:    "repurchase after refund",
			license: lic("p1", 990, domain.LicenseActive, domain.PayoutPending, buyer, now),
			others: []*domain.License{
				lic("p1", 990, domain.LicenseRefunded, domain.PayoutCancelled, buyer, now.AddDate(0, 0, -2)),
			},
			expected: false,
		},
		{
			name:    "refund on another project does not block",
			license: lic("p1", 990, domain.LicenseActive, domain.PayoutPending, buyer, now),
			others: []*domain.License{
				lic("p2", 990, domain.LicenseRefunded, domain.PayoutCancelled, buyer, now),
			},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := append([]*domain.License{tt.license}, tt.others...)
			assert.Equal(t, tt.expected, RefundEligible(tt.license, buyer, all, now))
		})
	}
}

func TestOwns(t *testing.T) {
	licenses := []*domain.License{
		lic("p1", 990, domain.LicenseActive, domain.PayoutPending, "Demo@User.com", now),
		lic("p2", 990, domain.LicenseRefunded, domain.PayoutCancelled, "demo@user.com", now),
	}
	assert.True(t, Owns("p1", "demo@user.com", licenses))
	assert.False(t, Owns("p2", "demo@user.com", licenses))
	assert.False(t, Owns("p1", "other@user.com", licenses))
}

func TestNextPayoutDate(t *testing.T) {
	tests := []struct {
		today time.Time
		want  time.Time
	}{
		{time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC), time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC), time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 10, 28, 9, 0, 0, 0, time.UTC), time.Date(2026, 11, 14, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 30, 9, 0, 0, 0, time.UTC), time.Date(2027, 1, 14, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.today.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, NextPayoutDate(tt.today))
		})
	}
}

func TestDeletableCount(t *testing.T) {
	users := []*domain.User{
		{LastLogin: now.AddDate(-1, 0, 0)},
		{LastLogin: now.AddDate(-1, 0, 0), HasPurchases: true},
		{LastLogin: now},
	}
	assert.Equal(t, 1, DeletableCount(users, now))
	assert.True(t, Deletable(users[0], now))
}

func TestSortNewestFirst(t *testing.T) {
	a := lic("p1", 0, domain.LicenseActive, domain.PayoutPending, "", now.AddDate(0, 0, -2))
	b := lic("p1", 0, domain.LicenseActive, domain.PayoutPending, "", now)
	c := lic("p1", 0, domain.LicenseActive, domain.PayoutPending, "", now.AddDate(0, 0, -1))
	ls := []*domain.License{a, b, c}
	SortNewestFirst(ls)
	assert.Equal(t, []*domain.License{b, c, a}, ls)
}
