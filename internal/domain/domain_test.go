package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func TestPricingTier_Price(t *testing.T) {
	assert.Equal(t, Money(0), TierFree.Price())
	assert.Equal(t, Money(990), TierStandard.Price())
	assert.Equal(t, Money(1990), TierPremium.Price())
	assert.Equal(t, Money(0), PricingTier("bogus").Price())
	assert.False(t, PricingTier("bogus").Valid())
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$9.90", Money(990).String())
	assert.Equal(t, "-$0.05", Money(-5).String())
	assert.Equal(t, Money(891), Money(990).Percent(90))
	assert.Equal(t, Money(2682), Money(2980).Percent(90))

	b, err := json.Marshal(Money(1990))
	require.NoError(t, err)
	assert.Equal(t, "19.90", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte("9.9"), &m))
	assert.Equal(t, Money(990), m)
}

func TestNewLicense(t *testing.T) {
	p := &Project{ID: "1", Name: "PhotoFix AI", PricingTier: TierStandard}
	lic := NewLicense("lic_1", "DH-0001-PHO-LIFE", p, "demo@user.com", refNow)

	assert.Equal(t, Money(990), lic.Amount)
	assert.Equal(t, LicenseActive, lic.Status)
	assert.Equal(t, PayoutPending, lic.PayoutStatus)
	assert.Equal(t, refNow.AddDate(0, 0, 60), lic.ExpectedPayoutDate)
	assert.Equal(t, "PhotoFix AI", lic.ProjectName)
}

func TestLicense_RefundWindow(t *testing.T) {
	lic := &License{PaymentDate: refNow}

	assert.True(t, lic.WithinRefundWindow(refNow))
	assert.True(t, lic.WithinRefundWindow(refNow.AddDate(0, 0, 14)))
	assert.False(t, lic.WithinRefundWindow(refNow.AddDate(0, 0, 14).Add(time.Second)))
}

func TestLicense_MarkRefunded(t *testing.T) {
	lic := &License{Status: LicenseActive, PayoutStatus: PayoutReady}
	lic.MarkRefunded()

	assert.Equal(t, LicenseRefunded, lic.Status)
	assert.Equal(t, PayoutCancelled, lic.PayoutStatus)
}

func TestFormatLicenseKey(t *testing.T) {
	tests := []struct {
		name     string
		number   int
		project  string
		lifetime bool
		want     string
	}{
		{"lifetime suffix", 42, "PhotoFix AI", true, "DH-0042-PHO-LIFE"},
		{"no suffix", 9876, "zenwriter", false, "DH-9876-ZEN"},
		{"short name", 7, "Go", false, "DH-0007-GO"},
		{"wraps to four digits", 12345, "DataSense", false, "DH-2345-DAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLicenseKey(tt.number, tt.project, tt.lifetime))
		})
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "3/7/2026", FormatDate(time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)))
}

func TestUser_Deletable(t *testing.T) {
	sixMonthsAgo := refNow.AddDate(0, -6, 0)

	tests := []struct {
		name      string
		lastLogin time.Time
		purchases bool
		uploads   bool
		want      bool
	}{
		{"recent login", refNow, false, false, false},
		{"six months minus one day", sixMonthsAgo.AddDate(0, 0, 1), false, false, false},
		{"six months plus one day", sixMonthsAgo.AddDate(0, 0, -1), false, false, true},
		{"exactly six months", sixMonthsAgo, false, false, false},
		{"old with purchases", sixMonthsAgo.AddDate(0, 0, -1), true, false, false},
		{"old with uploads", sixMonthsAgo.AddDate(0, 0, -1), false, true, false},
		{"recent with purchases", sixMonthsAgo.AddDate(0, 0, 1), true, false, false},
		{"recent with both", sixMonthsAgo.AddDate(0, 0, 1), true, true, false},
		{"ancient with both", sixMonthsAgo.AddDate(-3, 0, 0), true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{LastLogin: tt.lastLogin, HasPurchases: tt.purchases, HasUploads: tt.uploads}
			assert.Equal(t, tt.want, u.Deletable(refNow))
		})
	}
}

func TestRole_RoundTrip(t *testing.T) {
	for _, r := range []Role{RoleNone, RoleBuyer, RoleDeveloper, RoleAdmin} {
		parsed, err := ParseRole(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRole("root")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestProject_Matches(t *testing.T) {
	p := &Project{Name: "ZenWriter", Description: "Distraction-free writing"}
	assert.True(t, p.Matches(""))
	assert.True(t, p.Matches("zen"))
	assert.True(t, p.Matches("WRITING"))
	assert.False(t, p.Matches("audio"))
}

func TestDomainError(t *testing.T) {
	err := NewDomainError(ErrLicenseNotFound, "refund", "lic_1")
	require.ErrorIs(t, err, ErrLicenseNotFound)
	assert.Equal(t, "license not found: refund (lic_1)", err.Error())
	assert.Nil(t, WrapError(nil, "x"))
}
