// Package ledger holds the derived financial and eligibility aggregates.
// Every surface that shows revenue, refunds or payouts calls these
// functions so the admin and developer dashboards always agree.
package ledger

import (
	"sort"
	"time"

	"github.com/prn-tf/devehub/internal/domain"
)

// Platform fee constants.
const (
	// DeveloperSharePercent is the share of every non-refunded license paid out.
	DeveloperSharePercent = 90

	// PlatformFeePercent is retained by the platform.
	PlatformFeePercent = 100 - DeveloperSharePercent
)

// PayoutDays are the days of the month a payout cycle settles.
var PayoutDays = []int{14, 28}

// ActiveRevenue sums the amount of every active license.
func ActiveRevenue(licenses []*domain.License) domain.Money {
	var total domain.Money
	for _, l := range licenses {
		if l.IsActive() {
			total += l.Amount
		}
	}
	return total
}

// RefundedAmount sums the amount of every refunded license.
func RefundedAmount(licenses []*domain.License) domain.Money {
	var total domain.Money
	for _, l := range licenses {
		if l.IsRefunded() {
			total += l.Amount
		}
	}
	return total
}

// RefundedCount counts refunded licenses.
func RefundedCount(licenses []*domain.License) int {
	n := 0
	for _, l := range licenses {
		if l.IsRefunded() {
			n++
		}
	}
	return n
}

// PlatformFees is the platform's share of active revenue.
func PlatformFees(licenses []*domain.License) domain.Money {
	return ActiveRevenue(licenses).Percent(PlatformFeePercent)
}

// payable reports whether a license counts toward a pending payout.
func payable(l *domain.License) bool {
	if l.IsRefunded() {
		return false
	}
	return l.PayoutStatus == domain.PayoutPending || l.PayoutStatus == domain.PayoutReady
}

// PendingPayout is 90% of the summed amount of non-refunded licenses whose
// payout is pending or ready. The fee is applied to the sum so per-license
// rounding never accumulates.
func PendingPayout(licenses []*domain.License) domain.Money {
	var sum domain.Money
	for _, l := range licenses {
		if payable(l) {
			sum += l.Amount
		}
	}
	return sum.Percent(DeveloperSharePercent)
}

// UnknownDeveloper groups licenses whose project is no longer in the store.
const UnknownDeveloper = "Unknown"

// PendingPayoutsByDeveloper groups PendingPayout by developer display name.
func PendingPayoutsByDeveloper(projects []*domain.Project, licenses []*domain.License) map[string]domain.Money {
	owner := make(map[string]string, len(projects))
	for _, p := range projects {
		owner[p.ID] = p.DeveloperName
	}

	grouped := make(map[string][]*domain.License)
	for _, l := range licenses {
		dev, ok := owner[l.ProjectID]
		if !ok {
			dev = UnknownDeveloper
		}
		grouped[dev] = append(grouped[dev], l)
	}

	out := make(map[string]domain.Money, len(grouped))
	for dev, ls := range grouped {
		out[dev] = PendingPayout(ls)
	}
	return out
}

// DeveloperLicenses returns the licenses of every project listed by developer.
func DeveloperLicenses(developer string, projects []*domain.Project, licenses []*domain.License) []*domain.License {
	owned := make(map[string]struct{})
	for _, p := range projects {
		if p.DeveloperName == developer {
			owned[p.ID] = struct{}{}
		}
	}
	var out []*domain.License
	for _, l := range licenses {
		if _, ok := owned[l.ProjectID]; ok {
			out = append(out, l)
		}
	}
	return out
}

// ProjectPayout is the developer's payout breakdown for a single project.
type ProjectPayout struct {
	ProjectID   string       `json:"project_id"`
	ProjectName string       `json:"project_name"`
	Sales       int          `json:"sales"`
	Gross       domain.Money `json:"gross"`
	Ready       domain.Money `json:"ready"`
	Held        domain.Money `json:"held"`
	Paid        domain.Money `json:"paid"`
}

// ProjectPayouts summarises payouts per project, in the order projects are
// given. Ready amounts have passed the hold; held amounts have not.
func ProjectPayouts(projects []*domain.Project, licenses []*domain.License, now time.Time) []ProjectPayout {
	byProject := make(map[string][]*domain.License)
	for _, l := range licenses {
		byProject[l.ProjectID] = append(byProject[l.ProjectID], l)
	}

	out := make([]ProjectPayout, 0, len(projects))
	for _, p := range projects {
		row := ProjectPayout{ProjectID: p.ID, ProjectName: p.Name}
		var ready, held, paid domain.Money
		for _, l := range byProject[p.ID] {
			if l.IsRefunded() {
				continue
			}
			row.Sales++
			row.Gross += l.Amount
			switch {
			case l.PayoutStatus == domain.PayoutPaid:
				paid += l.Amount
			case l.PayoutStatus == domain.PayoutReady || l.HoldElapsed(now):
				ready += l.Amount
			default:
				held += l.Amount
			}
		}
		row.Ready = ready.Percent(DeveloperSharePercent)
		row.Held = held.Percent(DeveloperSharePercent)
		row.Paid = paid.Percent(DeveloperSharePercent)
		out = append(out, row)
	}
	return out
}

// RefundEligible reports whether the purchaser may still refund l at now:
// the license is active, the refund window is open, the license belongs to
// the purchaser, and no license of the same project was refunded by them.
func RefundEligible(l *domain.License, purchaser string, licenses []*domain.License, now time.Time) bool {
	if !l.IsActive() || !l.BelongsTo(purchaser) {
		return false
	}
	if !l.WithinRefundWindow(now) {
		return false
	}
	return !PreviouslyRefunded(l.ProjectID, purchaser, licenses)
}

// PreviouslyRefunded reports whether the purchaser has any refunded license
// for the project.
func PreviouslyRefunded(projectID, purchaser string, licenses []*domain.License) bool {
	for _, l := range licenses {
		if l.ProjectID == projectID && l.IsRefunded() && l.BelongsTo(purchaser) {
			return true
		}
	}
	return false
}

// Owns reports whether the purchaser holds an active license for the project.
func Owns(projectID, purchaser string, licenses []*domain.License) bool {
	for _, l := range licenses {
		if l.ProjectID == projectID && l.IsActive() && l.BelongsTo(purchaser) {
			return true
		}
	}
	return false
}

// Deletable is the user lifecycle predicate.
func Deletable(u *domain.User, now time.Time) bool {
	return u.Deletable(now)
}

// DeletableCount counts users currently eligible for deletion.
func DeletableCount(users []*domain.User, now time.Time) int {
	n := 0
	for _, u := range users {
		if u.Deletable(now) {
			n++
		}
	}
	return n
}

// NextPayoutDate returns the next payout-cycle day strictly after now's
// calendar date, at midnight in now's location.
func NextPayoutDate(now time.Time) time.Time {
	y, m, d := now.Date()
	for _, day := range PayoutDays {
		if d < day {
			return time.Date(y, m, day, 0, 0, 0, 0, now.Location())
		}
	}
	return time.Date(y, m+1, PayoutDays[0], 0, 0, 0, 0, now.Location())
}

// IsPayoutDay reports whether t falls on a payout-cycle day.
func IsPayoutDay(t time.Time) bool {
	for _, day := range PayoutDays {
		if t.Day() == day {
			return true
		}
	}
	return false
}

// SortNewestFirst orders licenses by payment date, most recent first.
// Ties keep their relative order.
func SortNewestFirst(licenses []*domain.License) {
	sort.SliceStable(licenses, func(i, j int) bool {
		return licenses[i].PaymentDate.After(licenses[j].PaymentDate)
	})
}
