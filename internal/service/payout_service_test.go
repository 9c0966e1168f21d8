package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/lock"
	"github.com/prn-tf/devehub/internal/pkg/crypto"
	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/repotest"
)

func newPayoutService(t *testing.T, store *repository.Store, locker lock.Locker) *PayoutService {
	t.Helper()
	hash, err := crypto.HashCode("123456")
	require.NoError(t, err)
	cfg := DefaultPayoutConfig()
	cfg.VerificationCodeHash = hash
	return NewPayoutService(store.Projects, store.Licenses, locker, nil, zerolog.Nop(), cfg)
}

func payoutStatus(t *testing.T, store *repository.Store, id string) domain.PayoutStatus {
	t.Helper()
	l, err := store.Licenses.GetByID(context.Background(), id)
	require.NoError(t, err)
	return l.PayoutStatus
}

func TestPayoutService_RunCycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		today        time.Time
		wantReleased int
		wantSettled  int
		wantHeld     domain.PayoutStatus
		wantElapsed  domain.PayoutStatus
		wantReady    domain.PayoutStatus
	}{
		{
			name:         "ordinary day releases holds",
			today:        now,
			wantReleased: 1,
			wantHeld:     domain.PayoutPending,
			wantElapsed:  domain.PayoutReady,
			wantReady:    domain.PayoutReady,
		},
		{
			name:         "payout day settles ready",
			today:        time.Date(2026, 10, 28, 0, 5, 0, 0, time.UTC),
			wantReleased: 1,
			wantSettled:  2,
			wantHeld:     domain.PayoutPending,
			wantElapsed:  domain.PayoutPaid,
			wantReady:    domain.PayoutPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t)
			held := addLicense(t, store, "held", "p1", buyer, tt.today.AddDate(0, 0, -10))
			elapsed := addLicense(t, store, "elapsed", "p1", buyer, tt.today.AddDate(0, 0, -61))
			ready := addLicense(t, store, "ready", "p1", buyer, tt.today.AddDate(0, 0, -90))
			require.NoError(t, store.Licenses.UpdatePayoutStatus(ctx, ready.ID, domain.PayoutPending, domain.PayoutReady))
			refunded := addLicense(t, store, "refunded", "p1", "x@y.com", tt.today.AddDate(0, 0, -90))
			_, err := store.Licenses.MarkRefunded(ctx, refunded.ID)
			require.NoError(t, err)

			svc := newPayoutService(t, store, lock.NewMemoryLocker())
			result, err := svc.RunCycle(ctx, tt.today)
			require.NoError(t, err)

			assert.Equal(t, tt.wantReleased, result.Released)
			assert.Equal(t, tt.wantSettled, result.Settled)
			assert.Zero(t, result.Errors)
			assert.Equal(t, tt.wantHeld, payoutStatus(t, store, held.ID))
			assert.Equal(t, tt.wantElapsed, payoutStatus(t, store, elapsed.ID))
			assert.Equal(t, tt.wantReady, payoutStatus(t, store, ready.ID))
			assert.Equal(t, domain.PayoutCancelled, payoutStatus(t, store, refunded.ID))
		})
	}
}

func TestPayoutService_RunCycleLocked(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	locker := lock.NewMemoryLocker()

	ok, err := locker.Acquire(ctx, lock.Keys.PayoutCycle(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	svc := newPayoutService(t, store, locker)
	_, err = svc.RunCycle(ctx, now)
	require.ErrorIs(t, err, ErrCycleInProgress)

	_, err = locker.Release(ctx, lock.Keys.PayoutCycle())
	require.NoError(t, err)
	_, err = svc.RunCycle(ctx, now)
	require.NoError(t, err)

	held, err := locker.IsHeld(ctx, lock.Keys.PayoutCycle())
	require.NoError(t, err)
	assert.False(t, held)
}

func TestPayoutService_DeveloperSummary(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// 9.90 pending, 19.90 ready, 9.90 refunded.
	addLicense(t, store, "a", "p1", "a@x.com", now)
	b := repotest.License("b", "DH-b", "p1", "b@x.com", now.AddDate(0, 0, -70))
	b.Amount = 1990
	b.PayoutStatus = domain.PayoutReady
	require.NoError(t, store.Licenses.Create(ctx, b))
	c := addLicense(t, store, "c", "p1", "c@x.com", now)
	_, err := store.Licenses.MarkRefunded(ctx, c.ID)
	require.NoError(t, err)
	addLicense(t, store, "other", "p3", "a@x.com", now)

	svc := newPayoutService(t, store, lock.NewMemoryLocker())
	summary, err := svc.DeveloperSummary(ctx, "PixelLabs", now)
	require.NoError(t, err)

	assert.Equal(t, domain.Money(2682), summary.Pending)
	assert.Equal(t, 2, summary.Sales)
	assert.Equal(t, 1, summary.Refunds)
	assert.Len(t, summary.Licenses, 3)
	assert.Len(t, summary.Projects, 2)
	assert.Equal(t, time.Date(2026, 10, 28, 0, 0, 0, 0, time.UTC), summary.NextPayoutDate)
	assert.Nil(t, summary.Method)

	platform, err := svc.PlatformSummary(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, domain.Money(3970), platform.ActiveRevenue)
	assert.Equal(t, domain.Money(990), platform.RefundedAmount)
	assert.Equal(t, 1, platform.RefundedCount)
	assert.Equal(t, domain.Money(397), platform.PlatformFees)
	assert.Equal(t, domain.Money(2682), platform.PendingByDeveloper["PixelLabs"])
	assert.Equal(t, domain.Money(891), platform.PendingByDeveloper["Other"])
	assert.Equal(t, domain.Money(3573), platform.PendingTotal)
	assert.Equal(t, 4, platform.Licenses)
}

func TestPayoutService_UpdatePayoutMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   UpdatePayoutMethodInput
		wantErr error
	}{
		{
			name:  "stripe",
			input: UpdatePayoutMethodInput{Developer: "PixelLabs", Kind: domain.PayoutStripe, Email: "pay@pixellabs.com", Code: "123456"},
		},
		{
			name:    "wrong code",
			input:   UpdatePayoutMethodInput{Developer: "PixelLabs", Kind: domain.PayoutPayPal, Email: "pay@pixellabs.com", Code: "000000"},
			wantErr: ErrInvalidVerificationCode,
		},
		{
			name:    "unknown method",
			input:   UpdatePayoutMethodInput{Developer: "PixelLabs", Kind: "wire", Email: "pay@pixellabs.com", Code: "123456"},
			wantErr: ErrInvalidPayoutMethod,
		},
		{
			name:    "bad email",
			input:   UpdatePayoutMethodInput{Developer: "PixelLabs", Kind: domain.PayoutPayPal, Email: "nope", Code: "123456"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "signed out",
			input:   UpdatePayoutMethodInput{Kind: domain.PayoutPayPal, Email: "pay@pixellabs.com", Code: "123456"},
			wantErr: domain.ErrLoginRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newPayoutService(t, newStore(t), lock.NewMemoryLocker())

			method, err := svc.UpdatePayoutMethod(context.Background(), tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				_, ok := svc.PayoutMethod("PixelLabs")
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input.Kind, method.Kind)

			stored, ok := svc.PayoutMethod("PixelLabs")
			require.True(t, ok)
			assert.Equal(t, *method, stored)
		})
	}
}

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) RunPayoutCycle(ctx context.Context) (*CycleResult, error) {
	r.calls.Add(1)
	return &CycleResult{}, nil
}

func TestPayoutScheduler(t *testing.T) {
	_, err := NewPayoutScheduler(&countingRunner{}, SchedulerConfig{Enabled: true, Schedule: "not a schedule"}, zerolog.Nop())
	require.Error(t, err)

	runner := &countingRunner{}
	s, err := NewPayoutScheduler(runner, SchedulerConfig{Enabled: true, Schedule: "@every 1h"}, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, s.Next().IsZero())

	s.Start()
	s.Start()
	assert.False(t, s.Next().IsZero())

	s.runOnce()
	assert.Equal(t, int32(1), runner.calls.Load())

	s.Stop()
	s.Stop()
	assert.True(t, s.Next().IsZero())

	disabled, err := NewPayoutScheduler(runner, SchedulerConfig{Schedule: "5 0 * * *"}, zerolog.Nop())
	require.NoError(t, err)
	disabled.Start()
	assert.True(t, disabled.Next().IsZero())
}
