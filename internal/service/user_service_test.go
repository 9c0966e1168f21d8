package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/metrics"
	"github.com/prn-tf/devehub/internal/repository/memory"
)

func TestUserService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		user      *domain.User
		confirmed bool
		wantErr   error
	}{
		{
			name:      "inactive without assets",
			user:      &domain.User{ID: "u1", LastLogin: now.AddDate(-1, 0, 0)},
			confirmed: true,
		},
		{
			name:    "not confirmed",
			user:    &domain.User{ID: "u1", LastLogin: now.AddDate(-1, 0, 0)},
			wantErr: domain.ErrConfirmationRequired,
		},
		{
			name:      "recent login",
			user:      &domain.User{ID: "u1", LastLogin: now.AddDate(0, -5, 0)},
			confirmed: true,
			wantErr:   domain.ErrUserNotDeletable,
		},
		{
			name:      "exactly six months",
			user:      &domain.User{ID: "u1", LastLogin: now.AddDate(0, -6, 0)},
			confirmed: true,
			wantErr:   domain.ErrUserNotDeletable,
		},
		{
			name:      "has purchases",
			user:      &domain.User{ID: "u1", LastLogin: now.AddDate(-1, 0, 0), HasPurchases: true},
			confirmed: true,
			wantErr:   domain.ErrUserNotDeletable,
		},
		{
			name:      "has uploads",
			user:      &domain.User{ID: "u1", LastLogin: now.AddDate(-1, 0, 0), HasUploads: true},
			confirmed: true,
			wantErr:   domain.ErrUserNotDeletable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.NewStore()
			tt.user.Email = "u@example.com"
			tt.user.Role = domain.RoleBuyer
			require.NoError(t, store.Users.Create(ctx, tt.user))

			m := metrics.New("test")
			svc := NewUserService(store.Users, m, zerolog.Nop())

			err := svc.Delete(ctx, DeleteUserInput{UserID: "u1", Confirmed: tt.confirmed, Now: now})

			n, countErr := store.Users.Count(ctx)
			require.NoError(t, countErr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 1, n)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, n)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.UsersDeleted))
		})
	}
}

func TestUserService_DeleteMissing(t *testing.T) {
	svc := NewUserService(memory.NewStore().Users, nil, zerolog.Nop())
	err := svc.Delete(context.Background(), DeleteUserInput{UserID: "ghost", Confirmed: true, Now: now})
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}
