package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/devehub/internal/repository"
	"github.com/prn-tf/devehub/internal/repository/repotest"
)

func TestStore(t *testing.T) {
	repotest.Run(t, func(t *testing.T) *repository.Store { return NewStore() })
}

func TestProjectRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewProjectRepository()
	require.NoError(t, repo.Create(ctx, repotest.Project("p1", 1)))

	got, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	got.Categories[0] = "mutated"
	got.Sales = 100

	again, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Productivity", again.Categories[0])
	assert.Equal(t, int64(0), again.Sales)
}
