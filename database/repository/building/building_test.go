package buildingRepo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"restate/database/repository/document"
	"restate/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuilding(id, name, address, detail string) *models.Building {
	return &models.Building{
		ID:               id,
		BuildingName:     name,
		Address:          address,
		DetailID:         detail,
		FeatureImageURLs: []string{"https://img/" + id},
		FeatureVectors:   []string{"0.1,0.2"},
	}
}

func TestBuildingRepo_CreateGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepo(document.NewMemoryStore(), "buildings")

	created, err := repo.Create(ctx, newBuilding("b1", "Sky Tower", "1 Main St", "d1"))
	require.NoError(t, err)
	assert.Equal(t, "b1", created.ID)
	assert.Equal(t, "d1", created.DetailID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Sky Tower", got.BuildingName)
	assert.Equal(t, []string{"0.1,0.2"}, got.FeatureVectors)

	require.NoError(t, repo.Delete(ctx, "b1"))
	_, err = repo.GetByID(ctx, "b1")
	assert.True(t, errors.Is(err, document.ErrNotFound))
}

func TestBuildingRepo_SearchMatchesNameOrAddress(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepo(document.NewMemoryStore(), "buildings")

	_, err := repo.Create(ctx, newBuilding("b1", "Sky Tower", "1 Main St", ""))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBuilding("b2", "Lake House", "Tower Road", ""))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newBuilding("b3", "Cottage", "Elm St", ""))
	require.NoError(t, err)

	found, err := repo.Search(ctx, "tower", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	all, err := repo.Search(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBuildingRepo_ListByDetailIDsChunks(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepo(document.NewMemoryStore(), "buildings")

	var detailIDs []string
	for i := 0; i < 150; i++ {
		d := fmt.Sprintf("d%03d", i)
		detailIDs = append(detailIDs, d)
		_, err := repo.Create(ctx, newBuilding(fmt.Sprintf("b%03d", i), "B", "A", d))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newBuilding("other", "B", "A", "unrelated"))
	require.NoError(t, err)

	found, err := repo.ListByDetailIDs(ctx, detailIDs)
	require.NoError(t, err)
	assert.Len(t, found, 150)
}

func TestBuildingRepo_AddReviewIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewBuildingRepo(document.NewMemoryStore(), "buildings")
	_, err := repo.Create(ctx, newBuilding("b1", "Sky Tower", "1 Main St", ""))
	require.NoError(t, err)

	require.NoError(t, repo.AddReview(ctx, "b1", "r1"))
	require.NoError(t, repo.AddReview(ctx, "b1", "r1"))

	got, err := repo.GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, got.Reviews)

	assert.True(t, errors.Is(repo.AddReview(ctx, "missing", "r1"), document.ErrNotFound))
}
