package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(rank int, name string) model.Business {
	return model.Business{
		Rank:              rank,
		Name:              name,
		Rating:            4.5,
		ReviewCount:       120,
		Address:           "Rua A, 1",
		CompositeScore:    12.3,
		Tier:              "Very Good",
		QualityIndicators: []string{"high rating", "many reviews"},
	}
}

func TestInsertAndLoad(t *testing.T) {
	s := testStore(t)

	n, err := s.InsertBatch("session_1", "pizza", []model.Business{
		sample(1, "Pizzaria Bella"),
		sample(2, "Cantina Roma"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.LoadByTerm("pizza")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Pizzaria Bella", got[0].Name)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, []string{"high rating", "many reviews"}, got[0].QualityIndicators)
}

func TestInsertBatchIsIdempotentPerSession(t *testing.T) {
	s := testStore(t)
	batch := []model.Business{sample(1, "Pizzaria Bella")}

	n, err := s.InsertBatch("session_1", "pizza", batch)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.InsertBatch("session_1", "pizza", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	count, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLoadByTermPicksLatestSession(t *testing.T) {
	s := testStore(t)

	_, err := s.InsertBatch("session_1", "pizza", []model.Business{sample(1, "Antiga")})
	require.NoError(t, err)
	_, err = s.InsertBatch("session_2", "pizza", []model.Business{sample(1, "Nova")})
	require.NoError(t, err)

	got, err := s.LoadByTerm("pizza")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nova", got[0].Name)

	sessions, err := s.Sessions("pizza")
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestLoadByTermEmpty(t *testing.T) {
	s := testStore(t)
	got, err := s.LoadByTerm("nada")
	require.NoError(t, err)
	assert.Empty(t, got)
}
