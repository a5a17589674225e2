package ingest

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hjuarez/ventasbi/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestReplace_StoresAndOrders(t *testing.T) {
	repo := setupTestRepo(t)

	batchID, err := repo.Replace([]Transaction{
		{IssueDate: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Amount: 30, CustomerID: "B"},
		{IssueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 10, CustomerID: "A", CustomerName: "Alpha"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, batchID)

	txs, err := repo.All()
	require.NoError(t, err)
	require.Len(t, txs, 2)

	// Ordered by issue date regardless of insert order
	assert.Equal(t, 10.0, txs[0].Amount)
	assert.Equal(t, "Alpha", txs[0].CustomerName)
	assert.Equal(t, 30.0, txs[1].Amount)
}

func TestReplace_SwapsPreviousDataset(t *testing.T) {
	repo := setupTestRepo(t)

	first, err := repo.Replace([]Transaction{
		{IssueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 1},
		{IssueDate: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Amount: 2},
	})
	require.NoError(t, err)

	second, err := repo.Replace([]Transaction{
		{IssueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Amount: 99},
	})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	txs, err := repo.All()
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 99.0, txs[0].Amount)
}

func TestAll_EmptyStore(t *testing.T) {
	repo := setupTestRepo(t)

	txs, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCount(t *testing.T) {
	repo := setupTestRepo(t)

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.Replace([]Transaction{
		{IssueDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 1},
	})
	require.NoError(t, err)

	n, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
