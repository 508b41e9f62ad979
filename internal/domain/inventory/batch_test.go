package inventory

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBatch(t *testing.T) {
	t.Run("creates a valid batch", func(t *testing.T) {
		batch, err := NewBatch("Aspirin", "500mg", 100, time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC))
		require.NoError(t, err)

		assert.NotEqual(t, "", batch.ID.String())
		assert.Equal(t, "Aspirin", batch.Name)
		assert.Equal(t, "aspirin", batch.NameKey)
		assert.Equal(t, "500mg", batch.Strength)
		assert.Equal(t, int64(100), batch.Quantity)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), batch.ExpiryDate)
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		batch, err := NewBatch("  Aspirin  ", " 500mg ", 10, day(10))
		require.NoError(t, err)
		assert.Equal(t, "Aspirin", batch.Name)
		assert.Equal(t, "500mg", batch.Strength)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewBatch("   ", "500mg", 10, day(10))
		assert.Error(t, err)
	})

	t.Run("rejects empty strength", func(t *testing.T) {
		_, err := NewBatch("Aspirin", "", 10, day(10))
		assert.Error(t, err)
	})

	t.Run("rejects zero and negative quantity", func(t *testing.T) {
		_, err := NewBatch("Aspirin", "500mg", 0, day(10))
		assert.Error(t, err)

		_, err = NewBatch("Aspirin", "500mg", -5, day(10))
		assert.Error(t, err)
	})

	t.Run("rejects missing expiry date", func(t *testing.T) {
		_, err := NewBatch("Aspirin", "500mg", 10, time.Time{})
		assert.Error(t, err)
	})

	t.Run("rejects over-long fields", func(t *testing.T) {
		_, err := NewBatch(strings.Repeat("a", 201), "500mg", 10, day(10))
		assert.Error(t, err)

		_, err = NewBatch("Aspirin", strings.Repeat("m", 101), 10, day(10))
		assert.Error(t, err)
	})
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("aspirin"), FoldName("ASPIRIN"))
	assert.Equal(t, FoldName("aspirin"), FoldName("  Aspirin "))
	assert.Equal(t, FoldName("päracetamol"), FoldName("PÄRACETAMOL"))
	assert.NotEqual(t, FoldName("aspirin"), FoldName("ibuprofen"))
}

func TestBatchAdd(t *testing.T) {
	batch := newTestBatch(1, "Aspirin", "500mg", 10, day(10))
	batch.Add(4)
	assert.Equal(t, int64(14), batch.Quantity)
}

func TestBatchDeduct(t *testing.T) {
	t.Run("deducts within the available quantity", func(t *testing.T) {
		batch := newTestBatch(1, "Aspirin", "500mg", 10, day(10))
		deducted := batch.Deduct(4)
		assert.Equal(t, int64(4), deducted)
		assert.Equal(t, int64(6), batch.Quantity)
		assert.False(t, batch.IsDepleted())
	})

	t.Run("caps the deduction at the available quantity", func(t *testing.T) {
		batch := newTestBatch(1, "Aspirin", "500mg", 3, day(10))
		deducted := batch.Deduct(5)
		assert.Equal(t, int64(3), deducted)
		assert.Equal(t, int64(0), batch.Quantity)
		assert.True(t, batch.IsDepleted())
	})

	t.Run("exact deduction depletes the batch", func(t *testing.T) {
		batch := newTestBatch(1, "Aspirin", "500mg", 5, day(10))
		deducted := batch.Deduct(5)
		assert.Equal(t, int64(5), deducted)
		assert.True(t, batch.IsDepleted())
	})
}

func TestBatchLowerExpiry(t *testing.T) {
	t.Run("keeps the earlier date on merge", func(t *testing.T) {
		batch := newTestBatch(1, "Aspirin", "500mg", 10, day(20))
		batch.LowerExpiry(day(10))
		assert.Equal(t, TruncateToDay(day(10)), batch.ExpiryDate)
	})

	t.Run("ignores a later date", func(t *testing.T) {
		batch := newTestBatch(1, "Aspirin", "500mg", 10, day(20))
		batch.LowerExpiry(day(40))
		assert.Equal(t, TruncateToDay(day(20)), batch.ExpiryDate)
	})
}

func TestBatchMatchesSearch(t *testing.T) {
	batch := newTestBatch(1, "Paracetamol", "500mg", 10, day(10))

	assert.True(t, batch.MatchesSearch(FoldName("para")))
	assert.True(t, batch.MatchesSearch(FoldName("CETA")))
	assert.True(t, batch.MatchesSearch(FoldName("500")))
	assert.True(t, batch.MatchesSearch(FoldName("mg")))
	assert.True(t, batch.MatchesSearch(""))
	assert.False(t, batch.MatchesSearch(FoldName("ibuprofen")))
}

func TestBatchStatus(t *testing.T) {
	today := day(0)
	assert.Equal(t, StatusExpired, newTestBatch(1, "A", "1mg", 1, day(-1)).Status(today))
	assert.Equal(t, StatusSoon, newTestBatch(1, "A", "1mg", 1, day(15)).Status(today))
	assert.Equal(t, StatusNear, newTestBatch(1, "A", "1mg", 1, day(60)).Status(today))
	assert.Equal(t, StatusOK, newTestBatch(1, "A", "1mg", 1, day(200)).Status(today))
}
