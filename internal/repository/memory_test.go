package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iotguardian/internal/models"
)

func TestTable(t *testing.T) {
	tbl := NewTable[string]()

	assert.True(t, tbl.Insert("b", "bee"))
	assert.False(t, tbl.Insert("b", "again"))
	tbl.Put("a", "ay")

	assert.Equal(t, []string{"ay", "bee"}, tbl.List())
	assert.Equal(t, 2, tbl.Len())

	v, ok, err := tbl.Update("a", func(v *string) error {
		*v = "updated"
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "updated", v)

	_, ok, _ = tbl.Update("missing", func(v *string) error { return nil })
	assert.False(t, ok)

	boom := errors.New("boom")
	_, _, err = tbl.Update("a", func(v *string) error {
		*v = "discarded"
		return boom
	})
	assert.ErrorIs(t, err, boom)
	got, _ := tbl.Get("a")
	assert.Equal(t, "updated", got)

	assert.True(t, tbl.Delete("a"))
	assert.False(t, tbl.Delete("a"))
}

func TestMemoryCommandStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemoryCommandStore(time.Hour)
	store.now = func() time.Time { return now }

	cmd, err := store.GetCommand(ctx, "dev_001")
	require.NoError(t, err)
	assert.Nil(t, cmd)

	require.NoError(t, store.SetCommand(ctx, "dev_001", models.DeviceCommand{Command: models.CommandOn, Timestamp: now}))
	cmd, err = store.GetCommand(ctx, "dev_001")
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, models.CommandOn, cmd.Command)

	now = now.Add(2 * time.Hour)
	cmd, err = store.GetCommand(ctx, "dev_001")
	require.NoError(t, err)
	assert.Nil(t, cmd, "expired command should not be returned")

	require.NoError(t, store.SetCommand(ctx, "dev_001", models.DeviceCommand{Command: models.CommandOff}))
	require.NoError(t, store.DeleteCommand(ctx, "dev_001"))
	cmd, _ = store.GetCommand(ctx, "dev_001")
	assert.Nil(t, cmd)
}

func TestMemoryQuotaCounter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryQuotaCounter()
	c.now = func() time.Time { return now }

	n, err := c.Count(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, n)

	for i := 1; i <= 3; i++ {
		n, err = c.Increment(ctx, "k", time.Hour)
		require.NoError(t, err)
		assert.EqualValues(t, i, n)
	}

	now = now.Add(2 * time.Hour)
	n, _ = c.Count(ctx, "k")
	assert.Zero(t, n)

	n, _ = c.Increment(ctx, "k", time.Hour)
	assert.EqualValues(t, 1, n)
}

func TestNoopHistory(t *testing.T) {
	var h NoopHistory
	assert.NoError(t, h.WriteReading(context.Background(), models.SensorReading{DeviceID: "x"}))
	_, err := h.QueryHistory(context.Background(), models.HistoryQuery{})
	assert.ErrorIs(t, err, ErrHistoryDisabled)
}
