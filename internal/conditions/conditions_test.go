package conditions

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/calo.monitor/internal/geom"
)

func TestBadChannelMap(t *testing.T) {
	m := NewBadChannelMap()
	assert.True(t, m.IsChannelGood(2000))
	assert.Equal(t, 0, m.NumBad())

	m.MarkBad(2000)
	m.MarkBad(2000) // idempotent
	m.MarkBad(geom.MaxChannel)
	m.MarkBad(geom.MaxChannel + 5) // out of range, ignored

	assert.False(t, m.IsChannelGood(2000))
	assert.False(t, m.IsChannelGood(geom.MaxChannel))
	assert.True(t, m.IsChannelGood(2001))
	assert.True(t, m.IsChannelGood(geom.MaxChannel+5))
	assert.Equal(t, 2, m.NumBad())
}

func TestStaticProvider(t *testing.T) {
	m := NewBadChannelMap()
	m.MarkBad(1800)
	p := &StaticProvider{Map: m}
	got, err := p.BadChannels(context.Background())
	require.NoError(t, err)
	assert.False(t, got.IsChannelGood(1800))

	wantErr := errors.New("condition unavailable")
	failing := &StaticProvider{Err: wantErr}
	_, err = failing.BadChannels(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	addrs := []int{1793, 2500, 14000}
	require.NoError(t, store.SaveBadChannels(ctx, addrs, "noisy pedestal"))

	m, err := store.BadChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(addrs), m.NumBad())
	for _, addr := range addrs {
		assert.False(t, m.IsChannelGood(addr), "address %d should be flagged", addr)
	}
	assert.True(t, m.IsChannelGood(1794))

	// Saving again replaces, not appends.
	require.NoError(t, store.SaveBadChannels(ctx, []int{3000}, "replaced"))
	m, err = store.BadChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, m.NumBad())
	assert.True(t, m.IsChannelGood(1793))
	assert.False(t, m.IsChannelGood(3000))
}

func TestStoreReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conditions.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveBadChannels(context.Background(), []int{2222}, ""))
	require.NoError(t, store.Close())

	// Second open must tolerate the already-migrated schema.
	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()
	m, err := store.BadChannels(context.Background())
	require.NoError(t, err)
	assert.False(t, m.IsChannelGood(2222))
}
