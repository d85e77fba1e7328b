package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/internal/engine"
)

func TestCreateOrderBook_RejectsDuplicateSymbol(t *testing.T) {
	m := New()
	require.NoError(t, m.CreateOrderBook("BTC-USD", 1))
	assert.ErrorIs(t, m.CreateOrderBook("BTC-USD", 1), ErrSymbolExists)
}

func TestSubmit_UnknownSymbol(t *testing.T) {
	m := New()
	_, _, err := m.Submit("NOPE", engine.Order{ID: 1, Quantity: 1, Price: 1, Type: 0})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSubmit_RoutesToCorrectBook(t *testing.T) {
	m := New()
	require.NoError(t, m.CreateOrderBook("BTC-USD", 1))
	require.NoError(t, m.CreateOrderBook("ETH-USD", 1))

	_, _, err := m.Submit("BTC-USD", engine.Order{ID: 1, Side: 0, Type: 0, Price: 100, Quantity: 5})
	require.NoError(t, err)

	snap, _, err := m.Snapshot("BTC-USD", 10)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, 5, int(snap.Bids[0].Volume))

	snap, _, err = m.Snapshot("ETH-USD", 10)
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)
}

func TestSubscribe_RequiresKnownSymbol(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Subscribe("NOPE", "client-1"), ErrUnknownSymbol)

	require.NoError(t, m.CreateOrderBook("BTC-USD", 1))
	require.NoError(t, m.Subscribe("BTC-USD", "client-1"))
	assert.Equal(t, []string{"client-1"}, m.SubscribedClients("BTC-USD"))

	m.Unsubscribe("BTC-USD", "client-1")
	assert.Empty(t, m.SubscribedClients("BTC-USD"))
}

func TestUpdatesFor_AdvancesWatermarkOnlyWhenChangesExist(t *testing.T) {
	m := New()
	require.NoError(t, m.CreateOrderBook("BTC-USD", 1))
	require.NoError(t, m.Subscribe("BTC-USD", "client-1"))

	_, _, err := m.Submit("BTC-USD", engine.Order{ID: 1, Side: 0, Type: 0, Price: 100, Quantity: 5})
	require.NoError(t, err)

	updates, version, err := m.UpdatesFor("BTC-USD", "client-1")
	require.NoError(t, err)
	assert.Len(t, updates, 1)
	assert.Equal(t, uint64(1), version)

	updates, version, err = m.UpdatesFor("BTC-USD", "client-1")
	require.NoError(t, err)
	assert.Empty(t, updates)
	assert.Equal(t, uint64(1), version)
}

func TestModify_UnknownSymbol(t *testing.T) {
	m := New()
	_, err := m.Modify("NOPE", 1, 5)
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestCancel_UnknownSymbol(t *testing.T) {
	m := New()
	assert.ErrorIs(t, m.Cancel("NOPE", 1), ErrUnknownSymbol)
}
