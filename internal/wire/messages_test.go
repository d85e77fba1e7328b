package wire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/internal/domain"
	"matchbook/internal/engine"
)

func encodeNewOrder(t *testing.T, symbol string, side domain.Side, kind domain.OrderType, price domain.Price, qty uint64, owner string) []byte {
	t.Helper()
	symBytes := []byte(symbol)
	ownerBytes := []byte(owner)
	buf := make([]byte, baseHeaderLen+newOrderHeaderLen+len(symBytes)+len(ownerBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeNewOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	buf[4] = byte(side)
	buf[5] = byte(kind)
	binary.BigEndian.PutUint64(buf[6:14], uint64(price))
	binary.BigEndian.PutUint64(buf[14:22], qty)
	buf[22] = byte(len(ownerBytes))
	off := 23
	copy(buf[off:off+len(symBytes)], symBytes)
	off += len(symBytes)
	copy(buf[off:], ownerBytes)
	return buf
}

func TestParseMessage_NewOrderRoundTrip(t *testing.T) {
	raw := encodeNewOrder(t, "BTC-USD", domain.Buy, domain.Limit, 10500, 3, "alice")

	msg, err := ParseMessage(raw)
	require.NoError(t, err)

	order, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "BTC-USD", order.Symbol)
	assert.Equal(t, domain.Buy, order.Side)
	assert.Equal(t, domain.Limit, order.Kind)
	assert.Equal(t, domain.Price(10500), order.Price)
	assert.Equal(t, uint64(3), order.Qty)
	assert.Equal(t, "alice", order.Owner)

	resolved := order.ToOrder(1)
	assert.Equal(t, int64(1), resolved.ID)
	assert.Equal(t, domain.Quantity(3), resolved.Quantity)
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := ParseMessage([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessage_UnknownType(t *testing.T) {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint16(buf[0:2], 99)
	_, err := ParseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestParseCancelOrder(t *testing.T) {
	symBytes := []byte("ETH-USD")
	buf := make([]byte, baseHeaderLen+cancelOrderHeaderLen+len(symBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeCancelOrder))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	copy(buf[4:4+len(symBytes)], symBytes)
	binary.BigEndian.PutUint64(buf[4+len(symBytes):], 42)

	msg, err := ParseMessage(buf)
	require.NoError(t, err)
	cancel, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "ETH-USD", cancel.Symbol)
	assert.Equal(t, int64(42), cancel.OrderID)
}

func TestExecutionReport_Serialize(t *testing.T) {
	r := ExecutionReport{Symbol: "BTC-USD", RestingID: 7, Quantity: 3, Price: 10500}
	buf := r.Serialize()

	assert.Equal(t, uint16(TypeExecutionReport), binary.BigEndian.Uint16(buf[0:2]))
	symLen := binary.BigEndian.Uint16(buf[2:4])
	assert.Equal(t, uint16(len("BTC-USD")), symLen)
	assert.Equal(t, int64(7), int64(binary.BigEndian.Uint64(buf[4:12])))
	assert.Equal(t, uint64(3), binary.BigEndian.Uint64(buf[12:20]))
	assert.Equal(t, domain.Price(10500), domain.Price(binary.BigEndian.Uint64(buf[20:28])))
}

func TestErrorReport_Serialize(t *testing.T) {
	r := ErrorReport{Message: "unknown symbol"}
	buf := r.Serialize()
	assert.Equal(t, uint16(TypeErrorReport), binary.BigEndian.Uint16(buf[0:2]))
	length := binary.BigEndian.Uint32(buf[2:6])
	assert.Equal(t, uint32(len("unknown symbol")), length)
	assert.Equal(t, "unknown symbol", string(buf[6:6+length]))
}

func TestSnapshotReportFrom_Serialize(t *testing.T) {
	snap := engine.Snapshot{
		Bids: []engine.LevelView{{Price: 100, Volume: 5}},
		Asks: []engine.LevelView{{Price: 101, Volume: 3}, {Price: 102, Volume: 1}},
	}
	r := SnapshotReportFrom("BTC-USD", 9, snap)
	require.Len(t, r.Bids, 1)
	require.Len(t, r.Asks, 2)

	buf := r.Serialize()
	assert.Equal(t, uint16(TypeBookUpdate), binary.BigEndian.Uint16(buf[0:2]))
	symLen := binary.BigEndian.Uint16(buf[2:4])
	assert.Equal(t, uint16(len("BTC-USD")), symLen)
	assert.Equal(t, uint64(9), binary.BigEndian.Uint64(buf[4:12]))
	bidCount := binary.BigEndian.Uint16(buf[12:14])
	askCount := binary.BigEndian.Uint16(buf[14:16])
	assert.Equal(t, uint16(1), bidCount)
	assert.Equal(t, uint16(2), askCount)

	off := 16 + int(symLen)
	assert.Equal(t, uint64(100), binary.BigEndian.Uint64(buf[off:off+8]))
	assert.Equal(t, uint64(5), binary.BigEndian.Uint64(buf[off+8:off+16]))
}
