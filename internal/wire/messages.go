// Package wire defines the binary protocol (C9) client sessions speak to
// the server: fixed-width headers followed by variable-length payloads,
// the same framing style as the teacher's internal/net/messages.go. Prices
// cross the wire as the integer domain.Price itself — there is no
// decimal layer to parse, so no floating point ever touches the wire.
package wire

import (
	"encoding/binary"
	"errors"

	"matchbook/internal/domain"
	"matchbook/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrMessageTooShort    = errors.New("message too short for declared payload")
)

type MessageType uint16

const (
	TypeNewOrder MessageType = iota
	TypeCancelOrder
	TypeModifyOrder
	TypeSubscribe
	TypeUnsubscribe
	TypeSnapshotRequest
)

type ReportType uint16

const (
	TypeExecutionReport ReportType = iota
	TypeErrorReport
	TypeBookUpdate
)

// Message format constants, mirroring the teacher's fixed-header approach.
const (
	baseHeaderLen        = 2
	newOrderHeaderLen    = 2 + 1 + 1 + 8 + 8 + 1 // symbolLen+side+type+price+qty+ownerLen
	cancelOrderHeaderLen = 2 + 8                 // symbolLen + orderID
	modifyOrderHeaderLen = 2 + 8 + 8             // symbolLen + orderID + qty
	subscribeHeaderLen   = 2 + 1                 // symbolLen + ownerLen
	snapshotHeaderLen    = 2 + 1                 // symbolLen + depth
)

// Message is any parsed client request.
type Message interface {
	Type() MessageType
}

// ParseMessage reads the 2-byte type tag and dispatches to the matching
// parser, the same shape as the teacher's parseMessage.
func ParseMessage(buf []byte) (Message, error) {
	if len(buf) < baseHeaderLen {
		return nil, ErrMessageTooShort
	}
	typ := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	body := buf[2:]
	switch typ {
	case TypeNewOrder:
		return parseNewOrder(body)
	case TypeCancelOrder:
		return parseCancelOrder(body)
	case TypeModifyOrder:
		return parseModifyOrder(body)
	case TypeSubscribe:
		return parseSubscribe(body, TypeSubscribe)
	case TypeUnsubscribe:
		return parseSubscribe(body, TypeUnsubscribe)
	case TypeSnapshotRequest:
		return parseSnapshotRequest(body)
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage requests a new limit or market order. Price is the raw
// integer domain.Price; it is not checked here — the engine rejects a limit
// price that is not a positive multiple of the instrument's tick size, and
// ignores Price for market orders.
type NewOrderMessage struct {
	Symbol string
	Side   domain.Side
	Kind   domain.OrderType
	Price  domain.Price
	Qty    uint64
	Owner  string
}

func (NewOrderMessage) Type() MessageType { return TypeNewOrder }

func parseNewOrder(buf []byte) (NewOrderMessage, error) {
	if len(buf) < newOrderHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	symLen := binary.BigEndian.Uint16(buf[0:2])
	side := domain.Side(buf[2])
	kind := domain.OrderType(buf[3])
	price := domain.Price(binary.BigEndian.Uint64(buf[4:12]))
	qty := binary.BigEndian.Uint64(buf[12:20])
	ownerLen := buf[20]

	off := 21
	total := off + int(symLen) + int(ownerLen)
	if len(buf) < total {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	symbol := string(buf[off : off+int(symLen)])
	off += int(symLen)
	owner := string(buf[off : off+int(ownerLen)])

	return NewOrderMessage{
		Symbol: symbol,
		Side:   side,
		Kind:   kind,
		Price:  price,
		Qty:    qty,
		Owner:  owner,
	}, nil
}

// ToOrder resolves a NewOrderMessage into an engine.Order.
func (m NewOrderMessage) ToOrder(id int64) engine.Order {
	return engine.Order{
		ID:       id,
		Side:     m.Side,
		Type:     m.Kind,
		Price:    m.Price,
		Quantity: domain.Quantity(m.Qty),
		Owner:    m.Owner,
	}
}

// CancelOrderMessage requests cancellation of a resting order.
type CancelOrderMessage struct {
	Symbol  string
	OrderID int64
}

func (CancelOrderMessage) Type() MessageType { return TypeCancelOrder }

func parseCancelOrder(buf []byte) (CancelOrderMessage, error) {
	if len(buf) < cancelOrderHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	symLen := binary.BigEndian.Uint16(buf[0:2])
	off := 2
	if len(buf) < off+int(symLen)+8 {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	symbol := string(buf[off : off+int(symLen)])
	off += int(symLen)
	id := int64(binary.BigEndian.Uint64(buf[off : off+8]))
	return CancelOrderMessage{Symbol: symbol, OrderID: id}, nil
}

// ModifyOrderMessage requests a quantity-only amendment.
type ModifyOrderMessage struct {
	Symbol  string
	OrderID int64
	Qty     uint64
}

func (ModifyOrderMessage) Type() MessageType { return TypeModifyOrder }

func parseModifyOrder(buf []byte) (ModifyOrderMessage, error) {
	if len(buf) < modifyOrderHeaderLen {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	symLen := binary.BigEndian.Uint16(buf[0:2])
	off := 2
	if len(buf) < off+int(symLen)+16 {
		return ModifyOrderMessage{}, ErrMessageTooShort
	}
	symbol := string(buf[off : off+int(symLen)])
	off += int(symLen)
	id := int64(binary.BigEndian.Uint64(buf[off : off+8]))
	off += 8
	qty := binary.BigEndian.Uint64(buf[off : off+8])
	return ModifyOrderMessage{Symbol: symbol, OrderID: id, Qty: qty}, nil
}

// SubscribeMessage adds a client to (or removes it from) the manager's
// subscriber set for a symbol. The server sends no book updates to
// subscribers in response. Typ distinguishes TypeSubscribe from
// TypeUnsubscribe — both share this shape on the wire.
type SubscribeMessage struct {
	Typ    MessageType
	Symbol string
	Owner  string
}

func (m SubscribeMessage) Type() MessageType { return m.Typ }

func parseSubscribe(buf []byte, typ MessageType) (SubscribeMessage, error) {
	if len(buf) < subscribeHeaderLen {
		return SubscribeMessage{}, ErrMessageTooShort
	}
	symLen := binary.BigEndian.Uint16(buf[0:2])
	ownerLen := buf[2]
	off := 3
	if len(buf) < off+int(symLen)+int(ownerLen) {
		return SubscribeMessage{}, ErrMessageTooShort
	}
	symbol := string(buf[off : off+int(symLen)])
	off += int(symLen)
	owner := string(buf[off : off+int(ownerLen)])
	return SubscribeMessage{Typ: typ, Symbol: symbol, Owner: owner}, nil
}

// SnapshotRequestMessage asks for the current book depth.
type SnapshotRequestMessage struct {
	Symbol string
	Depth  uint8
}

func (SnapshotRequestMessage) Type() MessageType { return TypeSnapshotRequest }

func parseSnapshotRequest(buf []byte) (SnapshotRequestMessage, error) {
	if len(buf) < snapshotHeaderLen {
		return SnapshotRequestMessage{}, ErrMessageTooShort
	}
	symLen := binary.BigEndian.Uint16(buf[0:2])
	depth := buf[2]
	off := 3
	if len(buf) < off+int(symLen) {
		return SnapshotRequestMessage{}, ErrMessageTooShort
	}
	return SnapshotRequestMessage{Symbol: string(buf[off : off+int(symLen)]), Depth: depth}, nil
}

// ExecutionReport describes one fill leg, serialized back to the client
// that submitted the aggressing order.
type ExecutionReport struct {
	Symbol    string
	RestingID int64
	Quantity  uint64
	Price     domain.Price
}

// Serialize packs the report using the teacher's fixed-header-then-string
// layout (see Report.Serialize in the teacher's internal/net/messages.go).
func (r ExecutionReport) Serialize() []byte {
	symBytes := []byte(r.Symbol)
	buf := make([]byte, 2+2+8+8+8+len(symBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeExecutionReport))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	binary.BigEndian.PutUint64(buf[4:12], uint64(r.RestingID))
	binary.BigEndian.PutUint64(buf[12:20], r.Quantity)
	binary.BigEndian.PutUint64(buf[20:28], uint64(r.Price))
	copy(buf[28:], symBytes)
	return buf
}

// ErrorReport carries a failure back to the requesting client.
type ErrorReport struct {
	Message string
}

func (r ErrorReport) Serialize() []byte {
	msgBytes := []byte(r.Message)
	buf := make([]byte, 2+4+len(msgBytes))
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeErrorReport))
	binary.BigEndian.PutUint32(buf[2:6], uint32(len(msgBytes)))
	copy(buf[6:], msgBytes)
	return buf
}

// LevelReport is one aggregated price/volume row of a SnapshotReport.
type LevelReport struct {
	Price  domain.Price
	Volume uint64
}

// SnapshotReport answers a SnapshotRequestMessage: the book's depth at the
// version it was taken.
type SnapshotReport struct {
	Symbol  string
	Version uint64
	Bids    []LevelReport
	Asks    []LevelReport
}

// Serialize packs type(2) symLen(2) version(8) bidCount(2) askCount(2) sym
// followed by bidCount then askCount (price(8) volume(8)) pairs.
func (r SnapshotReport) Serialize() []byte {
	symBytes := []byte(r.Symbol)
	size := 2 + 2 + 8 + 2 + 2 + len(symBytes) + (len(r.Bids)+len(r.Asks))*16
	buf := make([]byte, size)
	binary.BigEndian.PutUint16(buf[0:2], uint16(TypeBookUpdate))
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(symBytes)))
	binary.BigEndian.PutUint64(buf[4:12], r.Version)
	binary.BigEndian.PutUint16(buf[12:14], uint16(len(r.Bids)))
	binary.BigEndian.PutUint16(buf[14:16], uint16(len(r.Asks)))
	off := 16
	copy(buf[off:off+len(symBytes)], symBytes)
	off += len(symBytes)
	for _, lvl := range r.Bids {
		binary.BigEndian.PutUint64(buf[off:off+8], uint64(lvl.Price))
		binary.BigEndian.PutUint64(buf[off+8:off+16], lvl.Volume)
		off += 16
	}
	for _, lvl := range r.Asks {
		binary.BigEndian.PutUint64(buf[off:off+8], uint64(lvl.Price))
		binary.BigEndian.PutUint64(buf[off+8:off+16], lvl.Volume)
		off += 16
	}
	return buf
}

// SnapshotReportFrom converts an engine.Snapshot into its wire form.
func SnapshotReportFrom(symbol string, version uint64, snap engine.Snapshot) SnapshotReport {
	r := SnapshotReport{Symbol: symbol, Version: version}
	for _, lvl := range snap.Bids {
		r.Bids = append(r.Bids, LevelReport{Price: lvl.Price, Volume: uint64(lvl.Volume)})
	}
	for _, lvl := range snap.Asks {
		r.Asks = append(r.Asks, LevelReport{Price: lvl.Price, Volume: uint64(lvl.Volume)})
	}
	return r
}
