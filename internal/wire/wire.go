// Package wire is the length-delimited binary protocol spoken over the
// exchange's TCP sessions: a 4-byte big-endian length prefix, a 1-byte
// type tag, then a fixed-plus-variable payload, with every fixed-width
// field written through encoding/binary.BigEndian.
package wire

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"hyperion/internal/event"
	"hyperion/internal/types"
)

var (
	ErrShortMessage  = errors.New("wire: message too short for its type")
	ErrUnknownTag    = errors.New("wire: unknown message tag")
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")
)

// maxFrameLen bounds a single frame's payload, guarding against a
// corrupt or hostile length prefix.
const maxFrameLen = 1 << 20

// SessionKind is the single byte a connection sends before anything
// else, disambiguating which wire dialect the rest of the stream uses.
type SessionKind byte

const (
	OrderSession     SessionKind = 0
	SubscribeSession SessionKind = 1
)

// Tag identifies the shape of a frame's payload.
type Tag byte

const (
	// Client -> server, order sessions.
	TagLogin       Tag = 0
	TagNewOrder    Tag = 1
	TagCancelOrder Tag = 2

	// Server -> client, order sessions.
	TagLoginAck     Tag = 10
	TagOrderAck     Tag = 11
	TagOrderReject  Tag = 12
	TagCancelReject Tag = 13
	TagOrderFill    Tag = 14
	TagOrderDead    Tag = 15
	TagLoginReject  Tag = 16

	// Server -> client, subscribe sessions (and the live feed reused by
	// both: a MarketEvent carries its own Kind byte).
	TagEventHistory Tag = 20
	TagMarketEvent  Tag = 21
)

// ReadFrame blocks for one length-delimited frame and returns its tag and
// payload.
func ReadFrame(r io.Reader) (Tag, []byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return 0, nil, ErrShortMessage
	}
	if n > maxFrameLen {
		return 0, nil, ErrFrameTooLarge
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return 0, nil, err
	}
	return Tag(body[0]), body[1:], nil
}

// WriteFrame writes tag+payload as one length-delimited frame.
func WriteFrame(w io.Writer, tag Tag, payload []byte) error {
	frame := make([]byte, 4+1+len(payload))
	binary.BigEndian.PutUint32(frame[0:4], uint32(1+len(payload)))
	frame[4] = byte(tag)
	copy(frame[5:], payload)
	_, err := w.Write(frame)
	return err
}

// LoginMessage is the first frame an order session must send.
type LoginMessage struct {
	InvId    types.InvId
	Password string
}

func EncodeLogin(m LoginMessage) []byte {
	buf := make([]byte, 8+1+len(m.Password))
	binary.BigEndian.PutUint64(buf[0:8], uint64(m.InvId))
	buf[8] = byte(len(m.Password))
	copy(buf[9:], m.Password)
	return buf
}

func DecodeLogin(b []byte) (LoginMessage, error) {
	if len(b) < 9 {
		return LoginMessage{}, ErrShortMessage
	}
	invId := types.InvId(binary.BigEndian.Uint64(b[0:8]))
	pwLen := int(b[8])
	if len(b) < 9+pwLen {
		return LoginMessage{}, ErrShortMessage
	}
	return LoginMessage{InvId: invId, Password: string(b[9 : 9+pwLen])}, nil
}

// NewOrderMessage is a client's request to place a new order.
type NewOrderMessage struct {
	SeqNum        types.SeqNum
	Ticker        types.Ticker
	Direction     types.Direction
	Size          types.Size
	Price         types.Price
	LimitOrMarket types.LimitOrMarket
	TimeInForce   types.TimeInForce
	Timestamp     types.Timestamp
}

const newOrderFixedLen = 8 + 1 + 4 + 4 + 1 + 1 + 8

func EncodeNewOrder(m NewOrderMessage) []byte {
	buf := make([]byte, newOrderFixedLen+len(m.Ticker))
	binary.BigEndian.PutUint64(buf[0:8], uint64(m.SeqNum))
	buf[8] = byte(len(m.Ticker))
	binary.BigEndian.PutUint32(buf[9:13], uint32(m.Size))
	binary.BigEndian.PutUint32(buf[13:17], math.Float32bits(float32(m.Price)))
	buf[17] = byte(m.Direction)
	buf[18] = byte(m.LimitOrMarket)<<4 | byte(m.TimeInForce)
	binary.BigEndian.PutUint64(buf[19:27], uint64(m.Timestamp))
	copy(buf[27:], m.Ticker)
	return buf
}

func DecodeNewOrder(b []byte) (NewOrderMessage, error) {
	if len(b) < newOrderFixedLen {
		return NewOrderMessage{}, ErrShortMessage
	}
	tickerLen := int(b[8])
	if len(b) < newOrderFixedLen+tickerLen {
		return NewOrderMessage{}, ErrShortMessage
	}
	return NewOrderMessage{
		SeqNum:        types.SeqNum(binary.BigEndian.Uint64(b[0:8])),
		Size:          types.Size(binary.BigEndian.Uint32(b[9:13])),
		Price:         types.Price(math.Float32frombits(binary.BigEndian.Uint32(b[13:17]))),
		Direction:     types.Direction(b[17]),
		LimitOrMarket: types.LimitOrMarket(b[18] >> 4),
		TimeInForce:   types.TimeInForce(b[18] & 0x0f),
		Timestamp:     types.Timestamp(binary.BigEndian.Uint64(b[19:27])),
		Ticker:        types.Ticker(b[27 : 27+tickerLen]),
	}, nil
}

// CancelOrderMessage is a client's request to cancel a resting order.
type CancelOrderMessage struct {
	SeqNum  types.SeqNum
	OrderId types.OrderId
}

const cancelOrderLen = 8 + 8

func EncodeCancelOrder(m CancelOrderMessage) []byte {
	buf := make([]byte, cancelOrderLen)
	binary.BigEndian.PutUint64(buf[0:8], uint64(m.SeqNum))
	binary.BigEndian.PutUint64(buf[8:16], uint64(m.OrderId))
	return buf
}

func DecodeCancelOrder(b []byte) (CancelOrderMessage, error) {
	if len(b) < cancelOrderLen {
		return CancelOrderMessage{}, ErrShortMessage
	}
	return CancelOrderMessage{
		SeqNum:  types.SeqNum(binary.BigEndian.Uint64(b[0:8])),
		OrderId: types.OrderId(binary.BigEndian.Uint64(b[8:16])),
	}, nil
}

// EncodeLoginAck/EncodeOrderAck/... below are small fixed-shape server->
// client payloads; reject messages carry a variable-length reason string.

func EncodeLoginAck(ok bool) []byte {
	if ok {
		return []byte{1}
	}
	return []byte{0}
}

// EncodeLoginReject carries a seqnum and the reason the session is about
// to close. LoginMessage has no seqnum field, so the order session always
// sends 0 here, whether or not the login frame was parsed.
func EncodeLoginReject(seqnum types.SeqNum, reason string) []byte { return encodeReject(seqnum, reason) }

func EncodeOrderAck(seqnum types.SeqNum, orderId types.OrderId) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(seqnum))
	binary.BigEndian.PutUint64(buf[8:16], uint64(orderId))
	return buf
}

func encodeReject(seqnum types.SeqNum, reason string) []byte {
	buf := make([]byte, 8+len(reason))
	binary.BigEndian.PutUint64(buf[0:8], uint64(seqnum))
	copy(buf[8:], reason)
	return buf
}

func EncodeOrderReject(seqnum types.SeqNum, reason string) []byte   { return encodeReject(seqnum, reason) }
func EncodeCancelReject(seqnum types.SeqNum, reason string) []byte { return encodeReject(seqnum, reason) }

func EncodeOrderFill(f event.Fill) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[0:8], uint64(f.OrderId))
	binary.BigEndian.PutUint32(buf[8:12], uint32(f.FillSize))
	binary.BigEndian.PutUint32(buf[12:16], math.Float32bits(float32(f.FillPrice)))
	return buf
}

func EncodeOrderDead(d event.Dead) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf[0:8], uint64(d.OrderId))
	return buf
}

// EncodeOrderResponse dispatches on resp's kind.
func EncodeOrderResponse(resp event.Response) (Tag, []byte) {
	switch resp.K {
	case event.OrderFill:
		return TagOrderFill, EncodeOrderFill(resp.Fill)
	default:
		return TagOrderDead, EncodeOrderDead(resp.Dead)
	}
}

// EncodeMarketEvent packs a MarketEvent's Kind byte followed by its
// variant-specific fields.
func EncodeMarketEvent(e event.MarketEvent) []byte {
	switch e.K {
	case event.OrderAdded:
		a := e.Added
		buf := make([]byte, 1+8+1+4+4+1+len(a.Ticker))
		buf[0] = byte(e.K)
		binary.BigEndian.PutUint64(buf[1:9], uint64(a.OrderId))
		buf[9] = byte(a.Direction)
		binary.BigEndian.PutUint32(buf[10:14], uint32(a.RestingSize))
		binary.BigEndian.PutUint32(buf[14:18], math.Float32bits(float32(a.LimitPrice)))
		buf[18] = byte(len(a.Ticker))
		copy(buf[19:], a.Ticker)
		return buf
	case event.OrderExecuted:
		x := e.Executed
		buf := make([]byte, 1+8+4+4+1+len(x.Ticker))
		buf[0] = byte(e.K)
		binary.BigEndian.PutUint64(buf[1:9], uint64(x.OrderId))
		binary.BigEndian.PutUint32(buf[9:13], uint32(x.ExecutionSize))
		binary.BigEndian.PutUint32(buf[13:17], math.Float32bits(float32(x.ExecutionPrice)))
		buf[17] = byte(len(x.Ticker))
		copy(buf[18:], x.Ticker)
		return buf
	default: // event.OrderRemoved
		buf := make([]byte, 9)
		buf[0] = byte(e.K)
		binary.BigEndian.PutUint64(buf[1:9], uint64(e.Removed.OrderId))
		return buf
	}
}

// EncodeEventHistory packs every event in events as a count-prefixed run
// of EncodeMarketEvent payloads, each itself length-prefixed so the
// reader can split them back apart.
func EncodeEventHistory(events []event.MarketEvent) []byte {
	encoded := make([][]byte, len(events))
	total := 4
	for i, e := range events {
		encoded[i] = EncodeMarketEvent(e)
		total += 4 + len(encoded[i])
	}

	buf := make([]byte, total)
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(events)))
	offset := 4
	for _, enc := range encoded {
		binary.BigEndian.PutUint32(buf[offset:offset+4], uint32(len(enc)))
		offset += 4
		copy(buf[offset:], enc)
		offset += len(enc)
	}
	return buf
}
