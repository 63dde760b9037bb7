package wire

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperion/internal/event"
	"hyperion/internal/types"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, TagLogin, []byte("payload")))

	tag, payload, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, TagLogin, tag)
	assert.Equal(t, []byte("payload"), payload)
}

func TestLoginRoundTrip(t *testing.T) {
	in := LoginMessage{InvId: 42, Password: "hunter2"}
	out, err := DecodeLogin(EncodeLogin(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewOrderRoundTrip(t *testing.T) {
	in := NewOrderMessage{
		SeqNum:        7,
		Ticker:        "AAA",
		Direction:     types.Sell,
		Size:          100,
		Price:         12.5,
		LimitOrMarket: types.Limit,
		TimeInForce:   types.IOC,
		Timestamp:     123456,
	}
	out, err := DecodeNewOrder(EncodeNewOrder(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCancelOrderRoundTrip(t *testing.T) {
	in := CancelOrderMessage{SeqNum: 3, OrderId: 9}
	out, err := DecodeCancelOrder(EncodeCancelOrder(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := []byte{0x7F, 0xFF, 0xFF, 0xFF}
	buf.Write(lenBuf)
	_, _, err := ReadFrame(&buf)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestEncodeMarketEventAddedRoundTripsTicker(t *testing.T) {
	e := event.NewAdded(event.Added{
		OrderId:     5,
		Ticker:      "AAA",
		Direction:   types.Buy,
		RestingSize: 10,
		LimitPrice:  99.5,
	})
	payload := EncodeMarketEvent(e)
	assert.Equal(t, byte(event.OrderAdded), payload[0])

	// The ticker is length-prefixed at offset 18 and trails the payload.
	require.Len(t, payload, 19+3)
	assert.Equal(t, byte(3), payload[18])
	assert.Equal(t, "AAA", string(payload[19:]))
}

func TestEncodeEventHistoryCountsEvents(t *testing.T) {
	events := []event.MarketEvent{
		event.NewAdded(event.Added{OrderId: 1, Ticker: "AAA"}),
		event.NewRemoved(event.Removed{OrderId: 1}),
	}
	payload := EncodeEventHistory(events)
	require.True(t, len(payload) >= 4)
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(payload[0:4]))
}
