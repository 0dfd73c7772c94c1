package payment

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
)

type capturePublisher struct {
	keys   [][]byte
	values [][]byte
}

func (c *capturePublisher) Publish(key, value []byte, _ ...kafkago.Header) {
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
}

func approve(context.Context, string) (bool, error) { return true, nil }
func reject(context.Context, string) (bool, error)  { return false, nil }

func newService(authorize AuthorizeFunc) (*Service, *capturePublisher) {
	pub := &capturePublisher{}
	return &Service{Authorize: authorize, Producer: pub, ServiceName: "payment-service"}, pub
}

func inventoryMsg(t *testing.T, allAvailable bool) kafkago.Message {
	t.Helper()
	ev := events.InventoryUpdated{
		EventID:      events.NewEventID(),
		EventType:    events.TypeInventoryUpdated,
		OccurredAt:   time.Now().UTC(),
		OrderID:      "ORD-12345678",
		Availability: map[string]bool{"P1": allAvailable},
		AllAvailable: allAvailable,
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func decodeOne(t *testing.T, pub *capturePublisher) events.PaymentProcessed {
	t.Helper()
	require.Len(t, pub.values, 1, "at most one PaymentProcessed per eligible event")
	var ev events.PaymentProcessed
	require.NoError(t, json.Unmarshal(pub.values[0], &ev))
	assert.Equal(t, events.TypePaymentProcessed, ev.EventType)
	assert.NotEmpty(t, ev.EventID)
	assert.Nil(t, pub.keys[0], "payment events are published unkeyed")
	return ev
}

var paymentIDRe = regexp.MustCompile(`^PAY-[0-9A-F]{8}$`)

func TestUnavailableStockEmitsNothing(t *testing.T) {
	svc, pub := newService(approve)
	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), inventoryMsg(t, false)))
	assert.Empty(t, pub.values, "no payment is attempted when stock is unavailable")
}

func TestApprovedPayment(t *testing.T) {
	svc, pub := newService(approve)
	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), inventoryMsg(t, true)))

	ev := decodeOne(t, pub)
	assert.Equal(t, "ORD-12345678", ev.OrderID)
	assert.Equal(t, events.PaymentApproved, ev.PaymentStatus)
	assert.Regexp(t, paymentIDRe, ev.PaymentID)
	assert.Equal(t, "CREDIT_CARD", ev.PaymentMethod)
	assert.GreaterOrEqual(t, ev.AmountCents, 10000)
	assert.LessOrEqual(t, ev.AmountCents, 30000)
	assert.Empty(t, ev.ErrorMessage)
}

func TestRejectedPayment(t *testing.T) {
	svc, pub := newService(reject)
	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), inventoryMsg(t, true)))

	ev := decodeOne(t, pub)
	assert.Equal(t, events.PaymentRejected, ev.PaymentStatus)
	assert.Regexp(t, paymentIDRe, ev.PaymentID)
	assert.Equal(t, "Fondos insuficientes", ev.ErrorMessage)
}

func TestAuthorizerFailureBecomesFailedOutcome(t *testing.T) {
	svc, pub := newService(func(context.Context, string) (bool, error) {
		return false, errors.New("gateway timeout")
	})
	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), inventoryMsg(t, true)))

	ev := decodeOne(t, pub)
	assert.Equal(t, events.PaymentFailed, ev.PaymentStatus)
	assert.Equal(t, "PAY-FAILED", ev.PaymentID)
	assert.Zero(t, ev.AmountCents)
	assert.Equal(t, "gateway timeout", ev.ErrorMessage)
}

func TestIgnoresForeignAndBrokenPayloads(t *testing.T) {
	svc, pub := newService(approve)

	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), kafkago.Message{Value: []byte("{broken")}))

	msg := inventoryMsg(t, true)
	var ev events.InventoryUpdated
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	ev.EventType = events.TypeOrderCreated
	require.NoError(t, svc.HandleInventoryUpdated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)}))

	assert.Empty(t, pub.values)
}

func TestNewAuthorizerRespectsRateAndContext(t *testing.T) {
	always := NewAuthorizer(1.0, 0)
	never := NewAuthorizer(0.0, 0)
	for i := 0; i < 20; i++ {
		ok, err := always(context.Background(), "ORD-12345678")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = never(context.Background(), "ORD-12345678")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	slow := NewAuthorizer(1.0, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := slow(ctx, "ORD-12345678")
	assert.ErrorIs(t, err, context.Canceled)
}
