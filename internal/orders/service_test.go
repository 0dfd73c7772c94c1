package orders

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/ecommerce-saga/go-order-saga/internal/events"
	kafkax "github.com/ecommerce-saga/go-order-saga/internal/kafka"
)

type memStore struct {
	orders map[string]*Order
}

func newMemStore() *memStore { return &memStore{orders: map[string]*Order{}} }

func (m *memStore) Create(_ context.Context, o *Order) error {
	cp := *o
	m.orders[o.OrderNumber] = &cp
	return nil
}

func (m *memStore) FindByOrderNumber(_ context.Context, orderNumber string) (*Order, error) {
	o, ok := m.orders[orderNumber]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]Order, error) {
	var out []Order
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memStore) ApplyPaymentOutcome(_ context.Context, orderNumber, paymentStatus, paymentID string, status Status) error {
	o, ok := m.orders[orderNumber]
	if !ok {
		return ErrNotFound
	}
	o.PaymentStatus = paymentStatus
	o.PaymentID = paymentID
	o.Status = status
	return nil
}

type capturePublisher struct {
	keys   [][]byte
	values [][]byte
}

func (c *capturePublisher) Publish(key, value []byte, _ ...kafkago.Header) {
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
}

func newService() (*Service, *memStore, *capturePublisher) {
	st := newMemStore()
	pub := &capturePublisher{}
	return &Service{Store: st, Producer: pub, ServiceName: "order-service"}, st, pub
}

var orderNumberRe = regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)

func TestCreateOrderComputesTotalAndPublishes(t *testing.T) {
	svc, st, pub := newService()

	o, err := svc.CreateOrder(context.Background(), "cust-1", []ItemInput{
		{ProductID: "P1", Qty: 2, PriceCents: 1000},
		{ProductID: "P2", Qty: 1, PriceCents: 500},
	})
	require.NoError(t, err)
	assert.Regexp(t, orderNumberRe, o.OrderNumber)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 2500, o.TotalCents)

	stored, err := st.FindByOrderNumber(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)

	require.Len(t, pub.values, 1)
	assert.Equal(t, []byte(o.OrderNumber), pub.keys[0], "OrderCreated must be keyed by order number")

	var ev events.OrderCreated
	require.NoError(t, json.Unmarshal(pub.values[0], &ev))
	assert.Equal(t, events.TypeOrderCreated, ev.EventType)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, o.OrderNumber, ev.OrderID)
	assert.Equal(t, "cust-1", ev.CustomerID)
	assert.Equal(t, 2500, ev.TotalCents)
	require.Len(t, ev.Items, 2)
	assert.Equal(t, events.Item{ProductID: "P1", Qty: 2, PriceCents: 1000}, ev.Items[0])
}

func TestCreateOrderValidation(t *testing.T) {
	cases := []struct {
		name  string
		items []ItemInput
	}{
		{"empty items", nil},
		{"zero qty", []ItemInput{{ProductID: "P1", Qty: 0, PriceCents: 100}}},
		{"negative qty", []ItemInput{{ProductID: "P1", Qty: -1, PriceCents: 100}}},
		{"negative price", []ItemInput{{ProductID: "P1", Qty: 1, PriceCents: -1}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			svc, st, pub := newService()
			_, err := svc.CreateOrder(context.Background(), "cust-1", c.items)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Empty(t, st.orders, "nothing must be persisted")
			assert.Empty(t, pub.values, "nothing must be published")
		})
	}
}

func paymentMsg(t *testing.T, ev events.PaymentProcessed) kafkago.Message {
	t.Helper()
	if ev.EventID == "" {
		ev.EventID = events.NewEventID()
	}
	if ev.EventType == "" {
		ev.EventType = events.TypePaymentProcessed
	}
	ev.OccurredAt = time.Now().UTC()
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandlePaymentProcessedResolvesStatus(t *testing.T) {
	cases := []struct {
		payment string
		want    Status
	}{
		{events.PaymentApproved, StatusCompleted},
		{events.PaymentRejected, StatusCancelled},
		{events.PaymentFailed, StatusFailed},
		{"SOMETHING_ELSE", StatusPending},
	}
	for _, c := range cases {
		t.Run(c.payment, func(t *testing.T) {
			svc, st, _ := newService()
			o, err := svc.CreateOrder(context.Background(), "cust-1", []ItemInput{{ProductID: "P1", Qty: 1, PriceCents: 100}})
			require.NoError(t, err)

			err = svc.HandlePaymentProcessed(context.Background(), paymentMsg(t, events.PaymentProcessed{
				OrderID:       o.OrderNumber,
				PaymentID:     "PAY-12345678",
				PaymentStatus: c.payment,
			}))
			require.NoError(t, err)

			got := st.orders[o.OrderNumber]
			assert.Equal(t, c.want, got.Status)
			assert.Equal(t, c.payment, got.PaymentStatus)
			assert.Equal(t, "PAY-12345678", got.PaymentID)
		})
	}
}

func TestHandlePaymentProcessedIsIdempotent(t *testing.T) {
	svc, st, _ := newService()
	o, err := svc.CreateOrder(context.Background(), "cust-1", []ItemInput{{ProductID: "P1", Qty: 1, PriceCents: 100}})
	require.NoError(t, err)

	msg := paymentMsg(t, events.PaymentProcessed{
		OrderID:       o.OrderNumber,
		PaymentID:     "PAY-AAAA1111",
		PaymentStatus: events.PaymentApproved,
	})
	require.NoError(t, svc.HandlePaymentProcessed(context.Background(), msg))
	once := *st.orders[o.OrderNumber]

	require.NoError(t, svc.HandlePaymentProcessed(context.Background(), msg))
	twice := *st.orders[o.OrderNumber]

	assert.Equal(t, once, twice, "replaying the same event must not change the outcome")
	assert.Equal(t, StatusCompleted, twice.Status)
}

func TestHandlePaymentProcessedUnknownOrderIsDropped(t *testing.T) {
	svc, st, _ := newService()
	err := svc.HandlePaymentProcessed(context.Background(), paymentMsg(t, events.PaymentProcessed{
		OrderID:       "ORD-DEADBEEF",
		PaymentID:     "PAY-12345678",
		PaymentStatus: events.PaymentApproved,
	}))
	assert.NoError(t, err, "unknown order is logged and dropped, never retried")
	assert.Empty(t, st.orders)
}

func TestHandlePaymentProcessedIgnoresForeignAndBrokenPayloads(t *testing.T) {
	svc, st, _ := newService()
	o, err := svc.CreateOrder(context.Background(), "cust-1", []ItemInput{{ProductID: "P1", Qty: 1, PriceCents: 100}})
	require.NoError(t, err)

	// different event type
	msg := paymentMsg(t, events.PaymentProcessed{OrderID: o.OrderNumber, PaymentStatus: events.PaymentApproved})
	var ev events.PaymentProcessed
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	ev.EventType = events.TypeInventoryUpdated
	require.NoError(t, svc.HandlePaymentProcessed(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)}))
	assert.Equal(t, StatusPending, st.orders[o.OrderNumber].Status)

	// undecodable payload
	require.NoError(t, svc.HandlePaymentProcessed(context.Background(), kafkago.Message{Value: []byte("{not json")}))
	assert.Equal(t, StatusPending, st.orders[o.OrderNumber].Status)
}
