//go:build unit

package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/config"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/notifier"
	"slotstream/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueries struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]inventory.Status
	err      error
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{statuses: make(map[uuid.UUID]inventory.Status)}
}

func (q *fakeQueries) set(status inventory.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[status.ResourceID] = status
}

func (q *fakeQueries) GetStatus(_ context.Context, _ uuid.UUID, resourceIDs []uuid.UUID, _ queries.Window) ([]inventory.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	result := make([]inventory.Status, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		status, ok := q.statuses[id]
		if !ok {
			status = inventory.Status{ResourceID: id}
		}
		result = append(result, status)
	}
	return result, nil
}

func (q *fakeQueries) GetDemandStats(_ context.Context, _, resourceID uuid.UUID, _ queries.Window) (*inventory.DemandStats, error) {
	return &inventory.DemandStats{ResourceID: resourceID}, nil
}

type sentMessage struct {
	connectionID string
	payload      []byte
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentMessage
	failNext bool
	onClose  []func(string)
}

func (t *fakeTransport) Send(_ context.Context, connectionID string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext {
		return errs.New("connection gone")
	}
	t.sent = append(t.sent, sentMessage{connectionID: connectionID, payload: payload})
	return nil
}

func (t *fakeTransport) OnClose(handler func(connectionID string)) {
	t.onClose = append(t.onClose, handler)
}

func (t *fakeTransport) messages() []sentMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]sentMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

type envelopeFixture struct {
	Type           MessageType     `json:"type"`
	SubscriptionID uuid.UUID       `json:"subscriptionId"`
	Payload        json.RawMessage `json:"payload"`
}

func decodeEnvelopes(t *testing.T, messages []sentMessage) []envelopeFixture {
	t.Helper()
	out := make([]envelopeFixture, 0, len(messages))
	for _, msg := range messages {
		var env envelopeFixture
		require.NoError(t, json.Unmarshal(msg.payload, &env))
		out = append(out, env)
	}
	return out
}

func newTestBroadcaster(q *fakeQueries, tr *fakeTransport) *Broadcaster {
	cfg := config.NewTestConfig().Broadcast
	clk := clock.NewMockClock(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	return NewBroadcaster(q, tr, notifier.NewMemoryBus(), clk, cfg)
}

func subscribeFixture(t *testing.T, b *Broadcaster, tenantID, resourceID uuid.UUID, filters Filters) uuid.UUID {
	t.Helper()
	subID, err := b.Subscribe(context.Background(), SubscribeParams{
		ConnectionID: "conn-1",
		TenantID:     tenantID,
		ResourceIDs:  []uuid.UUID{resourceID},
		Filters:      filters,
	})
	require.NoError(t, err)
	return subID
}

func publishChange(b *Broadcaster, tenantID, resourceID uuid.UUID) {
	event := notifier.InventoryChanged{TenantID: tenantID, ResourceID: resourceID}
	payload, _ := json.Marshal(event)
	b.handleInventoryChanged(context.Background(), payload)
}

func TestBroadcasterSubscribe(t *testing.T) {
	tenantID := uuid.New()
	resourceID := uuid.New()

	t.Run("sends full update immediately", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)

		subID := subscribeFixture(t, b, tenantID, resourceID, Filters{})

		envs := decodeEnvelopes(t, tr.messages())
		require.Len(t, envs, 1)
		assert.Equal(t, MessageFullUpdate, envs[0].Type)
		assert.Equal(t, subID, envs[0].SubscriptionID)

		var payload FullUpdatePayload
		require.NoError(t, json.Unmarshal(envs[0].Payload, &payload))
		require.Len(t, payload.Statuses, 1)
		assert.Equal(t, resourceID, payload.Statuses[0].ResourceID)
	})

	t.Run("rejects missing connection id", func(t *testing.T) {
		b := newTestBroadcaster(newFakeQueries(), &fakeTransport{})
		_, err := b.Subscribe(context.Background(), SubscribeParams{
			TenantID:    tenantID,
			ResourceIDs: []uuid.UUID{resourceID},
		})
		require.ErrorIs(t, err, errs.ErrDomainValidation)
	})

	t.Run("rejects empty resource list", func(t *testing.T) {
		b := newTestBroadcaster(newFakeQueries(), &fakeTransport{})
		_, err := b.Subscribe(context.Background(), SubscribeParams{
			ConnectionID: "conn-1",
			TenantID:     tenantID,
		})
		require.ErrorIs(t, err, errs.ErrDomainValidation)
	})
}

func TestBroadcasterDifferentialUpdates(t *testing.T) {
	tenantID := uuid.New()
	resourceID := uuid.New()

	t.Run("pushes minimal diff on change", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subscribeFixture(t, b, tenantID, resourceID, Filters{})

		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 7, BookedCapacity: 3, Utilization: 0.3})
		publishChange(b, tenantID, resourceID)

		envs := decodeEnvelopes(t, tr.messages())
		require.Len(t, envs, 2)
		assert.Equal(t, MessageDifferentialUpdate, envs[1].Type)

		var payload DiffUpdatePayload
		require.NoError(t, json.Unmarshal(envs[1].Payload, &payload))
		require.Len(t, payload.Changes, 1)
		change := payload.Changes[0]
		assert.Equal(t, resourceID, change.ResourceID)
		assert.Nil(t, change.TotalCapacity)
		require.NotNil(t, change.AvailableCapacity)
		assert.Equal(t, int32(7), *change.AvailableCapacity)
	})

	t.Run("stays silent when nothing changed", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subscribeFixture(t, b, tenantID, resourceID, Filters{})

		publishChange(b, tenantID, resourceID)

		assert.Len(t, tr.messages(), 1) // the initial full update only
	})

	t.Run("ignores events for other tenants", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subscribeFixture(t, b, tenantID, resourceID, Filters{})

		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 5, BookedCapacity: 5, Utilization: 0.5})
		publishChange(b, uuid.New(), resourceID)

		assert.Len(t, tr.messages(), 1)
	})

	t.Run("tears subscription down on send failure", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subID := subscribeFixture(t, b, tenantID, resourceID, Filters{})

		tr.mu.Lock()
		tr.failNext = true
		tr.mu.Unlock()

		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 5, BookedCapacity: 5, Utilization: 0.5})
		publishChange(b, tenantID, resourceID)

		require.ErrorIs(t, b.Unsubscribe(subID), errs.ErrSubscriptionNotFound)
	})
}

func TestBroadcasterFilterTransitions(t *testing.T) {
	tenantID := uuid.New()
	resourceID := uuid.New()

	t.Run("one final update when a resource leaves the filtered set", func(t *testing.T) {
		q := newFakeQueries()
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 10})
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subscribeFixture(t, b, tenantID, resourceID, Filters{OnlyAvailable: true})

		// Sell out: passes -> fails, so one transition update is due.
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 10, AvailableCapacity: 0, BookedCapacity: 10, Utilization: 1.0})
		publishChange(b, tenantID, resourceID)
		require.Len(t, tr.messages(), 2)

		// Still sold out: fails -> fails, silence.
		q.set(inventory.Status{ResourceID: resourceID, TotalCapacity: 11, AvailableCapacity: 0, BookedCapacity: 11, Utilization: 1.0})
		publishChange(b, tenantID, resourceID)
		assert.Len(t, tr.messages(), 2)
	})
}

func TestBroadcasterUnsubscribe(t *testing.T) {
	tenantID := uuid.New()
	resourceID := uuid.New()

	t.Run("unsubscribe removes the subscription", func(t *testing.T) {
		q := newFakeQueries()
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subID := subscribeFixture(t, b, tenantID, resourceID, Filters{})

		require.NoError(t, b.Unsubscribe(subID))
		require.ErrorIs(t, b.Unsubscribe(subID), errs.ErrSubscriptionNotFound)
	})

	t.Run("connection close removes all its subscriptions", func(t *testing.T) {
		q := newFakeQueries()
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		first := subscribeFixture(t, b, tenantID, resourceID, Filters{})
		second := subscribeFixture(t, b, tenantID, uuid.New(), Filters{})

		removed := b.UnsubscribeByConnection("conn-1")
		assert.Equal(t, 2, removed)
		require.ErrorIs(t, b.Unsubscribe(first), errs.ErrSubscriptionNotFound)
		require.ErrorIs(t, b.Unsubscribe(second), errs.ErrSubscriptionNotFound)
	})

	t.Run("transport close handler is wired", func(t *testing.T) {
		q := newFakeQueries()
		tr := &fakeTransport{}
		b := newTestBroadcaster(q, tr)
		subID := subscribeFixture(t, b, tenantID, resourceID, Filters{})

		require.Len(t, tr.onClose, 1)
		tr.onClose[0]("conn-1")
		require.ErrorIs(t, b.Unsubscribe(subID), errs.ErrSubscriptionNotFound)
	})
}
