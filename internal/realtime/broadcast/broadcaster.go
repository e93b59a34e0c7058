// Package broadcast maintains live inventory subscriptions and pushes the
// minimal change set to each subscriber: a full snapshot on subscribe, then
// differential updates as capacity moves. Change events are a hint, not a
// source of truth; a periodic reconciliation pass re-reads the store so a
// lost event degrades latency, never correctness.
package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"slotstream/internal/domain/inventory"
	"slotstream/internal/pkg/clock"
	"slotstream/internal/pkg/config"
	"slotstream/internal/pkg/errs"
	"slotstream/internal/realtime/notifier"
	"slotstream/internal/usecase/queries"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type Broadcaster struct {
	queries   queries.InventoryQueries
	transport Transport
	bus       notifier.Bus
	clock     clock.Clock
	cfg       config.BroadcastConfig

	mu     sync.Mutex
	subs   map[uuid.UUID]*subscription
	byConn map[string]map[uuid.UUID]struct{}

	// reconcileLimiter paces per-tenant store scans so reconciliation of
	// many tenants cannot stampede the read path.
	reconcileLimiter *rate.Limiter

	unsubscribeBus func()
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

func NewBroadcaster(
	inventoryQueries queries.InventoryQueries,
	transport Transport,
	bus notifier.Bus,
	clk clock.Clock,
	cfg config.BroadcastConfig,
) *Broadcaster {
	b := &Broadcaster{
		queries:          inventoryQueries,
		transport:        transport,
		bus:              bus,
		clock:            clk,
		cfg:              cfg,
		subs:             make(map[uuid.UUID]*subscription),
		byConn:           make(map[string]map[uuid.UUID]struct{}),
		reconcileLimiter: rate.NewLimiter(rate.Limit(cfg.TenantScanRate), cfg.TenantScanBurst),
	}

	transport.OnClose(func(connectionID string) {
		b.UnsubscribeByConnection(connectionID)
	})

	return b
}

// Start wires the broadcaster into the change-event bus and launches the
// reconciliation and heartbeat loops. Stop releases all of it; there is no
// package-level registry outliving the instance.
func (b *Broadcaster) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)

	b.unsubscribeBus = b.bus.Subscribe(notifier.TopicInventoryChanged, b.handleInventoryChanged)

	b.wg.Add(2)
	go func() {
		defer b.wg.Done()
		b.runReconciler(ctx)
	}()
	go func() {
		defer b.wg.Done()
		b.runHeartbeat(ctx)
	}()
}

func (b *Broadcaster) Stop() {
	if b.unsubscribeBus != nil {
		b.unsubscribeBus()
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Subscribe registers the subscription and immediately sends a full snapshot
// so the subscriber has a diff base before any differential arrives.
func (b *Broadcaster) Subscribe(ctx context.Context, params SubscribeParams) (uuid.UUID, error) {
	if params.ConnectionID == "" {
		return uuid.Nil, errs.Mark(errs.New("connection id is required"), errs.ErrDomainValidation)
	}
	if len(params.ResourceIDs) == 0 {
		return uuid.Nil, errs.Mark(errs.New("at least one resource id is required"), errs.ErrDomainValidation)
	}
	params.Window = params.Window.Normalize(b.clock.Now())

	statuses, err := b.queries.GetStatus(ctx, params.TenantID, params.ResourceIDs, params.Window)
	if err != nil {
		return uuid.Nil, err
	}

	sub := newSubscription(params)
	visible := make([]inventory.Status, 0, len(statuses))
	for _, status := range statuses {
		sub.lastKnown[status.ResourceID] = status
		if sub.filters.passes(status) {
			visible = append(visible, trimStatus(status, sub.filters.IncludeSlotDetail))
		}
	}

	b.mu.Lock()
	b.subs[sub.id] = sub
	if b.byConn[sub.connectionID] == nil {
		b.byConn[sub.connectionID] = make(map[uuid.UUID]struct{})
	}
	b.byConn[sub.connectionID][sub.id] = struct{}{}
	b.mu.Unlock()

	if err := b.send(ctx, sub, MessageFullUpdate, FullUpdatePayload{Statuses: visible}); err != nil {
		b.removeSubscription(sub.id)
		return uuid.Nil, err
	}

	slog.Info("subscription registered",
		"subscription_id", sub.id, "connection_id", sub.connectionID,
		"tenant_id", sub.tenantID, "resources", len(sub.resources))
	return sub.id, nil
}

func (b *Broadcaster) Unsubscribe(subscriptionID uuid.UUID) error {
	if !b.removeSubscription(subscriptionID) {
		return errs.ErrSubscriptionNotFound
	}
	return nil
}

// UnsubscribeByConnection drops every subscription of a closed connection and
// returns how many were removed.
func (b *Broadcaster) UnsubscribeByConnection(connectionID string) int {
	b.mu.Lock()
	ids := make([]uuid.UUID, 0, len(b.byConn[connectionID]))
	for id := range b.byConn[connectionID] {
		ids = append(ids, id)
		delete(b.subs, id)
	}
	delete(b.byConn, connectionID)
	b.mu.Unlock()

	if len(ids) > 0 {
		slog.Info("connection subscriptions removed", "connection_id", connectionID, "count", len(ids))
	}
	return len(ids)
}

func (b *Broadcaster) removeSubscription(subscriptionID uuid.UUID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[subscriptionID]
	if !ok {
		return false
	}
	delete(b.subs, subscriptionID)
	if conns := b.byConn[sub.connectionID]; conns != nil {
		delete(conns, subscriptionID)
		if len(conns) == 0 {
			delete(b.byConn, sub.connectionID)
		}
	}
	return true
}

func (b *Broadcaster) handleInventoryChanged(ctx context.Context, payload []byte) {
	event, err := notifier.DecodeInventoryChanged(payload)
	if err != nil {
		slog.Warn("dropping malformed inventory change event", "error", err.Error())
		return
	}

	b.mu.Lock()
	targets := make([]*subscription, 0, 4)
	for _, sub := range b.subs {
		if sub.tenantID == event.TenantID && sub.covers(event.ResourceID) && !sub.hasSeenVersions(event.ResourceID, event.SlotVersions) {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range targets {
		b.refreshResource(ctx, sub, event.ResourceID)
	}
}

// refreshResource re-reads one resource for one subscription and pushes the
// resulting diff, if any.
func (b *Broadcaster) refreshResource(ctx context.Context, sub *subscription, resourceID uuid.UUID) {
	statuses, err := b.queries.GetStatus(ctx, sub.tenantID, []uuid.UUID{resourceID}, sub.window)
	if err != nil {
		slog.Warn("failed to recompute inventory status",
			"subscription_id", sub.id, "resource_id", resourceID, "error", err.Error())
		b.sendError(ctx, sub, "inventory status temporarily unavailable")
		return
	}
	if len(statuses) == 0 {
		return
	}
	b.pushStatuses(ctx, sub, statuses)
}

// pushStatuses diffs fresh statuses against the subscription's last known
// state and sends a single differential update covering the changed set.
// Filter transitions get one final update so viewers see a resource leave
// the filtered set; steady mismatches stay silent.
func (b *Broadcaster) pushStatuses(ctx context.Context, sub *subscription, statuses []inventory.Status) {
	b.mu.Lock()
	if _, registered := b.subs[sub.id]; !registered {
		b.mu.Unlock()
		return
	}

	changes := make([]StatusDiff, 0, len(statuses))
	for _, status := range statuses {
		old := sub.lastKnown[status.ResourceID]
		sub.lastKnown[status.ResourceID] = status

		passedBefore := sub.filters.passes(old)
		passesNow := sub.filters.passes(status)
		if !passedBefore && !passesNow {
			continue
		}

		diff := computeDiff(old, status, sub.filters.IncludeSlotDetail)
		if diff == nil {
			continue
		}
		changes = append(changes, *diff)
	}
	b.mu.Unlock()

	if len(changes) == 0 {
		return
	}

	if err := b.send(ctx, sub, MessageDifferentialUpdate, DiffUpdatePayload{Changes: changes}); err != nil {
		slog.Warn("differential send failed, dropping connection subscriptions",
			"subscription_id", sub.id, "connection_id", sub.connectionID, "error", err.Error())
		b.UnsubscribeByConnection(sub.connectionID)
	}
}

// runReconciler periodically re-reads the store for every subscription,
// grouped by tenant, to repair any missed change event.
func (b *Broadcaster) runReconciler(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.reconcile(ctx)
		}
	}
}

func (b *Broadcaster) reconcile(ctx context.Context) {
	b.mu.Lock()
	byTenant := make(map[uuid.UUID][]*subscription)
	for _, sub := range b.subs {
		byTenant[sub.tenantID] = append(byTenant[sub.tenantID], sub)
	}
	b.mu.Unlock()

	for tenantID, subs := range byTenant {
		if err := b.reconcileLimiter.Wait(ctx); err != nil {
			return
		}
		for _, sub := range subs {
			statuses, err := b.queries.GetStatus(ctx, tenantID, sub.resourceIDs(), sub.window)
			if err != nil {
				slog.Warn("reconciliation scan failed",
					"tenant_id", tenantID, "subscription_id", sub.id, "error", err.Error())
				continue
			}
			b.pushStatuses(ctx, sub, statuses)
		}
	}
}

func (b *Broadcaster) runHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.mu.Lock()
			targets := make([]*subscription, 0, len(b.subs))
			for _, sub := range b.subs {
				targets = append(targets, sub)
			}
			b.mu.Unlock()

			for _, sub := range targets {
				if err := b.send(ctx, sub, MessageHeartbeat, nil); err != nil {
					b.UnsubscribeByConnection(sub.connectionID)
				}
			}
		}
	}
}

func (b *Broadcaster) send(ctx context.Context, sub *subscription, msgType MessageType, payload any) error {
	encoded, err := encodeEnvelope(Envelope{
		Type:           msgType,
		SubscriptionID: sub.id,
		Timestamp:      b.clock.Now(),
		Payload:        payload,
	})
	if err != nil {
		return err
	}
	return b.transport.Send(ctx, sub.connectionID, encoded)
}

func (b *Broadcaster) sendError(ctx context.Context, sub *subscription, message string) {
	if err := b.send(ctx, sub, MessageError, ErrorPayload{Message: message}); err != nil {
		b.UnsubscribeByConnection(sub.connectionID)
	}
}

// trimStatus drops slot detail when the subscriber did not ask for it.
func trimStatus(status inventory.Status, includeSlots bool) inventory.Status {
	if !includeSlots {
		status.TimeSlots = nil
	}
	return status
}
