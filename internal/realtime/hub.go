package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/lib/logger/sl"
	"portfolio_cms/internal/metrics"

	gocache "github.com/patrickmn/go-cache"
)

// Audience splits subscribers into the two views the site has: the public
// renderer sees visible-only records, the admin console sees everything.
type Audience string

const (
	AudiencePublic Audience = "public"
	AudienceAdmin  Audience = "admin"
)

// SnapshotSource loads the full current state of a collection for an
// audience. The hub never diffs: every change re-reads and re-pushes the
// whole snapshot.
type SnapshotSource interface {
	Snapshot(ctx context.Context, collection models.Collection, audience Audience) ([]models.Document, error)
}

type SnapshotMessage struct {
	Type       string            `json:"type"`
	Collection models.Collection `json:"collection"`
	Records    json.RawMessage   `json:"records"`
}

type subscriptionOp struct {
	client     *Client
	collection models.Collection
	subscribe  bool
}

// Hub owns all live subscriptions. All subscriber state is mutated only
// inside Run, so no locking is needed on the maps.
type Hub struct {
	log    *slog.Logger
	source SnapshotSource

	clients map[*Client]struct{}
	// subscribers[collection] is the set of clients holding a live
	// subscription to that collection.
	subscribers map[models.Collection]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscriptionOp
	notify     chan models.Collection

	// latest serialized snapshot per collection+audience, so a fresh
	// subscriber gets an immediate initial snapshot without a read.
	snapshots *gocache.Cache
}

func NewHub(log *slog.Logger, source SnapshotSource) *Hub {
	return &Hub{
		log:         log,
		source:      source,
		clients:     make(map[*Client]struct{}),
		subscribers: make(map[models.Collection]map[*Client]struct{}),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		subscribe:   make(chan subscriptionOp),
		notify:      make(chan models.Collection, 64),
		snapshots:   gocache.New(gocache.NoExpiration, 0),
	}
}

func (h *Hub) Run(ctx context.Context) {
	const op = "realtime.Hub.Run"

	log := h.log.With(slog.String("op", op))

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.WSClientsConnected.Set(float64(len(h.clients)))
			log.Debug("client registered", slog.Int("total", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Debug("client unregistered", slog.Int("total", len(h.clients)))
			}

		case op := <-h.subscribe:
			h.applySubscription(ctx, op)

		case collection := <-h.notify:
			h.broadcast(ctx, collection)
		}
	}
}

// Notify schedules a snapshot push for the collection. The cached
// snapshots are invalidated here, on the writer's goroutine, so that even
// when a saturated queue drops the nudge a later subscriber reads fresh
// state instead of a stale cache entry. go-cache is safe for concurrent
// use.
func (h *Hub) Notify(collection models.Collection) {
	h.snapshots.Delete(snapshotKey(collection, AudiencePublic))
	h.snapshots.Delete(snapshotKey(collection, AudienceAdmin))

	select {
	case h.notify <- collection:
	default:
	}
}

func (h *Hub) applySubscription(ctx context.Context, op subscriptionOp) {
	if _, ok := h.clients[op.client]; !ok {
		return
	}

	set, ok := h.subscribers[op.collection]
	if !ok {
		set = make(map[*Client]struct{})
		h.subscribers[op.collection] = set
	}

	if !op.subscribe {
		delete(set, op.client)
		delete(op.client.subscriptions, op.collection)
		return
	}

	set[op.client] = struct{}{}
	op.client.subscriptions[op.collection] = struct{}{}

	// initial snapshot, served from cache when a previous push filled it
	msg, err := h.snapshot(ctx, op.collection, op.client.audience)
	if err != nil {
		h.log.Error("initial snapshot failed", sl.Err(err),
			slog.String("collection", string(op.collection)))
		return
	}
	h.send(op.client, msg)
}

func (h *Hub) broadcast(ctx context.Context, collection models.Collection) {
	set := h.subscribers[collection]

	// Notify already invalidated the cache, so the snapshot below re-reads
	// the source; anything cached since then postdates the write.
	for _, audience := range []Audience{AudiencePublic, AudienceAdmin} {
		needed := false
		for client := range set {
			if client.audience == audience {
				needed = true
				break
			}
		}
		if !needed {
			continue
		}

		msg, err := h.snapshot(ctx, collection, audience)
		if err != nil {
			h.log.Error("snapshot failed", sl.Err(err),
				slog.String("collection", string(collection)))
			continue
		}

		for client := range set {
			if client.audience == audience {
				h.send(client, msg)
				metrics.WSSnapshotsSent.WithLabelValues(string(collection)).Inc()
			}
		}
	}
}

func (h *Hub) snapshot(ctx context.Context, collection models.Collection, audience Audience) ([]byte, error) {
	key := snapshotKey(collection, audience)

	if cached, ok := h.snapshots.Get(key); ok {
		return cached.([]byte), nil
	}

	readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	docs, err := h.source.Snapshot(readCtx, collection, audience)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}

	records, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}

	msg, err := json.Marshal(SnapshotMessage{
		Type:       "snapshot",
		Collection: collection,
		Records:    records,
	})
	if err != nil {
		return nil, err
	}

	h.snapshots.Set(key, msg, gocache.NoExpiration)

	return msg, nil
}

// send delivers without blocking the hub loop; a client that cannot keep up
// is dropped rather than allowed to reorder or stall everyone else.
func (h *Hub) send(client *Client, msg []byte) {
	select {
	case client.send <- msg:
	default:
		h.drop(client)
		h.log.Warn("client dropped: send buffer full")
	}
}

func (h *Hub) drop(client *Client) {
	for collection := range client.subscriptions {
		delete(h.subscribers[collection], client)
	}
	delete(h.clients, client)
	close(client.send)
	metrics.WSClientsConnected.Set(float64(len(h.clients)))
}

func snapshotKey(collection models.Collection, audience Audience) string {
	return string(collection) + ":" + string(audience)
}
