package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/pokemap/internal/adapters/nats"
	"github.com/samirrijal/pokemap/internal/core/domain"
	"github.com/samirrijal/pokemap/internal/core/registry"
	"github.com/samirrijal/pokemap/internal/core/usecases"
	"github.com/samirrijal/pokemap/internal/core/viewport"
	"github.com/samirrijal/pokemap/internal/pkg/metrics"
)

// wsMessage is sent from client to server.
//
//	{"action":"viewport","lat":50.05,"lon":19.94,"radius":5000}
//	{"action":"place","id":"optional","label":"Pikachu","lat":50.05,"lon":19.94}
type wsMessage struct {
	Action string   `json:"action"`
	ID     string   `json:"id,omitempty"`
	Label  string   `json:"label,omitempty"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Radius *float64 `json:"radius,omitempty"`
}

// wsEvent is sent from server to client.
type wsEvent struct {
	Type     string           `json:"type"` // visible | placed | ack | cleared | error
	Viewport *domain.Viewport `json:"viewport,omitempty"`
	Items    []domain.MapItem `json:"items,omitempty"`
	Item     *domain.MapItem  `json:"item,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// mapSession is the per-connection viewport state. The visible set is only
// recomputed when the debouncer commits a new center or the radius changes.
type mapSession struct {
	svc      *usecases.MapService
	debounce *viewport.Debouncer
	relayed  bool // placements arrive over NATS

	mu     sync.Mutex
	radius float64
	vp     *domain.Viewport // committed viewport, nil before the first commit
}

func newMapSession(svc *usecases.MapService, threshold, radius float64, relayed bool) *mapSession {
	return &mapSession{
		svc:      svc,
		debounce: viewport.NewDebouncer(threshold),
		relayed:  relayed,
		radius:   radius,
	}
}

// handle processes one client message and returns the events to send back.
func (s *mapSession) handle(ctx context.Context, raw []byte) []wsEvent {
	var m wsMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return []wsEvent{{Type: "error", Error: "invalid JSON"}}
	}

	switch m.Action {
	case "viewport":
		return s.moveViewport(m)
	case "place":
		return s.place(ctx, m)
	default:
		return []wsEvent{{Type: "error", Error: "unknown action: " + m.Action}}
	}
}

func (s *mapSession) moveViewport(m wsMessage) []wsEvent {
	if m.Lat == nil || m.Lon == nil {
		return []wsEvent{{Type: "error", Error: "lat and lon are required"}}
	}
	center := domain.Coordinate{Lat: *m.Lat, Lon: *m.Lon}
	if err := center.ValidateRange(); err != nil {
		return []wsEvent{{Type: "error", Error: err.Error()}}
	}

	s.mu.Lock()
	radius := s.radius
	s.mu.Unlock()

	radiusChanged := false
	if m.Radius != nil {
		candidate := domain.Viewport{Center: center, Radius: *m.Radius}
		if err := candidate.Validate(); err != nil {
			return []wsEvent{{Type: "error", Error: err.Error()}}
		}
		radiusChanged = *m.Radius != radius
		radius = *m.Radius
	}

	_, moved := s.debounce.Update(center)
	if !moved && !radiusChanged {
		return nil
	}

	vp := s.debounce.Viewport(radius)
	s.mu.Lock()
	s.radius = radius
	s.vp = vp
	s.mu.Unlock()

	return []wsEvent{s.visible(vp)}
}

func (s *mapSession) visible(vp *domain.Viewport) wsEvent {
	items, err := s.svc.Visible(vp)
	if err != nil {
		return wsEvent{Type: "error", Error: err.Error()}
	}
	if items == nil {
		items = []domain.MapItem{}
	}
	return wsEvent{Type: "visible", Viewport: vp, Items: items}
}

func (s *mapSession) place(ctx context.Context, m wsMessage) []wsEvent {
	if m.Lat == nil || m.Lon == nil {
		return []wsEvent{{Type: "error", Error: "lat and lon are required"}}
	}
	at := domain.Coordinate{Lat: *m.Lat, Lon: *m.Lon}
	if err := at.ValidateRange(); err != nil {
		return []wsEvent{{Type: "error", Error: err.Error()}}
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		id = uuid.NewString()
	}
	item, err := s.svc.Place(ctx, id, m.Label, at)
	if err != nil {
		return []wsEvent{{Type: "error", Error: err.Error()}}
	}

	events := []wsEvent{{Type: "ack", Item: item}}
	if !s.relayed {
		if ev, ok := s.placed(item); ok {
			events = append(events, ev)
		}
	}
	return events
}

// placed returns a "placed" event when item falls inside the committed viewport.
// Before the first commit every placement is forwarded.
func (s *mapSession) placed(item *domain.MapItem) (wsEvent, bool) {
	s.mu.Lock()
	vp := s.vp
	s.mu.Unlock()

	if vp != nil && registry.Distance(vp.Center, item.Coordinate) >= vp.Radius {
		return wsEvent{}, false
	}
	return wsEvent{Type: "placed", Item: item}, true
}

// MapSessionHandler returns a handler that runs a live map session per
// connection and relays placements from every instance over NATS.
func MapSessionHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		log := slog.Default().With("remote", c.RemoteAddr().String())
		log.Info("ws client connected")

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		session := newMapSession(deps.Map, deps.ViewportThreshold, deps.defaultRadius(), deps.NATS != nil)

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		var subs []*nats.Subscription
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
		}()

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SubjectItemPlaced, func(msg *nats.Msg) {
				item, err := natsadapter.DecodeItemPlaced(msg.Data)
				if err != nil {
					log.Warn("ws relay: bad placement event", "error", err)
					return
				}
				if ev, ok := session.placed(item); ok {
					_ = writeJSON(ev)
				}
			})
			if err != nil {
				log.Error("ws subscribe failed", "subject", natsadapter.SubjectItemPlaced, "error", err)
				return
			}
			subs = append(subs, sub)

			sub, err = deps.NATS.Subscribe(natsadapter.SubjectItemsCleared, func(*nats.Msg) {
				_ = writeJSON(wsEvent{Type: "cleared"})
			})
			if err != nil {
				log.Error("ws subscribe failed", "subject", natsadapter.SubjectItemsCleared, "error", err)
				return
			}
			subs = append(subs, sub)
		}

		// Keep-alive ping
		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

	read:
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}
			for _, ev := range session.handle(ctx, msg) {
				if err := writeJSON(ev); err != nil {
					break read
				}
			}
		}

		log.Info("ws client disconnected")
	}
}
