package world

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rayen-brigui/altv-athena/cache"
	"github.com/rayen-brigui/altv-athena/config"
	"github.com/rayen-brigui/altv-athena/game/inventory"
	"github.com/rayen-brigui/altv-athena/game/player"
	"go.uber.org/zap"
)

// GroundChannel is the pub/sub channel mirroring ground mutations to
// other server nodes.
const GroundChannel = "world:ground"

// bandSpread is how many neighbouring bands on each side a player
// observes. A drop at the edge of a band stays visible to players just
// across the boundary.
const bandSpread = 1

// Manager mirrors ground-store mutations into the presentation layer:
// band-limited packets to nearby sessions, plus a pub/sub event for
// other nodes. It implements inventory.Broadcaster.
type Manager struct {
	sm     *player.SessionManager
	ground *inventory.GroundStore
	ps     cache.PubSub
	cfg    config.GameConfig
	logger *zap.Logger
}

// NewManager creates a world Manager.
func NewManager(sm *player.SessionManager, ground *inventory.GroundStore, ps cache.PubSub, cfg config.GameConfig, logger *zap.Logger) *Manager {
	return &Manager{sm: sm, ground: ground, ps: ps, cfg: cfg, logger: logger}
}

type groundEvent struct {
	Op        string                 `json:"op"` // add | remove
	Token     string                 `json:"token"`
	Dimension int                    `json:"dimension"`
	Band      int                    `json:"band"`
	Item      *inventory.DroppedItem `json:"item,omitempty"`
}

// AddGroundItem announces a freshly dropped item to every session in
// the same dimension within bandSpread bands of the drop.
func (m *Manager) AddGroundItem(d *inventory.DroppedItem) {
	m.broadcast(&groundEvent{
		Op:        "add",
		Token:     d.Token,
		Dimension: d.Dimension,
		Band:      d.Band,
		Item:      d,
	}, "ground_add")
}

// RemoveGroundItem retracts a dropped item's world representation.
func (m *Manager) RemoveGroundItem(dimension, band int, token string) {
	m.broadcast(&groundEvent{
		Op:        "remove",
		Token:     token,
		Dimension: dimension,
		Band:      band,
	}, "ground_remove")
}

func (m *Manager) broadcast(ev *groundEvent, packetType string) {
	payload, err := json.Marshal(ev)
	if err != nil {
		m.logger.Error("ground event marshal failed", zap.Error(err))
		return
	}
	for _, s := range m.sm.All() {
		pos, _, dimension := s.Position()
		if dimension != ev.Dimension {
			continue
		}
		band := inventory.Band(pos.X, m.cfg.BandWidth)
		if band < ev.Band-bandSpread || band > ev.Band+bandSpread {
			continue
		}
		s.Send(&player.Packet{Type: packetType, Payload: payload})
	}
	if m.ps != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.ps.Publish(ctx, GroundChannel, string(payload)); err != nil {
			m.logger.Warn("ground pubsub publish failed", zap.Error(err))
		}
	}
}

// SyncGround pushes every dropped item near the session to it, used on
// login and after a dimension change.
func (m *Manager) SyncGround(s *player.Session) {
	pos, _, dimension := s.Position()
	band := inventory.Band(pos.X, m.cfg.BandWidth)
	items := m.ground.InBand(dimension, band, bandSpread)
	payload, err := json.Marshal(map[string]interface{}{"items": items})
	if err != nil {
		m.logger.Error("ground sync marshal failed", zap.Error(err))
		return
	}
	s.Send(&player.Packet{Type: "ground_sync", Payload: payload})
}

// SweepExpired drops expired ground items and retracts their world
// representation. Wire it to the scheduler.
func (m *Manager) SweepExpired() {
	for _, d := range m.ground.Sweep(time.Now()) {
		m.RemoveGroundItem(d.Dimension, d.Band, d.Token)
		m.logger.Info("expired ground item removed",
			zap.String("token", d.Token),
			zap.String("item", d.Item.Name))
	}
}
