package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rayen-brigui/altv-athena/game/player"
)

// DroppedItem is a world-placed item instance outside any owned
// container. Dropped items do not move, so Band is computed once from
// the dropping player's position.
type DroppedItem struct {
	Item      Item           `json:"item"`
	Token     string         `json:"token"`
	Pos       player.Vector3 `json:"pos"`
	Dimension int            `json:"dimension"`
	Band      int            `json:"band"`
	DroppedBy int64          `json:"dropped_by"`
	ExpireAt  time.Time      `json:"expire_at,omitempty"` // zero = never expires
}

// Band buckets a world X coordinate into a coarse one-dimensional
// spatial band. Bands limit how many dropped items are broadcast to a
// given observer.
func Band(x, width float64) int {
	if width <= 0 {
		width = 100
	}
	return int(math.Floor(x / width))
}

// NewGroundToken derives a fresh unique token for a dropped item from
// a cryptographic random source combined with the item's full
// serialized state, so tokens collide with nothing and cannot be
// guessed from the item alone.
func NewGroundToken(item *Item) string {
	raw, _ := json.Marshal(item)
	sum := sha256.Sum256(append([]byte(uuid.NewString()), raw...))
	return hex.EncodeToString(sum[:])
}

// GroundStore tracks every currently-dropped item, keyed by token.
// It is process-wide shared state: read concurrently by proximity
// queries from many players and mutated by drop/pickup.
type GroundStore struct {
	mu    sync.RWMutex
	items map[string]*DroppedItem
}

// NewGroundStore creates an empty GroundStore.
func NewGroundStore() *GroundStore {
	return &GroundStore{items: make(map[string]*DroppedItem)}
}

// Add registers a dropped item under its token.
func (g *GroundStore) Add(d *DroppedItem) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items[d.Token] = d
}

// Get returns the dropped item for token, or nil.
func (g *GroundStore) Get(token string) *DroppedItem {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.items[token]
}

// Take atomically tests that token is still tracked and removes it.
// Two players racing for the same token see exactly one true here.
func (g *GroundStore) Take(token string) (*DroppedItem, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.items[token]
	if !ok {
		return nil, false
	}
	delete(g.items, token)
	return d, true
}

// InBand returns the dropped items in the given dimension whose band
// is within spread of band.
func (g *GroundStore) InBand(dimension, band, spread int) []*DroppedItem {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*DroppedItem
	for _, d := range g.items {
		if d.Dimension != dimension {
			continue
		}
		if d.Band >= band-spread && d.Band <= band+spread {
			out = append(out, d)
		}
	}
	return out
}

// All returns a snapshot of every dropped item.
func (g *GroundStore) All() []*DroppedItem {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*DroppedItem, 0, len(g.items))
	for _, d := range g.items {
		out = append(out, d)
	}
	return out
}

// Count returns the number of tracked dropped items.
func (g *GroundStore) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.items)
}

// Sweep removes and returns every dropped item whose expiry has
// passed. Items with a zero ExpireAt never expire.
func (g *GroundStore) Sweep(now time.Time) []*DroppedItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	var removed []*DroppedItem
	for token, d := range g.items {
		if !d.ExpireAt.IsZero() && now.After(d.ExpireAt) {
			delete(g.items, token)
			removed = append(removed, d)
		}
	}
	return removed
}

// Clear removes every dropped item and returns how many were removed.
// Used by the admin surface.
func (g *GroundStore) Clear() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.items)
	g.items = make(map[string]*DroppedItem)
	return n
}
