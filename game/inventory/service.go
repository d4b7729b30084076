package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rayen-brigui/altv-athena/audit"
	"github.com/rayen-brigui/altv-athena/config"
	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sound cues sent to the client on successful operations.
const (
	cueShuffle = "item_shuffle_1"
	cueRemove  = "item_remove"
	cueEat     = "item_eat"
	cueEquip   = "item_equip"
	cuePickup  = "item_pickup"
)

// Broadcaster mirrors ground mutations into the presentation layer so
// nearby players can perceive dropped items. The GroundStore remains
// the source of truth.
type Broadcaster interface {
	AddGroundItem(d *DroppedItem)
	RemoveGroundItem(dimension, band int, token string)
}

// HookPayload carries the actor and item for inventory hook events.
type HookPayload struct {
	CharID int64  `json:"char_id"`
	Item   Item   `json:"item"`
	Slot   int    `json:"slot"`
	Token  string `json:"token,omitempty"`
}

// Service is the inventory transfer engine. All four request entry
// points (Move, Use, Split, Pickup) resolve terminally: the player's
// view is resynchronized on every branch, success or rejection.
type Service struct {
	db       *gorm.DB
	cfg      config.GameConfig
	adapters map[ContainerKind]Adapter
	rules    *RuleRegistry
	ground   *GroundStore
	hooks    *hook.HookCenter
	world    Broadcaster
	audit    *audit.Service
	logger   *zap.Logger

	mu     sync.Mutex
	actors map[int64]*actorState // charID → state
}

// actorState serializes all transfer operations of one character.
// The lock is held across rule predicate calls, which may suspend, so
// a double-fired client request cannot interleave with the first.
type actorState struct {
	mu      sync.Mutex
	loadout *Loadout
}

// NewService creates the inventory Service. world and auditSvc may be
// nil (headless tests).
func NewService(
	db *gorm.DB,
	cfg config.GameConfig,
	rules *RuleRegistry,
	ground *GroundStore,
	hooks *hook.HookCenter,
	world Broadcaster,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		db:       db,
		cfg:      cfg,
		adapters: newAdapterTable(),
		rules:    rules,
		ground:   ground,
		hooks:    hooks,
		world:    world,
		audit:    auditSvc,
		logger:   logger,
		actors:   make(map[int64]*actorState),
	}
}

// Rules exposes the rule registry so collaborating systems can attach
// their transfer predicates during startup.
func (svc *Service) Rules() *RuleRegistry { return svc.rules }

// Ground exposes the ground store for proximity queries and the
// expiry sweeper.
func (svc *Service) Ground() *GroundStore { return svc.ground }

func (svc *Service) actor(charID int64) *actorState {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	st, ok := svc.actors[charID]
	if !ok {
		st = &actorState{
			loadout: NewLoadout(svc.cfg.InventorySlots, svc.cfg.ToolbarSlots, svc.cfg.EquipmentSlots),
		}
		svc.actors[charID] = st
	}
	return st
}

// LoadActor restores a character's containers from their persisted
// snapshots. Called once on login, before any transfer request.
func (svc *Service) LoadActor(ctx context.Context, charID int64) error {
	st := svc.actor(charID)
	st.mu.Lock()
	defer st.mu.Unlock()

	var rows []model.ContainerState
	if err := svc.db.WithContext(ctx).Where("char_id = ?", charID).Find(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		var items []*Item
		if err := json.Unmarshal(row.Items, &items); err != nil {
			svc.logger.Error("corrupt container snapshot",
				zap.Int64("char_id", charID),
				zap.String("kind", row.Kind),
				zap.Error(err))
			continue
		}
		var dst []*Item
		switch row.Kind {
		case model.ContainerInventory:
			dst = st.loadout.Inventory
		case model.ContainerToolbar:
			dst = st.loadout.Toolbar
		case model.ContainerEquipment:
			dst = st.loadout.Equipment
		default:
			continue
		}
		for i := range dst {
			dst[i] = nil
		}
		for _, it := range items {
			if it == nil || it.Quantity <= 0 {
				continue
			}
			if it.Slot >= 0 && it.Slot < len(dst) && dst[it.Slot] == nil {
				dst[it.Slot] = it
			}
		}
	}
	return nil
}

// UnloadActor persists a character's containers and releases the
// in-memory state. Called on logout.
func (svc *Service) UnloadActor(charID int64) {
	svc.mu.Lock()
	st, ok := svc.actors[charID]
	if ok {
		delete(svc.actors, charID)
	}
	svc.mu.Unlock()
	if !ok {
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	svc.persist(charID, st.loadout, KindInventory, KindToolbar, KindEquipment)
}

// Snapshot returns a deep copy of a character's loadout, for the REST
// read surface.
func (svc *Service) Snapshot(charID int64) *Loadout {
	st := svc.actor(charID)
	st.mu.Lock()
	defer st.mu.Unlock()
	cp := NewLoadout(len(st.loadout.Inventory), len(st.loadout.Toolbar), len(st.loadout.Equipment))
	for i, it := range st.loadout.Inventory {
		if it != nil {
			cp.Inventory[i] = it.Clone()
		}
	}
	for i, it := range st.loadout.Toolbar {
		if it != nil {
			cp.Toolbar[i] = it.Clone()
		}
	}
	for i, it := range st.loadout.Equipment {
		if it != nil {
			cp.Equipment[i] = it.Clone()
		}
	}
	return cp
}

// Move handles a generic transfer request between two slot references.
// Ground destinations delegate to the drop path, ground sources to the
// pickup path. Every branch ends with a resync.
func (svc *Service) Move(ctx context.Context, s *player.Session, srcRef, dstRef, groundToken string) {
	if srcRef == dstRef {
		// Same-slot drag is a no-op, not an error.
		svc.resyncActor(s)
		return
	}

	req := map[string]interface{}{"src": srcRef, "dst": dstRef}

	srcKind, srcIdx, err := ParseSlotRef(srcRef)
	if err != nil {
		svc.auditLog(s, "inventory_move", req, "bad slot ref")
		svc.resyncActor(s)
		return
	}
	dstKind, dstIdx, err := ParseSlotRef(dstRef)
	if err != nil {
		svc.auditLog(s, "inventory_move", req, "bad slot ref")
		svc.resyncActor(s)
		return
	}

	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()

	// Toolbar slots reflect "currently wielded": moving out of the
	// toolbar holsters whatever the player has drawn.
	if srcKind == KindToolbar && dstKind != KindToolbar {
		s.ClearWielded()
	}

	switch {
	case dstKind == KindGround:
		svc.drop(ctx, s, st, srcKind, srcIdx)
		return
	case srcKind == KindGround:
		svc.pickup(ctx, s, st, groundToken, dstKind, dstIdx)
		return
	}

	srcAdapter := svc.adapters[srcKind]
	dstAdapter := svc.adapters[dstKind]

	item := srcAdapter.ReadItem(st.loadout, srcIdx)
	if item == nil {
		svc.auditLog(s, "inventory_move", req, "empty source slot")
		svc.resync(s, st.loadout)
		return
	}

	if srcKind != dstKind {
		kind, _ := Transition(srcKind, dstKind)
		if !svc.rules.Verify(ctx, kind, item, srcIdx, dstIdx) {
			svc.auditLog(s, "inventory_move", req, "rule rejected")
			svc.resync(s, st.loadout)
			return
		}
	}

	if occupant := dstAdapter.ReadItem(st.loadout, dstIdx); occupant != nil {
		svc.swapOrStack(ctx, s, st, req, item, occupant, srcKind, srcIdx, dstKind, dstIdx)
		return
	}

	if !svc.canPlace(s, dstKind, dstIdx, item) {
		svc.auditLog(s, "inventory_move", req, "placement rejected")
		svc.resync(s, st.loadout)
		return
	}

	svc.commitMove(s, st, req, item, srcKind, srcIdx, dstKind, dstIdx)
}

// swapOrStack handles a move whose destination slot is occupied.
// Cross-kind swaps run the reverse transition's rules against the
// occupying item; if either direction rejects, neither item moves.
func (svc *Service) swapOrStack(
	ctx context.Context,
	s *player.Session,
	st *actorState,
	req map[string]interface{},
	item, occupant *Item,
	srcKind ContainerKind, srcIdx int,
	dstKind ContainerKind, dstIdx int,
) {
	if srcKind != dstKind {
		kind, _ := Transition(dstKind, srcKind)
		if !svc.rules.Verify(ctx, kind, occupant, dstIdx, srcIdx) {
			svc.auditLog(s, "inventory_move", req, "rule rejected")
			svc.resync(s, st.loadout)
			return
		}
	}

	srcAdapter := svc.adapters[srcKind]
	dstAdapter := svc.adapters[dstKind]

	if item.StacksWith(occupant) {
		merged := occupant.Quantity + item.Quantity
		if occupant.MaxStack == 0 || merged <= occupant.MaxStack {
			srcAdapter.RemoveItem(st.loadout, srcIdx)
			occupant.Quantity = merged
			svc.conclude(s, st, srcKind, dstKind)
			svc.auditLog(s, "inventory_move", req, "")
			return
		}
	}

	// Exchange slot occupants.
	srcAdapter.RemoveItem(st.loadout, srcIdx)
	dstAdapter.RemoveItem(st.loadout, dstIdx)
	if !dstAdapter.InsertItem(st.loadout, item, dstIdx) || !srcAdapter.InsertItem(st.loadout, occupant, srcIdx) {
		// Both slots were just vacated; failing here is an adapter bug.
		svc.logger.Error("invariant violation: swap reinsert failed",
			zap.Int64("char_id", s.CharID),
			zap.String("src", srcKind.String()),
			zap.String("dst", dstKind.String()))
		svc.auditLog(s, "inventory_move", req, "swap reinsert failed")
		svc.resync(s, st.loadout)
		return
	}
	svc.conclude(s, st, srcKind, dstKind)
	svc.auditLog(s, "inventory_move", req, "")
}

// canPlace validates item-placement policy for a destination kind:
// toolbar and equipment compatibility, equipment slot match, and the
// item's sex restriction against the player's identity attributes.
func (svc *Service) canPlace(s *player.Session, dstKind ContainerKind, dstIdx int, item *Item) bool {
	switch dstKind {
	case KindToolbar:
		return item.Is(IsToolbar)
	case KindEquipment:
		if !item.Is(IsEquipment) || item.EquipKind != dstIdx {
			return false
		}
		if r := item.SexRestriction(); r >= 0 && r != s.Sex {
			return false
		}
		return true
	default:
		return true
	}
}

// commitMove performs the remove+insert commit of a validated move.
// A failure after the removal succeeded is a container-capacity or
// adapter bug, logged as an internal invariant violation.
func (svc *Service) commitMove(
	s *player.Session,
	st *actorState,
	req map[string]interface{},
	item *Item,
	srcKind ContainerKind, srcIdx int,
	dstKind ContainerKind, dstIdx int,
) {
	if !svc.adapters[srcKind].RemoveItem(st.loadout, srcIdx) {
		svc.auditLog(s, "inventory_move", req, "source remove failed")
		svc.resync(s, st.loadout)
		return
	}
	if !svc.adapters[dstKind].InsertItem(st.loadout, item, dstIdx) {
		svc.logger.Error("invariant violation: insert failed after removal",
			zap.Int64("char_id", s.CharID),
			zap.String("src", srcKind.String()), zap.Int("src_slot", srcIdx),
			zap.String("dst", dstKind.String()), zap.Int("dst_slot", dstIdx))
		svc.auditLog(s, "inventory_move", req, "insert failed after removal")
		svc.resync(s, st.loadout)
		return
	}
	svc.conclude(s, st, srcKind, dstKind)
	svc.auditLog(s, "inventory_move", req, "")
}

// conclude is the shared success tail: persist both affected
// containers, resynchronize, and play the shuffle cue.
func (svc *Service) conclude(s *player.Session, st *actorState, kinds ...ContainerKind) {
	svc.persist(s.CharID, st.loadout, kinds...)
	svc.resync(s, st.loadout)
	PlaySound(s, cueShuffle, 3)
}

var persistKinds = map[ContainerKind]string{
	KindInventory: model.ContainerInventory,
	KindToolbar:   model.ContainerToolbar,
	KindEquipment: model.ContainerEquipment,
}

// persist durably writes the given containers' snapshots. The write is
// fire-and-forget: failures are logged, never surfaced to the player.
func (svc *Service) persist(charID int64, l *Loadout, kinds ...ContainerKind) {
	seen := make(map[ContainerKind]bool, len(kinds))
	for _, k := range kinds {
		name, ok := persistKinds[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true

		var items []*Item
		switch k {
		case KindInventory:
			items = l.Inventory
		case KindToolbar:
			items = l.Toolbar
		case KindEquipment:
			items = l.Equipment
		}
		compact := make([]*Item, 0, len(items))
		for _, it := range items {
			if it != nil {
				compact = append(compact, it)
			}
		}
		raw, err := json.Marshal(compact)
		if err != nil {
			svc.logger.Error("container marshal failed",
				zap.Int64("char_id", charID), zap.String("kind", name), zap.Error(err))
			continue
		}
		err = svc.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "char_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).Create(&model.ContainerState{
			CharID: charID,
			Kind:   name,
			Items:  datatypes.JSON(raw),
		}).Error
		if err != nil {
			svc.logger.Error("container save failed",
				zap.Int64("char_id", charID), zap.String("kind", name), zap.Error(err))
		}
	}
}

// resync pushes the authoritative loadout to the player. Called on
// every terminal branch so the displayed state never diverges.
func (svc *Service) resync(s *player.Session, l *Loadout) {
	payload, _ := json.Marshal(l)
	s.Send(&player.Packet{Type: "inventory_sync", Payload: payload})
}

// resyncActor resyncs without an already-held actor lock.
func (svc *Service) resyncActor(s *player.Session) {
	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()
	svc.resync(s, st.loadout)
}

// auditLog records one entry-point outcome. An empty outcome marks a
// committed operation; anything else is the rejection reason.
func (svc *Service) auditLog(s *player.Session, action string, req interface{}, outcome string) {
	if svc.audit == nil {
		return
	}
	charID := s.CharID
	accountID := s.AccountID
	svc.audit.Log(audit.AuditEntry{
		TraceID:   s.TraceID,
		CharID:    &charID,
		AccountID: &accountID,
		CharName:  s.CharName,
		Action:    action,
		Request:   req,
		Outcome:   outcome,
		Dimension: s.Dimension,
	})
}

// emit broadcasts an inventory hook event; hook errors only interrupt
// further hooks, never the already-committed operation.
func (svc *Service) emit(ctx context.Context, event string, payload HookPayload) {
	if svc.hooks == nil {
		return
	}
	if _, err := svc.hooks.Trigger(ctx, event, payload); err != nil && !errors.Is(err, hook.ErrInterrupt) {
		svc.logger.Warn("hook trigger failed", zap.String("event", event), zap.Error(err))
	}
}
