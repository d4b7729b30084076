package inventory

import (
	"context"
	"time"

	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
	"go.uber.org/zap"
)

const (
	dropForward = 1.0
	dropBelow   = 0.5
)

// drop moves an item out of an owned container onto the ground.
// Caller holds the actor lock.
func (svc *Service) drop(ctx context.Context, s *player.Session, st *actorState, srcKind ContainerKind, srcIdx int) {
	req := map[string]interface{}{"src": srcKind.String(), "slot": srcIdx}
	if s.Seated() {
		svc.auditLog(s, "inventory_drop", req, "seated in vehicle")
		svc.resync(s, st.loadout)
		return
	}
	adapter, ok := svc.adapters[srcKind]
	if !ok {
		svc.auditLog(s, "inventory_drop", req, "bad source container")
		svc.resync(s, st.loadout)
		return
	}
	item := adapter.ReadItem(st.loadout, srcIdx)
	if item == nil || !item.Is(CanDrop) {
		svc.auditLog(s, "inventory_drop", req, "not droppable")
		svc.resync(s, st.loadout)
		return
	}
	kind, _ := Transition(srcKind, KindGround)
	if !svc.rules.Verify(ctx, kind, item, srcIdx, -1) {
		svc.auditLog(s, "inventory_drop", req, "rule rejected")
		svc.resync(s, st.loadout)
		return
	}

	adapter.RemoveItem(st.loadout, srcIdx)
	svc.persist(s.CharID, st.loadout, srcKind)

	if item.Is(DestroyOnDrop) {
		// No ground record: the item ceases to exist.
		Notify(s, item.Name+" was destroyed.")
		PlaySound(s, cueRemove, 1)
		svc.resync(s, st.loadout)
		svc.auditLog(s, "inventory_destroy_on_drop", map[string]interface{}{"item": item.Name, "slot": srcIdx}, "")
		return
	}

	dropped := item.Clone()
	dropped.Slot = -1
	dropped.Token = NewGroundToken(dropped)
	pos := s.ForwardOffset(dropForward, dropBelow)
	_, _, dimension := s.Position()

	d := &DroppedItem{
		Item:      *dropped,
		Token:     dropped.Token,
		Pos:       pos,
		Dimension: dimension,
		Band:      Band(pos.X, svc.cfg.BandWidth),
		DroppedBy: s.CharID,
	}
	if svc.cfg.DropLifetimeS > 0 {
		d.ExpireAt = time.Now().Add(time.Duration(svc.cfg.DropLifetimeS) * time.Second)
	}
	svc.ground.Add(d)
	if svc.world != nil {
		svc.world.AddGroundItem(d)
	}

	svc.resync(s, st.loadout)
	PlaySound(s, cueRemove, 1)
	svc.emit(ctx, hook.OnItemDrop, HookPayload{CharID: s.CharID, Item: d.Item, Slot: srcIdx, Token: d.Token})
	svc.auditLog(s, "inventory_drop", map[string]interface{}{"item": item.Name, "token": d.Token}, "")
}

// pickup claims a dropped item by token into a free destination slot.
// Validation reads precede the claim; the claim itself is an atomic
// test-and-remove, so two players racing for one token see exactly one
// winner. If insertion fails after the claim the item is lost rather
// than duplicated.
func (svc *Service) pickup(ctx context.Context, s *player.Session, st *actorState, token string, dstKind ContainerKind, dstIdx int) {
	req := map[string]interface{}{"token": token, "dst": dstKind.String(), "slot": dstIdx}
	if token == "" {
		svc.auditLog(s, "inventory_pickup", req, "missing token")
		svc.resync(s, st.loadout)
		return
	}
	if s.Seated() {
		svc.auditLog(s, "inventory_pickup", req, "seated in vehicle")
		svc.resync(s, st.loadout)
		return
	}
	adapter, ok := svc.adapters[dstKind]
	if !ok || !adapter.IsSlotFree(st.loadout, dstIdx) {
		svc.auditLog(s, "inventory_pickup", req, "destination occupied")
		svc.resync(s, st.loadout)
		return
	}
	d := svc.ground.Get(token)
	if d == nil {
		svc.auditLog(s, "inventory_pickup", req, "unknown token")
		svc.resync(s, st.loadout)
		return
	}
	pos, _, dimension := s.Position()
	if d.Dimension != dimension || pos.Dist(d.Pos) > svc.cfg.PickupRadius {
		svc.auditLog(s, "inventory_pickup", req, "out of range")
		svc.resync(s, st.loadout)
		return
	}
	item := d.Item.Clone()
	kind, _ := Transition(KindGround, dstKind)
	if !svc.rules.Verify(ctx, kind, item, -1, dstIdx) {
		svc.auditLog(s, "inventory_pickup", req, "rule rejected")
		svc.resync(s, st.loadout)
		return
	}
	if !svc.canPlace(s, dstKind, dstIdx, item) {
		svc.auditLog(s, "inventory_pickup", req, "placement rejected")
		svc.resync(s, st.loadout)
		return
	}

	claimed, won := svc.ground.Take(token)
	if !won {
		// Another player claimed it between our read and the take.
		svc.auditLog(s, "inventory_pickup", req, "already claimed")
		svc.resync(s, st.loadout)
		return
	}

	item = claimed.Item.Clone()
	item.Token = ""
	if !adapter.InsertItem(st.loadout, item, dstIdx) {
		svc.logger.Error("invariant violation: pickup insert failed, item lost",
			zap.Int64("char_id", s.CharID),
			zap.String("token", token),
			zap.String("dst", dstKind.String()),
			zap.Int("dst_slot", dstIdx))
		svc.auditLog(s, "inventory_pickup", req, "insert failed, item lost")
		svc.resync(s, st.loadout)
		return
	}
	if svc.world != nil {
		svc.world.RemoveGroundItem(claimed.Dimension, claimed.Band, token)
	}

	svc.persist(s.CharID, st.loadout, dstKind)
	svc.resync(s, st.loadout)
	PlaySound(s, cuePickup, 1)
	svc.emit(ctx, hook.OnItemPickup, HookPayload{CharID: s.CharID, Item: *item, Slot: dstIdx, Token: token})
	svc.auditLog(s, "inventory_pickup", map[string]interface{}{"item": item.Name, "token": token}, "")
}

// Pickup claims a dropped item into an explicit destination slot.
func (svc *Service) Pickup(ctx context.Context, s *player.Session, token, dstRef string) {
	dstKind, dstIdx, err := ParseSlotRef(dstRef)
	if err != nil || dstKind == KindGround {
		svc.auditLog(s, "inventory_pickup",
			map[string]interface{}{"token": token, "dst": dstRef}, "bad slot ref")
		svc.resyncActor(s)
		return
	}
	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()
	svc.pickup(ctx, s, st, token, dstKind, dstIdx)
}

// PickupAny claims a dropped item into the first free inventory slot,
// failing outright when the inventory is full.
func (svc *Service) PickupAny(ctx context.Context, s *player.Session, token string) {
	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()
	slot := st.loadout.FreeInventorySlot()
	if slot < 0 {
		svc.auditLog(s, "inventory_pickup",
			map[string]interface{}{"token": token}, "inventory full")
		svc.resync(s, st.loadout)
		return
	}
	svc.pickup(ctx, s, st, token, KindInventory, slot)
}
