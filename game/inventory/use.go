package inventory

import (
	"context"

	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
)

// Use activates the item in a slot. Equipment items toggle between
// equipped and unequipped; anything else must be consumable.
//
// Equip and unequip deliberately bypass the rule registry: activating
// equipment is treated as distinct from drag-and-drop transfer, so the
// Equipment↔Inventory rules are never consulted here.
func (svc *Service) Use(ctx context.Context, s *player.Session, slotRef string) {
	req := map[string]interface{}{"slot": slotRef}
	srcKind, srcIdx, err := ParseSlotRef(slotRef)
	if err != nil || srcKind == KindGround {
		svc.auditLog(s, "inventory_use", req, "bad slot ref")
		svc.resyncActor(s)
		return
	}

	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()

	item := svc.adapters[srcKind].ReadItem(st.loadout, srcIdx)
	if item == nil {
		svc.auditLog(s, "inventory_use", req, "empty slot")
		svc.resync(s, st.loadout)
		return
	}

	if item.Is(IsEquipment) {
		if srcKind == KindEquipment {
			svc.unequip(ctx, s, st, srcIdx)
		} else {
			svc.toggleEquip(ctx, s, st, srcKind, srcIdx, item)
		}
		return
	}

	if !item.Is(Consumable) {
		svc.auditLog(s, "inventory_use", req, "not usable")
		svc.resync(s, st.loadout)
		return
	}
	if !item.Is(SkipConsumable) {
		item.Quantity--
		if item.Quantity <= 0 {
			svc.adapters[srcKind].RemoveItem(st.loadout, srcIdx)
		}
	}
	svc.persist(s.CharID, st.loadout, srcKind)
	svc.resync(s, st.loadout)
	PlaySound(s, cueEat, 2)
	if name := item.EventName(); name != "" {
		svc.emit(ctx, hook.OnItemEvent, HookPayload{CharID: s.CharID, Item: *item, Slot: srcIdx})
	}
	svc.emit(ctx, hook.OnItemUse, HookPayload{CharID: s.CharID, Item: *item, Slot: srcIdx})
	svc.auditLog(s, "inventory_use", map[string]interface{}{"item": item.Name, "slot": slotRef}, "")
}

// toggleEquip equips an item out of an owned slot. A displaced
// equipment occupant returns to the vacated slot when that slot is in
// the inventory; equipment is not toolbar-placeable, so equipping from
// the toolbar sends the occupant to a free inventory slot instead.
func (svc *Service) toggleEquip(ctx context.Context, s *player.Session, st *actorState, srcKind ContainerKind, srcIdx int, item *Item) {
	req := map[string]interface{}{"item": item.Name}
	eqSlot := item.EquipKind
	eqAdapter := svc.adapters[KindEquipment]
	if eqSlot < 0 || eqSlot >= len(st.loadout.Equipment) {
		svc.auditLog(s, "inventory_equip", req, "bad equipment slot")
		svc.resync(s, st.loadout)
		return
	}
	if r := item.SexRestriction(); r >= 0 && r != s.Sex {
		svc.auditLog(s, "inventory_equip", req, "restricted")
		svc.resync(s, st.loadout)
		return
	}

	occupant := eqAdapter.ReadItem(st.loadout, eqSlot)
	srcAdapter := svc.adapters[srcKind]
	dispAdapter := srcAdapter
	dispIdx := srcIdx
	if occupant != nil && srcKind != KindInventory {
		dispAdapter = svc.adapters[KindInventory]
		dispIdx = st.loadout.FreeInventorySlot()
		if dispIdx < 0 {
			svc.auditLog(s, "inventory_equip", req, "inventory full")
			svc.resync(s, st.loadout)
			return
		}
	}

	srcAdapter.RemoveItem(st.loadout, srcIdx)
	if occupant != nil {
		eqAdapter.RemoveItem(st.loadout, eqSlot)
	}
	eqAdapter.InsertItem(st.loadout, item, eqSlot)
	if occupant != nil {
		dispAdapter.InsertItem(st.loadout, occupant, dispIdx)
	}

	svc.persist(s.CharID, st.loadout, srcKind, KindInventory, KindEquipment)
	svc.resync(s, st.loadout)
	PlaySound(s, cueEquip, 1)
	svc.emit(ctx, hook.OnItemEquip, HookPayload{CharID: s.CharID, Item: *item, Slot: eqSlot})
	svc.auditLog(s, "inventory_equip", req, "")
}

// unequip moves an equipped item into the first free inventory slot.
func (svc *Service) unequip(ctx context.Context, s *player.Session, st *actorState, eqSlot int) {
	eqAdapter := svc.adapters[KindEquipment]
	item := eqAdapter.ReadItem(st.loadout, eqSlot)
	if item == nil {
		svc.auditLog(s, "inventory_unequip", map[string]interface{}{"slot": eqSlot}, "empty slot")
		svc.resync(s, st.loadout)
		return
	}
	free := st.loadout.FreeInventorySlot()
	if free < 0 {
		svc.auditLog(s, "inventory_unequip", map[string]interface{}{"item": item.Name}, "inventory full")
		svc.resync(s, st.loadout)
		return
	}
	eqAdapter.RemoveItem(st.loadout, eqSlot)
	svc.adapters[KindInventory].InsertItem(st.loadout, item, free)

	svc.persist(s.CharID, st.loadout, KindInventory, KindEquipment)
	svc.resync(s, st.loadout)
	PlaySound(s, cueEquip, 1)
	svc.emit(ctx, hook.OnItemUnequip, HookPayload{CharID: s.CharID, Item: *item, Slot: free})
	svc.auditLog(s, "inventory_unequip", map[string]interface{}{"item": item.Name}, "")
}
