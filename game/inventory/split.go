package inventory

import (
	"context"

	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
)

// Split divides an inventory stack: amount units move off the source
// stack into a fresh stack at the chosen free inventory slot. Only
// valid from the inventory, with 0 < amount < quantity; splitting the
// whole stack is rejected.
func (svc *Service) Split(ctx context.Context, s *player.Session, srcSlot, dstSlot, amount int) {
	st := svc.actor(s.CharID)
	st.mu.Lock()
	defer st.mu.Unlock()

	req := map[string]interface{}{"src": srcSlot, "dst": dstSlot, "amount": amount}
	adapter := svc.adapters[KindInventory]
	item := adapter.ReadItem(st.loadout, srcSlot)
	if item == nil || amount <= 0 || amount >= item.Quantity {
		svc.auditLog(s, "inventory_split", req, "invalid split")
		svc.resync(s, st.loadout)
		return
	}
	if !adapter.IsSlotFree(st.loadout, dstSlot) {
		svc.auditLog(s, "inventory_split", req, "destination occupied")
		svc.resync(s, st.loadout)
		return
	}

	item.Quantity -= amount
	stack := item.Clone()
	stack.Quantity = amount
	stack.Token = ""
	adapter.InsertItem(st.loadout, stack, dstSlot)

	svc.persist(s.CharID, st.loadout, KindInventory)
	svc.resync(s, st.loadout)
	PlaySound(s, cueShuffle, 3)
	svc.emit(ctx, hook.OnItemSplit, HookPayload{CharID: s.CharID, Item: *stack, Slot: dstSlot})
	svc.auditLog(s, "inventory_split", map[string]interface{}{
		"item": item.Name, "src": srcSlot, "dst": dstSlot, "amount": amount,
	}, "")
}

// SplitAny splits into the first free inventory slot.
func (svc *Service) SplitAny(ctx context.Context, s *player.Session, srcSlot, amount int) {
	st := svc.actor(s.CharID)
	st.mu.Lock()
	free := st.loadout.FreeInventorySlot()
	st.mu.Unlock()
	if free < 0 || free == srcSlot {
		svc.auditLog(s, "inventory_split",
			map[string]interface{}{"src": srcSlot, "amount": amount}, "inventory full")
		svc.resyncActor(s)
		return
	}
	svc.Split(ctx, s, srcSlot, free, amount)
}
