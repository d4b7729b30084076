package ws

import (
	"context"
	"encoding/json"

	"github.com/rayen-brigui/altv-athena/game/player"
)

// RegisterInventoryHandlers wires the four inventory entry points into
// the router. Each maps 1:1 onto an inventory.Service operation; the
// service resolves terminally, so handlers never answer directly.
func (h *Handler) RegisterInventoryHandlers() {
	h.router.On("inventory_move", h.handleInventoryMove)
	h.router.On("inventory_use", h.handleInventoryUse)
	h.router.On("inventory_split", h.handleInventorySplit)
	h.router.On("inventory_pickup", h.handleInventoryPickup)
}

type inventoryMovePayload struct {
	Src   string `json:"src"`
	Dst   string `json:"dst"`
	Token string `json:"token,omitempty"` // ground token for pickups via drag
}

func (h *Handler) handleInventoryMove(ctx context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req inventoryMovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	h.inv.Move(ctx, s, req.Src, req.Dst, req.Token)
	return nil
}

type inventoryUsePayload struct {
	Slot string `json:"slot"`
}

func (h *Handler) handleInventoryUse(ctx context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req inventoryUsePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	h.inv.Use(ctx, s, req.Slot)
	return nil
}

type inventorySplitPayload struct {
	Src    int  `json:"src"`
	Dst    *int `json:"dst,omitempty"` // nil = first free slot
	Amount int  `json:"amount"`
}

func (h *Handler) handleInventorySplit(ctx context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req inventorySplitPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	if req.Dst == nil {
		h.inv.SplitAny(ctx, s, req.Src, req.Amount)
	} else {
		h.inv.Split(ctx, s, req.Src, *req.Dst, req.Amount)
	}
	return nil
}

type inventoryPickupPayload struct {
	Token string `json:"token"`
	Dst   string `json:"dst,omitempty"` // empty = first free inventory slot
}

func (h *Handler) handleInventoryPickup(ctx context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req inventoryPickupPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	if req.Dst == "" {
		h.inv.PickupAny(ctx, s, req.Token)
	} else {
		h.inv.Pickup(ctx, s, req.Token, req.Dst)
	}
	return nil
}
