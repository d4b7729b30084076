package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
)

// RegisterSessionHandlers wires the character-selection and state
// update messages into the router.
func (h *Handler) RegisterSessionHandlers() {
	h.router.On("char_select", h.handleCharSelect)
	h.router.On("pos_update", h.handlePosUpdate)
	h.router.On("vehicle_state", h.handleVehicleState)
}

type charSelectPayload struct {
	CharID int64 `json:"char_id"`
}

// handleCharSelect binds a character to the session, restores its
// containers, and syncs nearby ground items.
func (h *Handler) handleCharSelect(ctx context.Context, s *player.Session, payload json.RawMessage) error {
	var req charSelectPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	if s.CharID != 0 {
		return errors.New("character already selected")
	}

	var char model.Character
	if err := h.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", req.CharID, s.AccountID).
		First(&char).Error; err != nil {
		return errors.New("character not found")
	}

	s.CharID = char.ID
	s.CharName = char.Name
	s.Sex = char.Sex
	s.SetPosition(player.Vector3{X: char.PosX, Y: char.PosY, Z: char.PosZ}, char.Heading, char.Dimension)
	h.sm.Register(s)

	if err := h.inv.LoadActor(ctx, char.ID); err != nil {
		return err
	}
	h.wm.SyncGround(s)

	snapshot, _ := json.Marshal(map[string]interface{}{"character": char})
	s.Send(&player.Packet{Type: "char_ready", Payload: snapshot})

	if h.hooks != nil {
		_, _ = h.hooks.Trigger(ctx, hook.OnPlayerLogin, char.ID)
	}
	return nil
}

type posUpdatePayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Heading   float64 `json:"heading"`
	Dimension int     `json:"dimension"`
}

// handlePosUpdate records the client-streamed position. Ground
// proximity checks and drop placement read it server-side.
func (h *Handler) handlePosUpdate(_ context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req posUpdatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	_, _, prevDim := s.Position()
	s.SetPosition(player.Vector3{X: req.X, Y: req.Y, Z: req.Z}, req.Heading, req.Dimension)
	if req.Dimension != prevDim {
		h.wm.SyncGround(s)
	}
	return nil
}

type vehicleStatePayload struct {
	InVehicle bool `json:"in_vehicle"`
}

func (h *Handler) handleVehicleState(_ context.Context, s *player.Session, payload json.RawMessage) error {
	if s.CharID == 0 {
		return nil
	}
	var req vehicleStatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return err
	}
	s.SetInVehicle(req.InVehicle)
	return nil
}
