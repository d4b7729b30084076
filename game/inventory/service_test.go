package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/rayen-brigui/altv-athena/audit"
	"github.com/rayen-brigui/altv-athena/config"
	"github.com/rayen-brigui/altv-athena/game/player"
	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/plugin/hook"
	"github.com/rayen-brigui/altv-athena/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testSession creates a minimal Session for testing (no real WebSocket).
func testSession(charID int64) *player.Session {
	return &player.Session{
		AccountID: charID,
		CharID:    charID,
		CharName:  fmt.Sprintf("char%d", charID),
		Wielded:   -1,
		SendChan:  make(chan []byte, 256),
		Done:      make(chan struct{}),
	}
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		InventorySlots: 28,
		ToolbarSlots:   4,
		EquipmentSlots: 11,
		PickupRadius:   10.0,
		BandWidth:      100.0,
		DropLifetimeS:  300,
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, testGameConfig(), NewRuleRegistry(zap.NewNop()),
		NewGroundStore(), hook.NewHookCenter(), nil, nil, zap.NewNop())
}

// place puts an item directly into a character's container for test setup.
func place(svc *Service, charID int64, kind ContainerKind, slot int, it *Item) {
	st := svc.actor(charID)
	st.mu.Lock()
	defer st.mu.Unlock()
	it.Slot = slot
	switch kind {
	case KindInventory:
		st.loadout.Inventory[slot] = it
	case KindToolbar:
		st.loadout.Toolbar[slot] = it
	case KindEquipment:
		st.loadout.Equipment[slot] = it
	}
}

func itemAt(svc *Service, charID int64, kind ContainerKind, slot int) *Item {
	st := svc.actor(charID)
	st.mu.Lock()
	defer st.mu.Unlock()
	switch kind {
	case KindInventory:
		return st.loadout.Inventory[slot]
	case KindToolbar:
		return st.loadout.Toolbar[slot]
	case KindEquipment:
		return st.loadout.Equipment[slot]
	}
	return nil
}

func TestMove_SameRefIsNoOp(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 3, &Item{ID: 1, Name: "Burger", Quantity: 2})

	svc.Move(context.Background(), s, "i-3", "i-3", "")

	it := itemAt(svc, 1, KindInventory, 3)
	require.NotNil(t, it)
	assert.Equal(t, 2, it.Quantity)
}

func TestMove_MalformedRefLeavesStateUntouched(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})

	svc.Move(context.Background(), s, "x-0", "i-1", "")
	svc.Move(context.Background(), s, "i-0", "i-abc", "")

	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0))
	assert.Nil(t, itemAt(svc, 1, KindInventory, 1))
}

func TestMove_WithinInventory(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})

	svc.Move(context.Background(), s, "i-0", "i-5", "")

	assert.Nil(t, itemAt(svc, 1, KindInventory, 0))
	it := itemAt(svc, 1, KindInventory, 5)
	require.NotNil(t, it)
	assert.Equal(t, 5, it.Slot)
}

func TestMove_EmptySourceRejected(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)

	svc.Move(context.Background(), s, "i-0", "i-1", "")

	assert.Nil(t, itemAt(svc, 1, KindInventory, 1))
}

func TestMove_CrossKindRuleRejectionIsNoOp(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})
	require.NoError(t, svc.Rules().Register(InventoryToToolbar,
		func(context.Context, *Item, int, int, TransitionKind) (bool, error) {
			return false, nil
		}))

	svc.Move(context.Background(), s, "i-0", "t-0", "")

	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0), "rejected transfer must not remove the item")
	assert.Nil(t, itemAt(svc, 1, KindToolbar, 0))
}

func TestMove_CrossKindPermitted(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})

	svc.Move(context.Background(), s, "i-0", "t-2", "")

	assert.Nil(t, itemAt(svc, 1, KindInventory, 0))
	require.NotNil(t, itemAt(svc, 1, KindToolbar, 2))
}

func TestMove_ToolbarRequiresToolbarBehavior(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})

	svc.Move(context.Background(), s, "i-0", "t-0", "")

	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0))
	assert.Nil(t, itemAt(svc, 1, KindToolbar, 0))
}

func TestMove_SwapOccupiedSlots(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})
	place(svc, 1, KindInventory, 1, &Item{ID: 2, Name: "Water", Quantity: 1})

	svc.Move(context.Background(), s, "i-0", "i-1", "")

	assert.Equal(t, 2, itemAt(svc, 1, KindInventory, 0).ID)
	assert.Equal(t, 1, itemAt(svc, 1, KindInventory, 1).ID)
}

func TestMove_SwapReverseRuleGatesBothDirections(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})
	place(svc, 1, KindToolbar, 0, &Item{ID: 2, Name: "Knife", Quantity: 1, Behavior: IsToolbar})

	// Forward direction permits; the displaced occupant's direction vetoes.
	require.NoError(t, svc.Rules().Register(ToolbarToInventory,
		func(context.Context, *Item, int, int, TransitionKind) (bool, error) {
			return false, nil
		}))

	svc.Move(context.Background(), s, "i-0", "t-0", "")

	assert.Equal(t, 1, itemAt(svc, 1, KindInventory, 0).ID, "neither item may move")
	assert.Equal(t, 2, itemAt(svc, 1, KindToolbar, 0).ID)
}

func TestMove_StackMerge(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 3, MaxStack: 10, Behavior: CanStack})
	place(svc, 1, KindInventory, 4, &Item{ID: 1, Name: "Burger", Quantity: 4, MaxStack: 10, Behavior: CanStack})

	svc.Move(context.Background(), s, "i-0", "i-4", "")

	assert.Nil(t, itemAt(svc, 1, KindInventory, 0))
	merged := itemAt(svc, 1, KindInventory, 4)
	require.NotNil(t, merged)
	assert.Equal(t, 7, merged.Quantity)
}

func TestMove_StackOverflowFallsBackToSwap(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 8, MaxStack: 10, Behavior: CanStack})
	place(svc, 1, KindInventory, 1, &Item{ID: 1, Name: "Burger", Quantity: 5, MaxStack: 10, Behavior: CanStack})

	svc.Move(context.Background(), s, "i-0", "i-1", "")

	// 13 exceeds MaxStack: the stacks exchange slots instead of merging.
	assert.Equal(t, 5, itemAt(svc, 1, KindInventory, 0).Quantity)
	assert.Equal(t, 8, itemAt(svc, 1, KindInventory, 1).Quantity)
}

func TestMove_EquipmentSlotMustMatchEquipKind(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Hat", Quantity: 1, Behavior: IsEquipment, EquipKind: EquipHat})

	svc.Move(context.Background(), s, "i-0", fmt.Sprintf("e-%d", EquipPants), "")
	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0))

	svc.Move(context.Background(), s, "i-0", fmt.Sprintf("e-%d", EquipHat), "")
	assert.Nil(t, itemAt(svc, 1, KindInventory, 0))
	assert.NotNil(t, itemAt(svc, 1, KindEquipment, EquipHat))
}

func TestMove_EquipmentSexRestriction(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	s.Sex = model.SexMale
	place(svc, 1, KindInventory, 0, &Item{
		ID: 1, Name: "Dress", Quantity: 1, Behavior: IsEquipment, EquipKind: EquipShirt,
		Data: map[string]interface{}{DataKeySex: float64(model.SexFemale)},
	})

	svc.Move(context.Background(), s, "i-0", fmt.Sprintf("e-%d", EquipShirt), "")

	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0))
	assert.Nil(t, itemAt(svc, 1, KindEquipment, EquipShirt))
}

func TestMove_OutOfToolbarClearsWielded(t *testing.T) {
	svc := newTestService(t)
	s := testSession(1)
	s.Wielded = 0
	place(svc, 1, KindToolbar, 0, &Item{ID: 1, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})

	svc.Move(context.Background(), s, "t-0", "i-0", "")

	assert.Equal(t, -1, s.Wielded)
	assert.NotNil(t, itemAt(svc, 1, KindInventory, 0))
}

func TestPersistAndLoadActor_RoundTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testGameConfig()
	svc := NewService(db, cfg, NewRuleRegistry(zap.NewNop()),
		NewGroundStore(), nil, nil, nil, zap.NewNop())
	s := testSession(7)
	place(svc, 7, KindInventory, 2, &Item{ID: 1, Name: "Burger", Quantity: 3, Behavior: CanStack | CanDrop})
	place(svc, 7, KindToolbar, 1, &Item{ID: 2, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})

	svc.Move(context.Background(), s, "i-2", "i-9", "")
	svc.UnloadActor(7)

	// A fresh service against the same DB restores the same layout.
	svc2 := NewService(db, cfg, NewRuleRegistry(zap.NewNop()),
		NewGroundStore(), nil, nil, nil, zap.NewNop())
	require.NoError(t, svc2.LoadActor(context.Background(), 7))

	loadout := svc2.Snapshot(7)
	require.NotNil(t, loadout.Inventory[9])
	assert.Equal(t, 3, loadout.Inventory[9].Quantity)
	require.NotNil(t, loadout.Toolbar[1])
	assert.Equal(t, "Pistol", loadout.Toolbar[1].Name)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	svc := newTestService(t)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 5})

	snap := svc.Snapshot(1)
	snap.Inventory[0].Quantity = 99

	assert.Equal(t, 5, itemAt(svc, 1, KindInventory, 0).Quantity)
}

func TestUnloadActor_ReleasesState(t *testing.T) {
	svc := newTestService(t)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})

	svc.UnloadActor(1)

	svc.mu.Lock()
	_, ok := svc.actors[1]
	svc.mu.Unlock()
	assert.False(t, ok)
}

func TestMove_CommitWritesAuditRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	auditSvc := audit.New(db, zap.NewNop())
	svc := NewService(db, testGameConfig(), NewRuleRegistry(zap.NewNop()),
		NewGroundStore(), hook.NewHookCenter(), nil, auditSvc, zap.NewNop())
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Burger", Quantity: 1})

	svc.Move(context.Background(), s, "i-0", "i-5", "")
	require.NotNil(t, itemAt(svc, 1, KindInventory, 5))

	// Stop flushes the async audit worker.
	auditSvc.Stop(context.Background())

	var rows []model.AuditLog
	db.Where("action = ?", "inventory_move").Find(&rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].Outcome)
	require.NotNil(t, rows[0].CharID)
	assert.Equal(t, int64(1), *rows[0].CharID)
	assert.JSONEq(t, `{"src":"i-0","dst":"i-5"}`, string(rows[0].Request))
}

func TestMove_RejectionWritesAuditOutcome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	auditSvc := audit.New(db, zap.NewNop())
	svc := NewService(db, testGameConfig(), NewRuleRegistry(zap.NewNop()),
		NewGroundStore(), hook.NewHookCenter(), nil, auditSvc, zap.NewNop())
	s := testSession(1)
	place(svc, 1, KindInventory, 0, &Item{ID: 1, Name: "Pistol", Quantity: 1, Behavior: IsToolbar})

	require.NoError(t, svc.Rules().Register(InventoryToToolbar,
		func(context.Context, *Item, int, int, TransitionKind) (bool, error) {
			return false, nil
		}))
	svc.Move(context.Background(), s, "i-0", "t-0", "")
	require.NotNil(t, itemAt(svc, 1, KindInventory, 0))

	auditSvc.Stop(context.Background())

	var rows []model.AuditLog
	db.Where("action = ?", "inventory_move").Find(&rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "rule rejected", rows[0].Outcome)
}
