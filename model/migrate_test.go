package model_test

import (
	"testing"
	"time"

	"github.com/rayen-brigui/altv-athena/model"
	"github.com/rayen-brigui/altv-athena/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	// Account
	acc := &model.Account{Username: "test_user", PasswordHash: "hash", Status: 1}
	require.NoError(t, db.Create(acc).Error)
	assert.Greater(t, acc.ID, int64(0))

	var found model.Account
	require.NoError(t, db.First(&found, acc.ID).Error)
	assert.Equal(t, "test_user", found.Username)

	// Character
	char := &model.Character{
		AccountID: acc.ID,
		Name:      "Jane_Doe",
		Sex:       model.SexFemale,
		PosX:      -1082.5, PosY: -2845.2, PosZ: 13.9,
	}
	require.NoError(t, db.Create(char).Error)
	assert.Greater(t, char.ID, int64(0))

	// ContainerState
	cs := &model.ContainerState{
		CharID: char.ID,
		Kind:   model.ContainerInventory,
		Items:  datatypes.JSON([]byte(`[{"slot":0,"name":"Burger","quantity":3}]`)),
	}
	require.NoError(t, db.Create(cs).Error)

	var loaded model.ContainerState
	require.NoError(t, db.Where("char_id = ? AND kind = ?", char.ID, model.ContainerInventory).
		First(&loaded).Error)
	assert.JSONEq(t, `[{"slot":0,"name":"Burger","quantity":3}]`, string(loaded.Items))

	// AuditLog
	al := &model.AuditLog{
		TraceID: "trace-001", Action: "inventory_move",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(al).Error)
}
