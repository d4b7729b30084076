package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotRef(t *testing.T) {
	cases := []struct {
		ref  string
		kind ContainerKind
		idx  int
	}{
		{"i-0", KindInventory, 0},
		{"i-27", KindInventory, 27},
		{"t-3", KindToolbar, 3},
		{"e-10", KindEquipment, 10},
		{"g-0", KindGround, 0},
	}
	for _, c := range cases {
		kind, idx, err := ParseSlotRef(c.ref)
		require.NoError(t, err, c.ref)
		assert.Equal(t, c.kind, kind, c.ref)
		assert.Equal(t, c.idx, idx, c.ref)
	}
}

func TestParseSlotRef_Malformed(t *testing.T) {
	for _, ref := range []string{
		"", "i", "i-", "-3", "x-1", "inventory-3", "i-abc", "i--1", "i-3.5", "i 3",
	} {
		_, _, err := ParseSlotRef(ref)
		assert.ErrorIs(t, err, ErrBadSlotRef, "ref %q", ref)
	}
}

func TestContainerKindString(t *testing.T) {
	assert.Equal(t, "inventory", KindInventory.String())
	assert.Equal(t, "toolbar", KindToolbar.String())
	assert.Equal(t, "equipment", KindEquipment.String())
	assert.Equal(t, "ground", KindGround.String())
}
