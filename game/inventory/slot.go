package inventory

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ContainerKind is a closed set of the four container variants.
type ContainerKind int

const (
	KindInventory ContainerKind = iota
	KindToolbar
	KindEquipment
	KindGround
)

// ErrBadSlotRef is returned for slot identifiers that do not parse.
var ErrBadSlotRef = errors.New("inventory: malformed slot reference")

var kindPrefixes = map[string]ContainerKind{
	"i": KindInventory,
	"t": KindToolbar,
	"e": KindEquipment,
	"g": KindGround,
}

var kindNames = map[ContainerKind]string{
	KindInventory: "inventory",
	KindToolbar:   "toolbar",
	KindEquipment: "equipment",
	KindGround:    "ground",
}

// String returns the long name of the kind ("inventory", "toolbar", ...).
func (k ContainerKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ContainerKind(%d)", int(k))
}

// ParseSlotRef parses a slot identifier of the form "<prefix>-<index>"
// (e.g. "i-3" for inventory slot 3) into its container kind and slot
// index. It is a pure function: malformed input yields ErrBadSlotRef
// and no side effects.
func ParseSlotRef(ref string) (ContainerKind, int, error) {
	prefix, idxStr, ok := strings.Cut(ref, "-")
	if !ok {
		return 0, 0, ErrBadSlotRef
	}
	kind, ok := kindPrefixes[prefix]
	if !ok {
		return 0, 0, ErrBadSlotRef
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, 0, ErrBadSlotRef
	}
	return kind, idx, nil
}
