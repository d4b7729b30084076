package inventory

// Behavior is a bitset describing what an item can do.
type Behavior uint32

const (
	CanDrop Behavior = 1 << iota
	CanStack
	Consumable
	SkipConsumable // consumable that is not decremented on use
	DestroyOnDrop
	IsEquipment
	IsToolbar // allowed in a toolbar slot
)

// Data payload keys with engine-level meaning. Everything else in the
// payload is opaque to the engine and belongs to item behaviors.
const (
	DataKeySex   = "sex"   // equipment restriction, matches model.Sex values
	DataKeyEvent = "event" // event name broadcast when the item is used
)

// NoEquipKind marks an item that occupies no equipment slot.
const NoEquipKind = -1

// Equipment slot tags. An equipment item's EquipKind selects which
// equipment slot it occupies.
const (
	EquipHat = iota
	EquipMask
	EquipGlasses
	EquipEars
	EquipShirt
	EquipPants
	EquipFeet
	EquipWatch
	EquipBracelet
	EquipBag
	EquipBodyArmour
)

// Item is one stack of a game item inside some container.
type Item struct {
	ID        int                    `json:"id"` // item definition id; stacking identity
	Name      string                 `json:"name"`
	Slot      int                    `json:"slot"`
	Quantity  int                    `json:"quantity"`
	MaxStack  int                    `json:"max_stack,omitempty"` // 0 = unbounded
	Behavior  Behavior               `json:"behavior"`
	EquipKind int                    `json:"equip_kind"`
	Token     string                 `json:"token,omitempty"` // set only while dropped
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Is reports whether all bits of b are set on the item.
func (it *Item) Is(b Behavior) bool {
	return it.Behavior&b == b
}

// Clone returns a deep copy of the item.
func (it *Item) Clone() *Item {
	cp := *it
	if it.Data != nil {
		cp.Data = make(map[string]interface{}, len(it.Data))
		for k, v := range it.Data {
			cp.Data[k] = v
		}
	}
	return &cp
}

// StacksWith reports whether two items are the same item type and both
// allow stacking.
func (it *Item) StacksWith(other *Item) bool {
	return it.ID == other.ID && it.Is(CanStack) && other.Is(CanStack)
}

// SexRestriction returns the sex an equipment item is restricted to,
// or -1 when unrestricted. The payload value arrives as float64 after
// a JSON round trip, so both numeric forms are accepted.
func (it *Item) SexRestriction() int {
	if it.Data == nil {
		return -1
	}
	switch v := it.Data[DataKeySex].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return -1
	}
}

// EventName returns the payload event name, empty if none.
func (it *Item) EventName() string {
	if it.Data == nil {
		return ""
	}
	if v, ok := it.Data[DataKeyEvent].(string); ok {
		return v
	}
	return ""
}
