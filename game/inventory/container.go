package inventory

// Loadout holds one character's owned containers. Slots are indexed
// arrays; a nil entry is a free slot. Equipment is indexed by the
// equipment slot tag, not by drag order.
type Loadout struct {
	Inventory []*Item `json:"inventory"`
	Toolbar   []*Item `json:"toolbar"`
	Equipment []*Item `json:"equipment"`
}

// NewLoadout creates an empty loadout with the given capacities.
func NewLoadout(inventorySlots, toolbarSlots, equipmentSlots int) *Loadout {
	return &Loadout{
		Inventory: make([]*Item, inventorySlots),
		Toolbar:   make([]*Item, toolbarSlots),
		Equipment: make([]*Item, equipmentSlots),
	}
}

// FreeInventorySlot returns the index of the first free inventory
// slot, -1 if the inventory is full.
func (l *Loadout) FreeInventorySlot() int {
	for i, it := range l.Inventory {
		if it == nil {
			return i
		}
	}
	return -1
}

// Adapter is the uniform capability set every owned container kind
// exposes to the transfer engine. Ground has no slot semantics and is
// accessed through the GroundStore instead.
type Adapter interface {
	IsSlotFree(l *Loadout, slot int) bool
	ReadItem(l *Loadout, slot int) *Item
	// RemoveItem reports true iff an item was present and removed.
	RemoveItem(l *Loadout, slot int) bool
	// InsertItem reports false iff the slot was occupied or out of range.
	InsertItem(l *Loadout, item *Item, slot int) bool
}

// slotAdapter implements Adapter over one of the loadout's slot arrays.
type slotAdapter struct {
	slots func(l *Loadout) []*Item
}

func (a slotAdapter) IsSlotFree(l *Loadout, slot int) bool {
	s := a.slots(l)
	return slot >= 0 && slot < len(s) && s[slot] == nil
}

func (a slotAdapter) ReadItem(l *Loadout, slot int) *Item {
	s := a.slots(l)
	if slot < 0 || slot >= len(s) {
		return nil
	}
	return s[slot]
}

func (a slotAdapter) RemoveItem(l *Loadout, slot int) bool {
	s := a.slots(l)
	if slot < 0 || slot >= len(s) || s[slot] == nil {
		return false
	}
	s[slot] = nil
	return true
}

func (a slotAdapter) InsertItem(l *Loadout, item *Item, slot int) bool {
	s := a.slots(l)
	if slot < 0 || slot >= len(s) || s[slot] != nil {
		return false
	}
	item.Slot = slot
	s[slot] = item
	return true
}

// newAdapterTable builds the fixed kind → adapter registry. It is
// resolved once at service construction, never re-matched per call.
func newAdapterTable() map[ContainerKind]Adapter {
	return map[ContainerKind]Adapter{
		KindInventory: slotAdapter{slots: func(l *Loadout) []*Item { return l.Inventory }},
		KindToolbar:   slotAdapter{slots: func(l *Loadout) []*Item { return l.Toolbar }},
		KindEquipment: slotAdapter{slots: func(l *Loadout) []*Item { return l.Equipment }},
	}
}
