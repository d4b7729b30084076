package model

import (
	"time"

	"gorm.io/datatypes"
)

// Container kind values persisted with a ContainerState row.
// They mirror the owned container kinds of the inventory engine;
// ground items are world state and are not saved per character.
const (
	ContainerInventory = "inventory"
	ContainerToolbar   = "toolbar"
	ContainerEquipment = "equipment"
)

// ContainerState is the durable snapshot of one owned container for one
// character: the full item array serialized as JSON. The inventory
// engine overwrites the row after every committed operation.
type ContainerState struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	CharID    int64          `gorm:"uniqueIndex:idx_char_container,priority:1;not null" json:"char_id"`
	Kind      string         `gorm:"uniqueIndex:idx_char_container,priority:2;size:16;not null" json:"kind"`
	Items     datatypes.JSON `json:"items"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
