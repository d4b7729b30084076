package model

import "time"

// Sex values stored on a character. Equipment items may restrict
// themselves to one value via their data payload.
const (
	SexFemale = 0
	SexMale   = 1
)

// Character represents a player's in-game character.
type Character struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID int64     `gorm:"index:idx_account;not null" json:"account_id"`
	Name      string    `gorm:"uniqueIndex;size:32;not null" json:"name"`
	Sex       int       `gorm:"default:1" json:"sex"`
	Cash      int64     `gorm:"default:0" json:"cash"`
	Bank      int64     `gorm:"default:0" json:"bank"`
	Health    int       `gorm:"default:200" json:"health"`
	Armour    int       `gorm:"default:0" json:"armour"`
	PosX      float64   `gorm:"default:0" json:"pos_x"`
	PosY      float64   `gorm:"default:0" json:"pos_y"`
	PosZ      float64   `gorm:"default:0" json:"pos_z"`
	Heading   float64   `gorm:"default:0" json:"heading"`
	Dimension int       `gorm:"default:0" json:"dimension"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
