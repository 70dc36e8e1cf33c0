package models

import (
	"gorm.io/gorm"
)

// ChatMessage is the durable archive row for one in-room chat line.
// The live broadcast never waits on this table.
type ChatMessage struct {
	gorm.Model
	Room string `gorm:"index;not null"`
	User string `gorm:"not null"`
	Text string `gorm:"not null"`
}

// GameResult records a finished game. Finished games are deleted from
// the session store (not resumable), so this table is the only durable
// trace of them.
type GameResult struct {
	gorm.Model
	Room        string `gorm:"index;not null"`
	Winner      string `gorm:"not null"`
	PlayerCount int    `gorm:"not null"`
}
