package database

import (
	"time"
)

// Run is one finished backup or cleanup invocation.
type Run struct {
	ID         uint `gorm:"primaryKey"`
	Mode       string
	Label      string
	StartedAt  time.Time
	FinishedAt time.Time

	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Deleted   int

	BytesTransferred int64
	BytesFreed       int64

	Entries []RunEntry `gorm:"foreignKey:RunID"`
}

// RunEntry is one account's outcome row within a run.
type RunEntry struct {
	ID        uint `gorm:"primaryKey"`
	RunID     uint
	Account   string
	Outcome   string
	Size      string
	Duration  string
	Checksum  string
	CreatedAt time.Time
}
