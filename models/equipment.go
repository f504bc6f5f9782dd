package models

import "time"

// Equipment is an inventory record. InternalNotes is stored for every record but
// only exposed to authenticated callers.
type Equipment struct {
	ID            uint `gorm:"primaryKey"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Name          string   `gorm:"size:255;not null"`
	Quantity      *float64 `gorm:"type:double precision;index"`
	InternalNotes *string  `gorm:"type:text"`
}

// TableName keeps the singular table name used by the migrations.
func (Equipment) TableName() string { return "equipment" }
