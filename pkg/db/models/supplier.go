package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is a wholesale seller discovered through the places API (or a
// demo stand-in). PlaceID is the places identifier, "temp_<name>" when the
// caller did not have one.
type Supplier struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PlaceID   string          `gorm:"column:place_id;not null;uniqueIndex"`
	Name      string          `gorm:"column:name;not null"`
	Address   string          `gorm:"column:address"`
	Phone     string          `gorm:"column:phone"`
	Rating    decimal.Decimal `gorm:"column:rating;type:numeric(3,1);not null;default:0"`
	Latitude  *float64        `gorm:"column:latitude"`
	Longitude *float64        `gorm:"column:longitude"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Supplier) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
