package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Mix ist eine benannte Futtermischung mit ihren Zutaten.
type Mix struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`

	Ingredients []Ingredient `json:"ingredients" gorm:"foreignKey:MixID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate vergibt eine UUID, falls noch keine gesetzt ist.
func (m *Mix) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Mix) TableName() string {
	return "mixes"
}
