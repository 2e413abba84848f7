package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient ist eine Zutat einer Mischung. Die Menge ist Freitext ("5kg", "2 Schaufeln").
type Ingredient struct {
	ID       string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name     string `json:"name" gorm:"not null"`
	Quantity string `json:"quantity" gorm:"not null"`
	MixID    string `json:"mixId" gorm:"type:varchar(36);index;not null"`
	Position int    `json:"-" gorm:"not null;default:0"` // Reihenfolge der Eingabe
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Ingredient) TableName() string {
	return "ingredients"
}
