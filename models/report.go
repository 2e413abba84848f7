package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report speichert einen (ggf. vom Nutzer bearbeiteten) KI-Nährwertbericht als HTML.
// Pro Mischung können beliebig viele Reports existieren; maßgeblich ist der neueste.
type Report struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MixID     string    `json:"mixId" gorm:"type:varchar(36);index:idx_reports_mix_created;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_reports_mix_created"`

	// Nur für den Fremdschlüssel, wird nicht serialisiert.
	Mix *Mix `json:"-" gorm:"foreignKey:MixID;constraint:OnDelete:CASCADE"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TableName gibt den expliziten Tabellennamen für GORM an.
func (Report) TableName() string {
	return "reports"
}
