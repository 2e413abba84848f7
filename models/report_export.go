package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportExport protokolliert den Upload eines Reports in den Object Storage.
// Reports selbst bleiben unverändert.
type ReportExport struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CreatedAt time.Time `json:"createdAt"`

	ReportID  string `json:"reportId" gorm:"type:varchar(36);index;not null"`
	MixID     string `json:"mixId" gorm:"type:varchar(36);index;not null"`
	ObjectKey string `json:"objectKey" gorm:"not null"`
	URL       string `json:"url" gorm:"type:text"`
}

func (e *ReportExport) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (ReportExport) TableName() string { return "report_exports" }
