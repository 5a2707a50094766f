// Package history persists completed generations.
package history

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Record struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Surface         string         `gorm:"column:surface;index" json:"surface,omitempty"`
	Template        string         `gorm:"column:template;not null;index" json:"template"`
	TemplateVersion int            `gorm:"column:template_version;not null;default:1" json:"template_version"`
	Model           string         `gorm:"column:model;not null" json:"model"`
	Request         datatypes.JSON `gorm:"column:request" json:"request"`
	Result          datatypes.JSON `gorm:"column:result" json:"result"`
	DurationMS      int64          `gorm:"column:duration_ms;not null;default:0" json:"duration_ms"`
	CreatedAt       time.Time      `gorm:"column:created_at;not null;index" json:"created_at"`
}

func (Record) TableName() string { return "generation_record" }

func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
