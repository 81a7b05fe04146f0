// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Timestamps tracks when an entity was first persisted and when it was last
// changed afterwards. Embed it by value in any model that needs the behavior.
type Timestamps struct {
	Created  time.Time  `gorm:"autoCreateTime;index" json:"created"`
	Modified *time.Time `json:"modified,omitempty"`
}

// BeforeUpdate refreshes the modification time on every save after the first.
func (t *Timestamps) BeforeUpdate(_ *gorm.DB) error {
	now := time.Now()
	t.Modified = &now
	return nil
}

// Changed reports whether the entity was ever saved again after creation.
func (t *Timestamps) Changed() bool {
	return t.Modified != nil
}
