package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel defines the common fields for all models.
// IDs are UUID strings so that an account id can double as the key of its profile document.
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeCreate 在插入前为空 ID 生成 UUID。
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
