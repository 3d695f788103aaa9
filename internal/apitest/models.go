package apitest

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User is an account of the fake API
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
}

// Expense belongs to a user
type Expense struct {
	BaseModel
	UserID      string `gorm:"index;not null"`
	Amount      float64
	Description string
	Type        string
	Category    string
	Date        time.Time
}

// Income belongs to a user
type Income struct {
	BaseModel
	UserID      string `gorm:"index;not null"`
	Amount      float64
	Source      string
	Description string
	Date        time.Time
}

// autoMigrate creates the fake API tables
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Expense{}, &Income{})
}
