package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamMember is an agency staff member who can be assigned to clients.
// Traffic managers earn the monthly ROAS commission of the clients they run.
type TeamMember struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`        // UUID
	Name      string    `json:"name" gorm:"size:100;not null;index"` // display name, used for ordering
	Email     string    `json:"email" gorm:"size:100"`               // contact email
	Role      string    `json:"role" gorm:"size:30;default:TRAFFIC"` // TRAFFIC, DESIGNER, ACCOUNT...
	IsActive  bool      `json:"is_active" gorm:"not null"`           // still on the team
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`    // created
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`    // last update
}

// TableName returns the table name
func (TeamMember) TableName() string {
	return "team_members"
}

// BeforeCreate assigns a UUID when none was set.
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
