package face

import (
	"time"

	"github.com/eleven-am/sight-backend/internal/shared"
)

// Face is one registered person: the spoken name plus the reference
// image captured at registration time. Aliases hold other names the
// person goes by, so "who is this" can match either form. Records
// survive restarts so a returning user keeps their known people.
type Face struct {
	ID        string             `gorm:"primaryKey" json:"id"`
	Name      string             `gorm:"index;not null" json:"name"`
	Aliases   shared.StringSlice `gorm:"type:text" json:"aliases"`
	ImagePath string             `gorm:"not null" json:"image_path"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
