package location

import (
	"errors"
	"time"
)

const (
	// DefaultLeadTimeHours is applied when the owner does not pick a lead time.
	DefaultLeadTimeHours = 24
	// DefaultCloudThreshold is the default maximum acceptable cloud cover (percent).
	DefaultCloudThreshold = 15.0
)

type Location struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	Name                   string    `gorm:"size:150" json:"name"`
	Latitude               float64   `gorm:"not null" json:"latitude"`
	Longitude              float64   `gorm:"not null" json:"longitude"`
	Notify                 bool      `json:"notify"`
	NotificationLeadTime   int       `json:"notification_lead_time"`
	CloudCoverageThreshold float64   `json:"cloud_coverage_threshold"`
	UserID                 uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt              time.Time `json:"created_at"`
}

// Target is a notify-enabled location joined with its owner's email address.
// OwnerEmail is empty when the owning user record is missing.
type Target struct {
	Location
	OwnerEmail string `json:"owner_email"`
}

var (
	ErrLatitudeRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeRange = errors.New("longitude must be between -180 and 180")
	ErrLeadTime       = errors.New("notification lead time must be non-negative")
	ErrCloudThreshold = errors.New("cloud coverage threshold must be between 0 and 100")
)

// Validate checks coordinate ranges and notification settings.
func (l *Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return ErrLatitudeRange
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return ErrLongitudeRange
	}
	if l.NotificationLeadTime < 0 {
		return ErrLeadTime
	}
	if l.CloudCoverageThreshold < 0 || l.CloudCoverageThreshold > 100 {
		return ErrCloudThreshold
	}
	return nil
}
