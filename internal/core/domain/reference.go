// internal/core/domain/reference.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Category is a leaf reference grouping medicines
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate performs domain validation on the category
func (c *Category) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// Supplier is a leaf reference for medicine sourcing
type Supplier struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	GSTIN         string    `json:"gstin,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Validate performs domain validation on the supplier
func (s *Supplier) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// NotificationType classifies stock alerts
type NotificationType string

const (
	NotificationLowStock     NotificationType = "low-stock"
	NotificationExpiringSoon NotificationType = "expiring-soon"
	NotificationExpired      NotificationType = "expired"
)

// Notification is a persisted stock alert surfaced on the dashboard
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Count     int              `json:"count"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
