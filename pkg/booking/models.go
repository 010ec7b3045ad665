// Package booking holds the scheduling data the chat concierge reads and mutates.
// The CRUD surfaces that own these tables live outside this repository.
package booking

import "time"

// SchedulingStatus is the lifecycle status of a Scheduling
type SchedulingStatus string

const (
	SchedulingPending   SchedulingStatus = "pending"
	SchedulingConfirmed SchedulingStatus = "confirmed"
	SchedulingCancelled SchedulingStatus = "cancelled"
	SchedulingDone      SchedulingStatus = "done"
)

// ConfirmationStatus is the status of a ConfirmationRequest
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationCancelled ConfirmationStatus = "cancelled"
)

// Tenant is one business using the platform, reachable at PhoneNumber
type Tenant struct {
	ID          uint      `json:"id" gorm:"primary_key"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phoneNumber" gorm:"unique_index"`
}

// Setting is a named per-tenant configuration value
type Setting struct {
	ID       uint   `gorm:"primary_key"`
	TenantID uint   `gorm:"not null;unique_index:idx_settings_tenant_key"`
	Key      string `gorm:"not null;unique_index:idx_settings_tenant_key"`
	Value    string
}

type Customer struct {
	ID       uint   `json:"id" gorm:"primary_key"`
	TenantID uint   `json:"tenantId" gorm:"index"`
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"index"`
	Phone    string `json:"phone"`
}

type Service struct {
	ID       uint   `json:"id" gorm:"primary_key"`
	TenantID uint   `json:"tenantId" gorm:"index"`
	Name     string `json:"name"`
}

// Scheduling is a customer's booking of a service at Date
type Scheduling struct {
	ID          uint             `json:"id" gorm:"primary_key"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	TenantID    uint             `json:"tenantId" gorm:"index"`
	CustomerID  uint             `json:"customerId"`
	ServiceID   uint             `json:"serviceId"`
	Date        time.Time        `json:"date" gorm:"index"`
	Status      SchedulingStatus `json:"status"`
	CancelledAt *time.Time       `json:"cancelledAt"`
	Service     Service          `json:"service" gorm:"foreignkey:ServiceID"`
}

// ConfirmationRequest asks a customer to confirm or cancel a Scheduling
type ConfirmationRequest struct {
	ID           uint               `json:"id" gorm:"primary_key"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	TenantID     uint               `json:"tenantId"`
	SchedulingID uint               `json:"schedulingId"`
	Status       ConfirmationStatus `json:"status"`
	RespondedAt  *time.Time         `json:"respondedAt"`
}

// IsPending reports whether the request still waits for an answer
func (r *ConfirmationRequest) IsPending() bool {
	return r.Status == ConfirmationPending
}
