package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateLeadRequest contains data for creating a new lead.
type CreateLeadRequest struct {
	Name              string   `json:"name" validate:"required,min=1,max=200"`
	Phone             string   `json:"phone" validate:"required,min=7,max=40"`
	Email             *string  `json:"email,omitempty" validate:"omitempty,email,max=200"`
	LeadOrigin        string   `json:"leadOrigin" validate:"required,max=100"`
	DateCreated       *string  `json:"dateCreated,omitempty" validate:"omitempty,calendardate"`
	NextFollowupDate  *string  `json:"nextFollowupDate,omitempty" validate:"omitempty,calendardate"`
	Status            *string  `json:"status,omitempty" validate:"omitempty,leadstatus"`
	AssignedTo        *string  `json:"assignedTo,omitempty" validate:"omitempty,max=100"`
	ProjectAmount     *float64 `json:"projectAmount,omitempty" validate:"omitempty,min=0"`
	Notes             *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	AdditionalNotes   *string  `json:"additionalNotes,omitempty" validate:"omitempty,max=5000"`
	DepositPaid       *bool    `json:"depositPaid,omitempty"`
	BalancePaid       *bool    `json:"balancePaid,omitempty"`
	InstallationDate  *string  `json:"installationDate,omitempty" validate:"omitempty,calendardate"`
	AssignedInstaller *string  `json:"assignedInstaller,omitempty" validate:"omitempty,max=100"`
}

// UpdateLeadRequest is a partial update: nil fields are left unchanged. An
// empty string clears an optional date or text field.
type UpdateLeadRequest struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone             *string  `json:"phone,omitempty" validate:"omitempty,min=7,max=40"`
	Email             *string  `json:"email,omitempty" validate:"omitempty,email,max=200"`
	LeadOrigin        *string  `json:"leadOrigin,omitempty" validate:"omitempty,max=100"`
	DateCreated       *string  `json:"dateCreated,omitempty" validate:"omitempty,calendardate"`
	NextFollowupDate  *string  `json:"nextFollowupDate,omitempty" validate:"omitempty,max=10"`
	Status            *string  `json:"status,omitempty" validate:"omitempty,leadstatus"`
	AssignedTo        *string  `json:"assignedTo,omitempty" validate:"omitempty,max=100"`
	ProjectAmount     *float64 `json:"projectAmount,omitempty" validate:"omitempty,min=0"`
	Notes             *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
	AdditionalNotes   *string  `json:"additionalNotes,omitempty" validate:"omitempty,max=5000"`
	DepositPaid       *bool    `json:"depositPaid,omitempty"`
	BalancePaid       *bool    `json:"balancePaid,omitempty"`
	InstallationDate  *string  `json:"installationDate,omitempty" validate:"omitempty,max=10"`
	AssignedInstaller *string  `json:"assignedInstaller,omitempty" validate:"omitempty,max=100"`
}

// ListLeadsRequest is the query string of GET /leads.
type ListLeadsRequest struct {
	Status     string `form:"status" validate:"omitempty,leadstatus"`
	Origin     string `form:"origin" validate:"max=100"`
	AssignedTo string `form:"assignedTo" validate:"max=100"`
	Search     string `form:"search" validate:"max=200"`
	HidePaid   bool   `form:"hidePaid"`
	Page       int    `form:"page" validate:"min=0"`
	PageSize   int    `form:"pageSize" validate:"min=0"`
}

// FollowupsRequest is the query string of GET /followups.
type FollowupsRequest struct {
	HidePaid bool `form:"hidePaid"`
}

// LeadResponse represents a lead in API responses.
type LeadResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Phone             string    `json:"phone"`
	PhoneDisplay      string    `json:"phoneDisplay"`
	Email             *string   `json:"email,omitempty"`
	LeadOrigin        string    `json:"leadOrigin"`
	DateCreated       string    `json:"dateCreated"`
	NextFollowupDate  *string   `json:"nextFollowupDate"`
	Status            string    `json:"status"`
	IsActive          bool      `json:"isActive"`
	AssignedTo        *string   `json:"assignedTo,omitempty"`
	ProjectAmount     *float64  `json:"projectAmount,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
	AdditionalNotes   *string   `json:"additionalNotes,omitempty"`
	DepositPaid       bool      `json:"depositPaid"`
	BalancePaid       bool      `json:"balancePaid"`
	InstallationDate  *string   `json:"installationDate,omitempty"`
	AssignedInstaller *string   `json:"assignedInstaller,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// LeadListResponse wraps a page of leads.
type LeadListResponse struct {
	Items    []LeadResponse `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}

// FollowupsResponse is the follow-up dashboard.
type FollowupsResponse struct {
	Today           string         `json:"today"`
	Overdue         []LeadResponse `json:"overdue"`
	DueToday        []LeadResponse `json:"dueToday"`
	Upcoming        []LeadResponse `json:"upcoming"`
	NewToday        []LeadResponse `json:"newToday"`
	SoldToday       []LeadResponse `json:"soldToday"`
	SoldTodaySource string         `json:"soldTodaySource"`
	Counts          map[string]int `json:"counts"`
}

// SoldDateResponse reports when a lead became Sold and which data said so.
type SoldDateResponse struct {
	LeadID   uuid.UUID `json:"leadId"`
	SoldDate *string   `json:"soldDate"`
	Source   string    `json:"source"`
}

// DashboardStatsResponse holds the headline numbers.
type DashboardStatsResponse struct {
	TotalLeads     int `json:"totalLeads"`
	SoldLeads      int `json:"soldLeads"`
	TodayFollowups int `json:"todayFollowups"`
	NewToday       int `json:"newToday"`
}
