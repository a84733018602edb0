package repairs

import (
	"time"

	"github.com/google/uuid"
)

type CreateRequest struct {
	LeadID           *uuid.UUID `json:"leadId,omitempty"`
	CustomerName     string     `json:"customerName" validate:"required,max=200"`
	Phone            string     `json:"phone" validate:"required,min=7,max=40"`
	Email            *string    `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Address          string     `json:"address" validate:"required,max=500"`
	IssueDescription string     `json:"issueDescription" validate:"required,max=5000"`
	Priority         string     `json:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	Status           string     `json:"status" validate:"omitempty,oneof=Pending 'In Progress' Completed Cancelled"`
	DateReported     *string    `json:"dateReported,omitempty" validate:"omitempty,calendardate"`
	Notes            *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type UpdateRequest struct {
	LeadID           *uuid.UUID `json:"leadId,omitempty"`
	CustomerName     *string    `json:"customerName,omitempty" validate:"omitempty,min=1,max=200"`
	Phone            *string    `json:"phone,omitempty" validate:"omitempty,min=7,max=40"`
	Email            *string    `json:"email,omitempty" validate:"omitempty,max=200"`
	Address          *string    `json:"address,omitempty" validate:"omitempty,min=1,max=500"`
	IssueDescription *string    `json:"issueDescription,omitempty" validate:"omitempty,min=1,max=5000"`
	Priority         *string    `json:"priority,omitempty" validate:"omitempty,oneof=Low Medium High Urgent"`
	Status           *string    `json:"status,omitempty" validate:"omitempty,oneof=Pending 'In Progress' Completed Cancelled"`
	DateReported     *string    `json:"dateReported,omitempty" validate:"omitempty,calendardate"`
	CompletionDate   *string    `json:"completionDate,omitempty" validate:"omitempty,max=10"`
	Notes            *string    `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ListRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=Pending 'In Progress' Completed Cancelled"`
	Priority string `form:"priority" validate:"omitempty,oneof=Low Medium High Urgent"`
	Search   string `form:"search" validate:"max=200"`
}

type Response struct {
	ID               uuid.UUID  `json:"id"`
	LeadID           *uuid.UUID `json:"leadId,omitempty"`
	CustomerName     string     `json:"customerName"`
	Phone            string     `json:"phone"`
	PhoneDisplay     string     `json:"phoneDisplay"`
	Email            *string    `json:"email,omitempty"`
	Address          string     `json:"address"`
	IssueDescription string     `json:"issueDescription"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	DateReported     string     `json:"dateReported"`
	CompletionDate   *string    `json:"completionDate,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
