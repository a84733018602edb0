package booklets

import (
	"time"

	"github.com/google/uuid"
)

type CreateRequest struct {
	OrderNumber    *string `json:"orderNumber,omitempty" validate:"omitempty,max=100"`
	CustomerName   string  `json:"customerName" validate:"required,max=200"`
	Address        string  `json:"address" validate:"required,max=500"`
	Email          string  `json:"email" validate:"required,email,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	ProductType    string  `json:"productType" validate:"required,oneof=demo_kit_and_sample_booklet sample_booklet_only trial_kit demo_kit_only"`
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=60"`
	Status         string  `json:"status" validate:"omitempty,oneof=Pending Shipped Delivered Refunded"`
	DateOrdered    *string `json:"dateOrdered,omitempty" validate:"omitempty,calendardate"`
	DateShipped    *string `json:"dateShipped,omitempty" validate:"omitempty,calendardate"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateRequest is a partial update. An empty string clears an optional field.
type UpdateRequest struct {
	OrderNumber    *string `json:"orderNumber,omitempty" validate:"omitempty,max=100"`
	CustomerName   *string `json:"customerName,omitempty" validate:"omitempty,min=1,max=200"`
	Address        *string `json:"address,omitempty" validate:"omitempty,min=1,max=500"`
	Email          *string `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=40"`
	ProductType    *string `json:"productType,omitempty" validate:"omitempty,oneof=demo_kit_and_sample_booklet sample_booklet_only trial_kit demo_kit_only"`
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=60"`
	Status         *string `json:"status,omitempty" validate:"omitempty,oneof=Pending Shipped Delivered Refunded"`
	DateOrdered    *string `json:"dateOrdered,omitempty" validate:"omitempty,calendardate"`
	DateShipped    *string `json:"dateShipped,omitempty" validate:"omitempty,max=10"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ListRequest struct {
	Status      string `form:"status" validate:"omitempty,oneof=Pending Shipped Delivered Refunded"`
	ProductType string `form:"productType" validate:"omitempty,oneof=demo_kit_and_sample_booklet sample_booklet_only trial_kit demo_kit_only"`
	Search      string `form:"search" validate:"max=200"`
}

type QRRequest struct {
	Size int `form:"size" validate:"min=0,max=1024"`
}

type Response struct {
	ID             uuid.UUID `json:"id"`
	OrderNumber    *string   `json:"orderNumber,omitempty"`
	CustomerName   string    `json:"customerName"`
	Address        string    `json:"address"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	PhoneDisplay   string    `json:"phoneDisplay,omitempty"`
	ProductType    string    `json:"productType"`
	ProductLabel   string    `json:"productLabel"`
	TrackingNumber *string   `json:"trackingNumber,omitempty"`
	TrackingURL    string    `json:"trackingUrl,omitempty"`
	Status         string    `json:"status"`
	DateOrdered    string    `json:"dateOrdered"`
	DateShipped    *string   `json:"dateShipped,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type StatsResponse struct {
	TotalOrders     int `json:"totalOrders"`
	PendingOrders   int `json:"pendingOrders"`
	ShippedOrders   int `json:"shippedOrders"`
	DeliveredOrders int `json:"deliveredOrders"`
	RefundedOrders  int `json:"refundedOrders"`
	ThisWeekOrders  int `json:"thisWeekOrders"`
}

type RefreshResponse struct {
	Queued  bool     `json:"queued"`
	Booklet Response `json:"booklet"`
}
