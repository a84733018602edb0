package activity

import (
	"net/http"
	"time"

	"wrapcrm_backend/platform/httpkit"
	"wrapcrm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListRequest is the query string of GET /admin/activity-logs.
type ListRequest struct {
	Search     string `form:"search" validate:"max=200"`
	EntityType string `form:"entityType" validate:"max=50"`
	Action     string `form:"action" validate:"max=50"`
	Days       int    `form:"days" validate:"min=0,max=3650"`
	Limit      int    `form:"limit" validate:"min=0"`
	Offset     int    `form:"offset" validate:"min=0"`
}

// RecordResponse is one activity line in API responses.
type RecordResponse struct {
	ID         int64      `json:"id"`
	UserID     *uuid.UUID `json:"userId,omitempty"`
	Username   *string    `json:"username,omitempty"`
	Action     string     `json:"action"`
	EntityType string     `json:"entityType"`
	EntityID   *string    `json:"entityId,omitempty"`
	Details    string     `json:"details"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ListResponse wraps a page of activity lines.
type ListResponse struct {
	Items  []RecordResponse `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List returns the filtered audit trail.
// GET /api/v1/admin/activity-logs
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", validator.FieldErrors(err))
		return
	}

	page, err := h.svc.List(c.Request.Context(), Query(req))
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]RecordResponse, len(page.Items))
	for i, rec := range page.Items {
		items[i] = RecordResponse(rec)
	}
	httpkit.OK(c, ListResponse{Items: items, Total: page.Total, Limit: page.Limit, Offset: page.Offset})
}
