// Package booklets tracks sample booklet and demo kit orders from order to
// delivery.
package booklets

import (
	"context"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/internal/shared/names"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

// Order statuses.
const (
	StatusPending   = "Pending"
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusRefunded  = "Refunded"
)

// Product types.
const (
	ProductDemoKitAndBooklet = "demo_kit_and_sample_booklet"
	ProductBookletOnly       = "sample_booklet_only"
	ProductTrialKit          = "trial_kit"
	ProductDemoKitOnly       = "demo_kit_only"
)

var productLabels = map[string]string{
	ProductDemoKitAndBooklet: "Demo Kit & Sample Booklet",
	ProductBookletOnly:       "Sample Booklet",
	ProductTrialKit:          "Trial Kit",
	ProductDemoKitOnly:       "Demo Kit",
}

// ProductLabel is the customer-facing name of a product type.
func ProductLabel(productType string) string {
	if l, ok := productLabels[productType]; ok {
		return l
	}
	return productType
}

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// TrackingURLFunc builds the public carrier page for a tracking number.
type TrackingURLFunc func(trackingNumber string) string

// SyncQueue hands manual refreshes to the background worker.
type SyncQueue interface {
	Enabled() bool
	EnqueueBookletSync(ctx context.Context, bookletID uuid.UUID) error
}

// Syncer refreshes one booklet from the carrier in-process.
type Syncer interface {
	SyncBooklet(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo        Repository
	bus         events.Bus
	loc         *time.Location
	trackingURL TrackingURLFunc
	queue       SyncQueue
	syncer      Syncer
	log         *logger.Logger
	now         func() time.Time
}

func NewService(repo Repository, bus events.Bus, loc *time.Location, trackingURL TrackingURLFunc, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, bus: bus, loc: loc, trackingURL: trackingURL, log: log, now: time.Now}
}

// SetRefresher wires manual tracking refreshes. The queue is preferred; the
// syncer runs inline when no queue is available.
func (s *Service) SetRefresher(q SyncQueue, syncer Syncer) {
	s.queue = q
	s.syncer = syncer
}

func (s *Service) today() calendar.Date {
	return calendar.Today(s.now(), s.loc)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Response, error) {
	items, err := s.repo.List(ctx, ListParams{
		Status:      req.Status,
		ProductType: req.ProductType,
		Search:      strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Response, len(items))
	for i, b := range items {
		out[i] = s.toResponse(b)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Response, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return s.toResponse(b), nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (Response, error) {
	f := Fields{
		OrderNumber:    trimmedOrNil(req.OrderNumber),
		CustomerName:   names.Title(req.CustomerName),
		Address:        strings.TrimSpace(req.Address),
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:          normalizePhone(req.Phone),
		ProductType:    req.ProductType,
		TrackingNumber: normalizeTracking(req.TrackingNumber),
		Status:         req.Status,
		DateShipped:    trimmedOrNil(req.DateShipped),
		Notes:          req.Notes,
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	f.DateOrdered = s.today().String()
	if req.DateOrdered != nil && strings.TrimSpace(*req.DateOrdered) != "" {
		f.DateOrdered = strings.TrimSpace(*req.DateOrdered)
	}
	s.stampShipped(&f)

	b, err := s.repo.Create(ctx, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionCreate,
		EntityType: activity.EntityBooklet,
		Details:    "Created sample booklet order: " + f.CustomerName,
	})
	if err != nil {
		return Response{}, err
	}
	s.log.Info("sample booklet created", "id", b.ID, "status", b.Status)
	return s.toResponse(b), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req UpdateRequest) (Response, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	f, changed := applyUpdate(cur, req)
	s.stampShipped(&f)

	b, err := s.repo.Update(ctx, id, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdate,
		EntityType: activity.EntityBooklet,
		Details:    activity.UpdateDetails("sample booklet order", f.CustomerName, changed),
	})
	if err != nil {
		return Response{}, err
	}

	if cur.Status != b.Status {
		s.publishStatusChange(ctx, b, cur.Status)
	}
	return s.toResponse(b), nil
}

func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDelete,
		EntityType: activity.EntityBooklet,
		Details:    "Deleted sample booklet order: " + b.CustomerName,
	})
}

// Stats returns the dashboard counts. This week means ordered within the last
// seven business-local days, today included.
func (s *Service) Stats(ctx context.Context) (StatsResponse, error) {
	st, err := s.repo.Stats(ctx, s.today().AddDays(-6).String())
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{
		TotalOrders:     st.Total,
		PendingOrders:   st.Pending,
		ShippedOrders:   st.Shipped,
		DeliveredOrders: st.Delivered,
		RefundedOrders:  st.Refunded,
		ThisWeekOrders:  st.ThisWeek,
	}, nil
}

// TrackingQR renders the carrier tracking page URL as a PNG QR code.
func (s *Service) TrackingQR(ctx context.Context, id uuid.UUID, size int) ([]byte, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.TrackingNumber == nil || s.trackingURL == nil {
		return nil, apperr.BadRequest("No tracking number")
	}

	switch {
	case size == 0:
		size = defaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}

	png, err := qrcode.Encode(s.trackingURL(*b.TrackingNumber), qrcode.Medium, size)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not render QR code", err)
	}
	return png, nil
}

// RefreshTracking asks for a carrier refresh of one order. Queued reports
// whether the work was handed to the worker; otherwise the returned booklet
// already reflects the refresh.
func (s *Service) RefreshTracking(ctx context.Context, id uuid.UUID) (RefreshResponse, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return RefreshResponse{}, err
	}
	if b.TrackingNumber == nil {
		return RefreshResponse{}, apperr.BadRequest("No tracking number")
	}

	if s.queue != nil && s.queue.Enabled() {
		if err := s.queue.EnqueueBookletSync(ctx, id); err != nil {
			return RefreshResponse{}, apperr.Wrap(apperr.KindUnavailable, "could not queue tracking refresh", err)
		}
		return RefreshResponse{Queued: true, Booklet: s.toResponse(b)}, nil
	}
	if s.syncer == nil {
		return RefreshResponse{}, apperr.Unavailable("tracking refresh is not available")
	}

	if err := s.syncer.SyncBooklet(ctx, id); err != nil {
		return RefreshResponse{}, err
	}
	b, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return RefreshResponse{}, err
	}
	return RefreshResponse{Booklet: s.toResponse(b)}, nil
}

func (s *Service) publishStatusChange(ctx context.Context, b Booklet, oldStatus string) {
	if s.bus == nil {
		return
	}
	tracking := ""
	if b.TrackingNumber != nil {
		tracking = *b.TrackingNumber
	}
	s.bus.Publish(ctx, events.BookletStatusChanged{
		BaseEvent:      events.NewBaseEvent(),
		BookletID:      b.ID,
		CustomerName:   b.CustomerName,
		CustomerEmail:  b.Email,
		TrackingNumber: tracking,
		OldStatus:      oldStatus,
		NewStatus:      b.Status,
	})
}

// stampShipped fills the ship date the first time an order is marked Shipped.
func (s *Service) stampShipped(f *Fields) {
	if f.Status == StatusShipped && f.DateShipped == nil {
		today := s.today().String()
		f.DateShipped = &today
	}
}

func applyUpdate(cur Booklet, req UpdateRequest) (Fields, []string) {
	f := Fields{
		OrderNumber: cur.OrderNumber, CustomerName: cur.CustomerName, Address: cur.Address,
		Email: cur.Email, Phone: cur.Phone, ProductType: cur.ProductType,
		TrackingNumber: cur.TrackingNumber, Status: cur.Status, DateOrdered: cur.DateOrdered,
		DateShipped: cur.DateShipped, Notes: cur.Notes,
	}
	changed := make([]string, 0)

	if req.OrderNumber != nil {
		f.OrderNumber = trimmedOrNil(req.OrderNumber)
		changed = append(changed, "order_number")
	}
	if req.CustomerName != nil && names.Title(*req.CustomerName) != cur.CustomerName {
		f.CustomerName = names.Title(*req.CustomerName)
		changed = append(changed, "customer_name")
	}
	if req.Address != nil {
		f.Address = strings.TrimSpace(*req.Address)
		changed = append(changed, "address")
	}
	if req.Email != nil {
		f.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		changed = append(changed, "email")
	}
	if req.Phone != nil {
		f.Phone = normalizePhone(req.Phone)
		changed = append(changed, "phone")
	}
	if req.ProductType != nil && *req.ProductType != cur.ProductType {
		f.ProductType = *req.ProductType
		changed = append(changed, "product_type")
	}
	if req.TrackingNumber != nil {
		f.TrackingNumber = normalizeTracking(req.TrackingNumber)
		changed = append(changed, "tracking_number")
	}
	if req.Status != nil && *req.Status != cur.Status {
		f.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.DateOrdered != nil && *req.DateOrdered != "" {
		f.DateOrdered = *req.DateOrdered
		changed = append(changed, "date_ordered")
	}
	if req.DateShipped != nil {
		f.DateShipped = trimmedOrNil(req.DateShipped)
		changed = append(changed, "date_shipped")
	}
	if req.Notes != nil {
		f.Notes = req.Notes
		changed = append(changed, "notes")
	}
	return f, changed
}

func (s *Service) toResponse(b Booklet) Response {
	r := Response{
		ID: b.ID, OrderNumber: b.OrderNumber, CustomerName: b.CustomerName, Address: b.Address,
		Email: b.Email, Phone: b.Phone, ProductType: b.ProductType, ProductLabel: ProductLabel(b.ProductType),
		TrackingNumber: b.TrackingNumber, Status: b.Status, DateOrdered: b.DateOrdered,
		DateShipped: b.DateShipped, Notes: b.Notes, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	}
	if b.Phone != nil {
		r.PhoneDisplay = phone.Display(*b.Phone)
	}
	if b.TrackingNumber != nil && s.trackingURL != nil {
		r.TrackingURL = s.trackingURL(*b.TrackingNumber)
	}
	return r
}

// normalizeTracking strips the spaces carriers print inside numbers.
func normalizeTracking(p *string) *string {
	v := trimmedOrNil(p)
	if v == nil {
		return nil
	}
	n := strings.ToUpper(strings.Join(strings.Fields(*v), ""))
	return &n
}

func normalizePhone(p *string) *string {
	v := trimmedOrNil(p)
	if v == nil {
		return nil
	}
	n := phone.NormalizeE164(*v)
	return &n
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
