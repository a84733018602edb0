// Package leadorigins keeps the list of lead sources offered on the lead
// form. A fresh database is seeded from an embedded YAML file.
package leadorigins

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/shared/names"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Origins []struct {
		Name string `yaml:"name"`
	} `yaml:"origins"`
}

// ParseSeed reads the origin names from a seed document, normalized and
// without duplicates.
func ParseSeed(data []byte) ([]string, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lead origin seed: %w", err)
	}
	seen := make(map[string]bool, len(f.Origins))
	out := make([]string, 0, len(f.Origins))
	for _, o := range f.Origins {
		n := Normalize(o.Name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// Normalize lowercases a name and joins its words with hyphens, so
// "Trade Show" and "trade-show" are the same origin.
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}

// Label is the display form of an origin name.
func Label(name string) string {
	return names.Title(strings.NewReplacer("-", " ", "_", " ").Replace(name))
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	IsActive *bool  `json:"isActive,omitempty"`
}

type UpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type ListRequest struct {
	IncludeInactive bool `form:"includeInactive"`
}

type Response struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Seed loads the embedded origins into an empty table.
func (s *Service) Seed(ctx context.Context) error {
	origins, err := ParseSeed(seedYAML)
	if err != nil {
		return err
	}
	n, err := s.repo.SeedIfEmpty(ctx, origins)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("lead origins seeded", "count", n)
	}
	return nil
}

func (s *Service) List(ctx context.Context, includeInactive bool) ([]Response, error) {
	items, err := s.repo.List(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]Response, len(items))
	for i, o := range items {
		out[i] = toResponse(o)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (Response, error) {
	name := Normalize(req.Name)
	if name == "" {
		return Response{}, apperr.Validation("name is required")
	}
	o, err := s.repo.Create(ctx, name, req.IsActive == nil || *req.IsActive, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionCreate,
		EntityType: activity.EntityLeadOrigin,
		Details:    "Created lead origin: " + name,
	})
	if err != nil {
		return Response{}, err
	}
	return toResponse(o), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req UpdateRequest) (Response, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	name, active := cur.Name, cur.IsActive
	changed := make([]string, 0)
	if req.Name != nil {
		n := Normalize(*req.Name)
		if n == "" {
			return Response{}, apperr.Validation("name is required")
		}
		if n != cur.Name {
			name = n
			changed = append(changed, "name")
		}
	}
	if req.IsActive != nil && *req.IsActive != cur.IsActive {
		active = *req.IsActive
		changed = append(changed, "is_active")
	}

	o, err := s.repo.Update(ctx, id, name, active, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdate,
		EntityType: activity.EntityLeadOrigin,
		Details:    activity.UpdateDetails("lead origin", name, changed),
	})
	if err != nil {
		return Response{}, err
	}
	return toResponse(o), nil
}

// Delete removes an origin. Leads keep the name they were saved with.
func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDelete,
		EntityType: activity.EntityLeadOrigin,
		Details:    "Deleted lead origin: " + cur.Name,
	})
}

func toResponse(o Origin) Response {
	return Response{ID: o.ID, Name: o.Name, Label: Label(o.Name), IsActive: o.IsActive, CreatedAt: o.CreatedAt}
}
