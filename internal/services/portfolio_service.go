package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/anonto42/folio/backend/internal/models"
	"github.com/anonto42/folio/backend/internal/repositories"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// PortfolioService manages user portfolios and the template catalog
type PortfolioService struct {
	portfolios repositories.PortfolioRepository
	templates  repositories.TemplateRepository
	now        func() time.Time
	log        *zap.Logger
}

func NewPortfolioService(portfolios repositories.PortfolioRepository, templates repositories.TemplateRepository, log *zap.Logger) *PortfolioService {
	return &PortfolioService{portfolios: portfolios, templates: templates, now: time.Now, log: log}
}

// SetClock replaces the clock used for created and updated timestamps
func (s *PortfolioService) SetClock(now func() time.Time) {
	s.now = now
}

func normalizeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return "", invalid("slug %q must be lowercase letters, digits and single dashes", slug)
	}
	return slug, nil
}

// slugFree reports whether slug is unused or used by the portfolio with id self
func (s *PortfolioService) slugFree(ctx context.Context, slug, self string) error {
	existing, err := s.portfolios.GetBySlug(ctx, slug)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return fmt.Errorf("slug %q: %w", slug, ErrConflict)
	}
	return nil
}

func (s *PortfolioService) template(ctx context.Context, id string) (*models.Template, error) {
	t, err := s.templates.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, invalid("unknown template %q", id)
	}
	return t, err
}

func applyRequest(p *models.Portfolio, req models.PortfolioRequest, slug string, t *models.Template) {
	p.Slug = slug
	p.TemplateID = t.ID
	switch {
	case req.Theme != nil:
		p.Theme = datatypes.NewJSONType(*req.Theme)
	case p.Theme.Data() == (models.Theme{}):
		p.Theme = t.DefaultTheme
	}
	p.Title = req.Title
	p.Headline = req.Headline
	p.Bio = req.Bio
	p.AvatarURL = req.AvatarURL
	p.Projects = req.Projects
	p.Skills = req.Skills
	p.Testimonials = req.Testimonials
	p.Sections = req.Sections
}

func (s *PortfolioService) save(ctx context.Context, p *models.Portfolio) error {
	outcome, err := s.portfolios.Save(ctx, p)
	if err != nil {
		return err
	}
	if outcome == repositories.OutcomeFallback {
		s.log.Warn("Portfolio saved to snapshot store only", zap.String("portfolio_id", p.ID))
	}
	return nil
}

// Create starts an unpublished portfolio for the caller. The theme defaults to the template's.
func (s *PortfolioService) Create(ctx context.Context, sess *models.Session, req models.PortfolioRequest) (*models.Portfolio, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	slug, err := normalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.slugFree(ctx, slug, ""); err != nil {
		return nil, err
	}
	t, err := s.template(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Portfolio{ID: uuid.NewString(), UserID: sess.UserID, CreatedAt: now, UpdatedAt: now}
	applyRequest(p, req, slug, t)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// owned loads a portfolio the caller may change. Unknown ids give nil.
func (s *PortfolioService) owned(ctx context.Context, sess *models.Session, id string) (*models.Portfolio, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	p, err := s.portfolios.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sess.Is(p.UserID) && !sess.IsAdmin() {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *PortfolioService) Update(ctx context.Context, sess *models.Session, id string, req models.PortfolioRequest) (*models.Portfolio, error) {
	p, err := s.owned(ctx, sess, id)
	if err != nil || p == nil {
		return nil, err
	}
	slug, err := normalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	if err := s.slugFree(ctx, slug, p.ID); err != nil {
		return nil, err
	}
	t, err := s.template(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}

	applyRequest(p, req, slug, t)
	p.UpdatedAt = s.now()
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetPublished publishes or withdraws a portfolio from its public URL
func (s *PortfolioService) SetPublished(ctx context.Context, sess *models.Session, id string, published bool) (*models.Portfolio, error) {
	p, err := s.owned(ctx, sess, id)
	if err != nil || p == nil {
		return nil, err
	}
	p.Published = published
	p.UpdatedAt = s.now()
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PortfolioService) Delete(ctx context.Context, sess *models.Session, id string) error {
	p, err := s.owned(ctx, sess, id)
	if err != nil || p == nil {
		return err
	}
	_, err = s.portfolios.Delete(ctx, id)
	return ignoreMissing(err)
}

// Get returns a portfolio to its owner, or to anyone once published
func (s *PortfolioService) Get(ctx context.Context, sess *models.Session, id string) (*models.Portfolio, error) {
	p, err := s.portfolios.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.Published && !sess.Is(p.UserID) && !sess.IsAdmin() {
		return nil, nil
	}
	return p, nil
}

// GetPublic returns the published portfolio at slug, nil when there is none
func (s *PortfolioService) GetPublic(ctx context.Context, slug string) (*models.Portfolio, error) {
	p, err := s.portfolios.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.Published {
		return nil, nil
	}
	return p, nil
}

func (s *PortfolioService) ListMine(ctx context.Context, sess *models.Session) ([]models.Portfolio, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrUnauthenticated
	}
	ps, err := s.portfolios.ListByUser(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
	return ps, nil
}

func (s *PortfolioService) ListTemplates(ctx context.Context, category string) ([]models.Template, error) {
	return s.templates.List(ctx, category)
}

// GetTemplate returns nil for unknown ids
func (s *PortfolioService) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	t, err := s.templates.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	return t, err
}
