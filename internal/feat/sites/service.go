package sites

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/metrics"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
)

// Service publishes and serves sites.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Publish sanitizes the slug, stores the site and returns its public URL.
	Publish(ctx context.Context, req PublishRequest) (*PublishResult, error)
	// Serve returns the rendered document for slug, or ErrNotFound.
	Serve(ctx context.Context, slug string) (*Page, error)
	// Fetch returns the stored record for slug, or ErrNotFound.
	Fetch(ctx context.Context, slug string) (*Site, error)
	// Ping checks the store backend.
	Ping(ctx context.Context) error
}

// Page is a rendered document ready to be written to a client.
type Page struct {
	Slug     string
	Document string
	Site     *Site
}

type service struct {
	store Store
	cfg   *config.Config
	log   logger.Logger
}

// NewService creates a publish service over store.
func NewService(store Store, cfg *config.Config, log logger.Logger) Service {
	return &service{
		store: store,
		cfg:   cfg,
		log:   log,
	}
}

// NewStore builds the store selected by cfg.Store.Backend. dbProvider is
// only used by the database backends.
func NewStore(cfg *config.Config, dbProvider DBProvider) (Store, error) {
	switch cfg.Store.Backend {
	case "", config.BackendFS:
		return NewFSStore(cfg.Store.SitesPath), nil
	case config.BackendSQLite, config.BackendMySQL:
		if dbProvider == nil {
			return nil, fmt.Errorf("backend %s requires a database", cfg.Store.Backend)
		}
		return NewDBStore(dbProvider, cfg.Store.Backend), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func (s *service) Start(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("cannot reach %s store: %w", s.store.Backend(), err)
	}
	s.log.Infof("Sites service started [%s backend]", s.store.Backend())
	return nil
}

func (s *service) Stop(ctx context.Context) error {
	s.log.Info("Sites service stopped")
	return nil
}

func (s *service) defaultTitle() string {
	if s.cfg != nil && s.cfg.Publish.DefaultTitle != "" {
		return s.cfg.Publish.DefaultTitle
	}
	return DefaultTitle
}

func (s *service) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	site := NewSite(SanitizeSlug(req.Slug), strings.TrimSpace(req.Title), req.HTML, req.CSS, req.JS)

	if site.IsEmpty() {
		metrics.PublishErrorsTotal.WithLabelValues(metrics.ReasonValidation).Inc()
		return nil, validation.NewError("empty content")
	}

	if site.Title == "" {
		site.Title = s.defaultTitle()
	}

	if err := s.store.Upsert(ctx, site); err != nil {
		metrics.PublishErrorsTotal.WithLabelValues(metrics.ReasonStorage).Inc()
		s.log.Errorf("Publish %s failed: %v", site.Slug, err)
		return nil, fmt.Errorf("cannot publish site: %w", err)
	}

	metrics.SitesPublishedTotal.WithLabelValues(s.store.Backend()).Inc()
	s.log.With("slug", site.Slug, "backend", s.store.Backend()).Info("Site published")

	return &PublishResult{OK: true, Slug: site.Slug, URL: site.URL()}, nil
}

func (s *service) Serve(ctx context.Context, slug string) (*Page, error) {
	if !IsValidSlug(slug) {
		metrics.SiteNotFoundTotal.Inc()
		return nil, ErrNotFound
	}

	site, err := s.store.Fetch(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.SiteNotFoundTotal.Inc()
			s.log.Debugf("Site not found: %s", slug)
			return nil, ErrNotFound
		}
		s.log.Errorf("Serve %s failed: %v", slug, err)
		return nil, fmt.Errorf("cannot serve site: %w", err)
	}

	doc := site.Document
	if doc == "" {
		doc = Render(site)
	}

	metrics.SitesServedTotal.Inc()
	return &Page{Slug: slug, Document: doc, Site: site}, nil
}

func (s *service) Fetch(ctx context.Context, slug string) (*Site, error) {
	if !IsValidSlug(slug) {
		return nil, ErrNotFound
	}
	return s.store.Fetch(ctx, slug)
}

func (s *service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
