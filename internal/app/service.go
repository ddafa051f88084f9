// Package service runs the submission pipeline behind the HTTP API: it
// scores the questionnaire, writes the CRM records and sends the
// confirmation email.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/inforum/diagnostico/internal/adapters/crm"
	"github.com/inforum/diagnostico/internal/domain/notify"
	"github.com/inforum/diagnostico/internal/domain/questionnaire"
	"github.com/inforum/diagnostico/internal/domain/region"
	"github.com/inforum/diagnostico/internal/domain/scoring"
	"github.com/inforum/diagnostico/pkg/logger"
)

// CRM is the subset of the CRM client the pipeline uses.
type CRM interface {
	UpsertPerson(ctx context.Context, in crm.PersonInput) (int64, error)
	UpsertOrganization(ctx context.Context, name string) (int64, error)
	CreateDeal(ctx context.Context, in crm.DealInput) (int64, error)
	CreateNote(ctx context.Context, in crm.NoteInput) (int64, error)
}

// Mailer delivers the confirmation email.
type Mailer interface {
	Send(ctx context.Context, to string, msg notify.Message) error
}

// Service processes submissions. All fields are read-only after New, so a
// single Service serves concurrent requests.
type Service struct {
	crm      CRM
	mailer   Mailer
	resolver *region.Resolver
	composer *notify.Composer
	catalog  *questionnaire.Catalog
	rules    scoring.Rules
	siteURL  string
	newID    func() string

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCRM sets the CRM client.
func WithCRM(c CRM) Option {
	return func(s *Service) {
		if c != nil {
			s.crm = c
		}
	}
}

// WithMailer sets the confirmation transport. Without one every submission
// carries a "confirmation disabled" warning.
func WithMailer(m Mailer) Option {
	return func(s *Service) {
		if m != nil {
			s.mailer = m
		}
	}
}

// WithResolver sets the region tables.
func WithResolver(r *region.Resolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithComposer sets the email composer.
func WithComposer(c *notify.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithCatalog sets the questionnaire used for validation and note labels.
func WithCatalog(c *questionnaire.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithRules sets the qualification thresholds.
func WithRules(r scoring.Rules) Option {
	return func(s *Service) {
		s.rules = r
	}
}

// WithSiteURL sets the call-to-action link of the result screen.
func WithSiteURL(u string) Option {
	return func(s *Service) {
		if u != "" {
			s.siteURL = u
		}
	}
}

// WithIDGenerator replaces the submission id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Region tables, catalog, rules and composer
// default to the built-in values.
func New(opts ...Option) *Service {
	resolver, err := region.NewResolver(region.DefaultTables())
	if err != nil {
		panic(err) // built-in tables are complete
	}
	s := &Service{
		resolver: resolver,
		composer: notify.NewComposer(),
		catalog:  questionnaire.Default(),
		rules:    scoring.New(),
		siteURL:  notify.DefaultSiteURL,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Questions returns the questionnaire served to the wizard.
func (s *Service) Questions() []questionnaire.Question {
	return s.catalog.Questions()
}
