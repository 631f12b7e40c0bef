package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

const (
	msgBlank             = "can't be blank"
	msgInvalid           = "is invalid"
	msgValidationsFailed = "Validations failed."

	defaultTimeout = 10 * time.Second
)

var testsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "integration_tests_total",
		Help: "Number of integration test calls, differentiated by type and result.",
	},
	[]string{"type", "result"},
)

// Errors maps property names to messages.
type Errors map[string][]string

// Add appends a message for name.
func (e Errors) Add(name, message string) {
	e[name] = append(e[name], message)
}

// Full returns sorted "name message" lines.
func (e Errors) Full() []string {
	out := make([]string, 0, len(e))

	for name, msgs := range e {
		for _, m := range msgs {
			out = append(out, name+" "+m)
		}
	}

	sort.Strings(out)

	return out
}

// Result is the outcome shown to the user after a save or test.
type Result struct {
	Error           bool   `json:"error"`
	Message         string `json:"message"`
	ServiceResponse string `json:"service_response"`
}

// Status is the state of one provider for a project.
type Status struct {
	Provider   Provider
	Active     bool
	Configured bool
	UpdatedAt  time.Time
}

// Service runs the save and test-and-activate flows.
type Service struct {
	db       *gorm.DB
	registry *Registry
	timeout  time.Duration
	validate *validator.Validate

	allowlist Allowlist
	resolver  Resolver
}

// NewService creates a service. A timeout <= 0 selects the default of 10 seconds.
func NewService(db *gorm.DB, registry *Registry, timeout time.Duration, opts ...Option) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	s := &Service{
		db:       db,
		registry: registry,
		timeout:  timeout,
		validate: validator.New(),
		resolver: net.DefaultResolver,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry returns the providers known to the service.
func (s *Service) Registry() *Registry {
	return s.registry
}

// List returns the status of every provider for the project.
func (s *Service) List(ctx context.Context, projectID uint64) ([]Status, error) {
	var records []models.Integration
	if err := s.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}

	byType := make(map[string]models.Integration, len(records))
	for _, r := range records {
		byType[r.Type] = r
	}

	providers := s.registry.All()
	out := make([]Status, 0, len(providers))

	for _, p := range providers {
		st := Status{Provider: p}
		if r, ok := byType[p.Type()]; ok {
			st.Active = r.Active
			st.Configured = true
			st.UpdatedAt = r.UpdatedAt
		}

		out = append(out, st)
	}

	return out, nil
}

// Find returns the provider of type typ and the stored record of the project.
// The record is new and unsaved when the project has none yet.
func (s *Service) Find(ctx context.Context, projectID uint64, typ string) (Provider, *models.Integration, error) {
	p, ok := s.registry.Get(typ)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}

	rec := &models.Integration{ProjectID: projectID, Type: typ}

	err := s.db.WithContext(ctx).Where("project_id = ? AND type = ?", projectID, typ).First(rec).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to load integration: %w", err)
	}

	return p, rec, nil
}

// Properties decodes the stored properties of rec.
func Properties(rec *models.Integration) (map[string]string, error) {
	props := make(map[string]string)
	if len(rec.Properties) == 0 {
		return props, nil
	}

	if err := json.Unmarshal(rec.Properties, &props); err != nil {
		return nil, fmt.Errorf("failed to decode integration properties: %w", err)
	}

	return props, nil
}

// PublicProperties returns the stored properties without secret values.
func PublicProperties(p Provider, rec *models.Integration) (map[string]string, error) {
	props, err := Properties(rec)
	if err != nil {
		return nil, err
	}

	for _, f := range p.Fields() {
		if f.Secret {
			delete(props, f.Name)
		}
	}

	return props, nil
}

// Merge applies submitted values to stored ones. Unknown names are dropped and
// blank secrets keep their stored value.
func Merge(p Provider, stored, submitted map[string]string) map[string]string {
	out := make(map[string]string, len(p.Fields()))

	for _, f := range p.Fields() {
		if v, ok := stored[f.Name]; ok {
			out[f.Name] = v
		}

		v, ok := submitted[f.Name]
		if !ok {
			continue
		}

		v = strings.TrimSpace(v)
		if f.Secret && v == "" {
			continue
		}

		out[f.Name] = v
	}

	return out
}

// check validates props against the provider fields.
func (s *Service) check(p Provider, props map[string]string) Errors {
	errs := make(Errors)

	for _, f := range p.Fields() {
		v := props[f.Name]

		switch {
		case v == "" && f.Required:
			errs.Add(f.Name, msgBlank)
		case v != "" && f.Validate != "":
			if err := s.validate.Var(v, f.Validate); err != nil {
				errs.Add(f.Name, msgInvalid)
			}
		}
	}

	return errs
}

// TestAndActivate tests the merged credentials with a single call bounded by the
// service timeout. Only a successful test persists them, marking the integration active.
func (s *Service) TestAndActivate(ctx context.Context, projectID uint64, typ string,
	submitted map[string]string,
) (*Result, Errors, error) {
	p, rec, err := s.Find(ctx, projectID, typ)
	if err != nil {
		return nil, nil, err
	}

	stored, err := Properties(rec)
	if err != nil {
		return nil, nil, err
	}

	props := Merge(p, stored, submitted)

	if errs := s.check(p, props); len(errs) > 0 {
		return &Result{
			Error:           true,
			Message:         msgValidationsFailed,
			ServiceResponse: strings.Join(errs.Full(), ", "),
		}, errs, nil
	}

	testCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := s.test(testCtx, p, props)
	if err != nil {
		testsTotal.WithLabelValues(typ, "failure").Inc()
		log.Warn().Err(err).Uint64("project_id", projectID).Str("type", typ).Msg("integration test failed")

		return &Result{
			Error:           true,
			Message:         "Test failed: " + s.reason(err),
			ServiceResponse: response,
		}, nil, nil
	}

	testsTotal.WithLabelValues(typ, "success").Inc()

	if err = s.persist(ctx, rec, props, true); err != nil {
		return nil, nil, err
	}

	log.Info().Uint64("project_id", projectID).Str("type", typ).Msg("integration activated")

	return &Result{Message: p.Title() + " activated.", ServiceResponse: response}, nil, nil
}

// Save stores the merged credentials without a test call. Required properties are
// only enforced when active is set.
func (s *Service) Save(ctx context.Context, projectID uint64, typ string,
	submitted map[string]string, active bool,
) (*Result, Errors, error) {
	p, rec, err := s.Find(ctx, projectID, typ)
	if err != nil {
		return nil, nil, err
	}

	stored, err := Properties(rec)
	if err != nil {
		return nil, nil, err
	}

	props := Merge(p, stored, submitted)

	errs := s.check(p, props)
	if !active {
		for name, msgs := range errs {
			if len(msgs) == 1 && msgs[0] == msgBlank {
				delete(errs, name)
			}
		}
	}

	if len(errs) > 0 {
		return &Result{
			Error:           true,
			Message:         msgValidationsFailed,
			ServiceResponse: strings.Join(errs.Full(), ", "),
		}, errs, nil
	}

	if err = s.persist(ctx, rec, props, active); err != nil {
		return nil, nil, err
	}

	if active {
		return &Result{Message: p.Title() + " settings saved and active."}, nil, nil
	}

	return &Result{Message: p.Title() + " settings saved, but not activated."}, nil, nil
}

// test checks the endpoint of p and performs the test call.
func (s *Service) test(ctx context.Context, p Provider, props map[string]string) (string, error) {
	if err := s.checkEndpoint(ctx, p, props); err != nil {
		return "", err
	}

	return p.Test(ctx, props)
}

func (s *Service) persist(ctx context.Context, rec *models.Integration, props map[string]string, active bool) error {
	raw, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("failed to encode integration properties: %w", err)
	}

	rec.Properties = raw
	rec.Active = active

	db := s.db.WithContext(ctx)

	if rec.ID != 0 {
		err = db.Save(rec).Error
	} else {
		// a concurrent request may have created the record since Find
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"active", "properties", "updated_at"}),
		}).Create(rec).Error
	}

	if err != nil {
		return fmt.Errorf("failed to save integration: %w", err)
	}

	return nil
}

func (s *Service) reason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "no response within " + s.timeout.String()
	}

	return strings.TrimPrefix(err.Error(), ErrTestFailed.Error()+": ")
}
