package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/platinummonkey/bizauthz/pkg/errs"
	"github.com/platinummonkey/bizauthz/pkg/observability"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

var permissionNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.:-]*$`)

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *observability.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides permission id generation
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithPageSizes overrides the default and maximum listing page sizes
func WithPageSizes(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if defaultSize > 0 {
			s.defaultLimit = defaultSize
		}
		if maxSize > 0 {
			s.maxLimit = maxSize
		}
	}
}

// Service manages the permission catalog
type Service struct {
	repo         Repository
	validate     *validator.Validate
	logger       *observability.Logger
	metrics      *observability.Metrics
	now          func() time.Time
	newID        func() string
	defaultLimit int
	maxLimit     int
}

// NewService creates a catalog service on top of repo
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		validate:     newValidator(),
		logger:       observability.NopLogger(),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
		defaultLimit: DefaultPageSize,
		maxLimit:     MaxPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterValidation("permname", func(fl validator.FieldLevel) bool {
		return permissionNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Create adds a new permission. The entry starts active.
func (s *Service) Create(ctx context.Context, input CreateInput) (_ *Permission, err error) {
	ctx, done := s.observe(ctx, "create", attribute.String("permission.name", input.Name))
	defer func() { done(err) }()

	if err := s.validateStruct(input); err != nil {
		return nil, err
	}

	now := s.now()
	p := &Permission{
		ID:                 s.newID(),
		Name:               input.Name,
		DisplayName:        input.DisplayName,
		Description:        input.Description,
		Category:           input.Category,
		IsSystemPermission: input.IsSystemPermission,
		IsActive:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"permission_id": p.ID,
		"name":          p.Name,
		"system":        p.IsSystemPermission,
	}).Info("permission created")

	return p, nil
}

// Get returns the permission with the given id
func (s *Service) Get(ctx context.Context, id string) (_ *Permission, err error) {
	ctx, done := s.observe(ctx, "get", attribute.String("permission.id", id))
	defer func() { done(err) }()

	return s.mustFind(ctx, id)
}

// GetByName returns the permission with the given name
func (s *Service) GetByName(ctx context.Context, name string) (_ *Permission, err error) {
	ctx, done := s.observe(ctx, "get_by_name", attribute.String("permission.name", name))
	defer func() { done(err) }()

	p, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: EntityPermission, Key: name}
	}
	return p, nil
}

// Update applies patch to the permission with the given id. Deactivating a
// system permission fails; its display metadata stays editable.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (_ *Permission, err error) {
	ctx, done := s.observe(ctx, "update", attribute.String("permission.id", id))
	defer func() { done(err) }()

	if err := s.validateStruct(patch); err != nil {
		return nil, err
	}
	if patch.DisplayName != nil && strings.TrimSpace(*patch.DisplayName) == "" {
		return nil, &errs.ValidationError{Field: "display_name", Message: "must not be empty"}
	}

	p, err := s.mustFind(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := p.ApplyPatch(patch, s.now()); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"permission_id": p.ID,
		"name":          p.Name,
		"is_active":     p.IsActive,
	}).Info("permission updated")

	return p, nil
}

// Delete removes a non-system permission
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, done := s.observe(ctx, "delete", attribute.String("permission.id", id))
	defer func() { done(err) }()

	p, err := s.mustFind(ctx, id)
	if err != nil {
		return err
	}

	if !p.CanDelete() {
		return &errs.SystemPermissionModificationError{
			PermissionID: p.ID,
			Name:         p.Name,
			Operation:    errs.OperationDeletion,
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"permission_id": p.ID,
		"name":          p.Name,
	}).Info("permission deleted")

	return nil
}

// List returns one page of permissions matching q
func (s *Service) List(ctx context.Context, q ListQuery) (_ Page, err error) {
	ctx, done := s.observe(ctx, "list")
	defer func() { done(err) }()

	q = q.Normalize(s.defaultLimit, s.maxLimit)

	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, err
	}

	return NewPage(items, total, q), nil
}

// Stats summarizes the catalog
func (s *Service) Stats(ctx context.Context) (_ Stats, err error) {
	ctx, done := s.observe(ctx, "stats")
	defer func() { done(err) }()

	return s.repo.Stats(ctx)
}

func (s *Service) mustFind(ctx context.Context, id string) (*Permission, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &errs.NotFoundError{Entity: EntityPermission, Key: id}
	}
	return p, nil
}

// observe starts a span for operation and returns a func that ends it,
// records the outcome metric and logs failures.
func (s *Service) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := observability.StartSpan(ctx, "catalog."+operation, attrs...)

	return ctx, func(err error) {
		observability.EndSpan(span, err)

		status := "success"
		if err != nil {
			status = strings.ToLower(errs.CodeOf(err))
			log := observability.FromContext(ctx, s.logger).
				WithField("operation", operation).
				WithField("code", errs.CodeOf(err)).
				WithError(err)
			if errs.IsStorageUnavailable(err) || errs.CodeOf(err) == errs.CodeInternal {
				log.Error("catalog operation failed")
			} else {
				log.Debug("catalog operation rejected")
			}
		}
		s.metrics.RecordCatalogOperation(operation, status, started)
	}
}

func (s *Service) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &errs.ValidationError{Field: fe.Field(), Message: describeFieldError(fe)}
	}
	return &errs.ValidationError{Field: "input", Message: err.Error()}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "permname":
		return "must start with a letter and contain only letters, digits, '_', '.', ':' or '-'"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
