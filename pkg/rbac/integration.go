package rbac

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/bizauthz/pkg/catalog"
	"github.com/platinummonkey/bizauthz/pkg/errs"
	"github.com/platinummonkey/bizauthz/pkg/observability"
)

// Config holds engine configuration
type Config struct {
	// Hierarchy defaults to DefaultHierarchy
	Hierarchy *Hierarchy

	// CacheSize enables the catalog lookup cache when positive
	CacheSize int
	CacheTTL  time.Duration

	// Redis adds a shared cache tier when set
	Redis *redis.Client

	// CatalogGate withdraws grants whose catalog entry is inactive
	CatalogGate bool

	DefaultPageSize int
	MaxPageSize     int

	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// DefaultConfig returns default engine configuration
func DefaultConfig() Config {
	return Config{
		CacheSize:       1024,
		CacheTTL:        time.Minute,
		CatalogGate:     true,
		DefaultPageSize: catalog.DefaultPageSize,
		MaxPageSize:     catalog.MaxPageSize,
	}
}

// Manager composes the catalog service and the resolver behind the
// engine's external operations.
type Manager struct {
	repo     catalog.Repository
	cache    *catalog.CachedRepository
	service  *catalog.Service
	resolver *Resolver
	logger   *observability.Logger
	config   Config
}

// NewManager creates a manager over repo
func NewManager(repo catalog.Repository, config Config) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	var cache *catalog.CachedRepository
	if config.CacheSize > 0 {
		cache = catalog.NewCachedRepository(repo, catalog.CacheConfig{
			Size:    config.CacheSize,
			TTL:     config.CacheTTL,
			Redis:   config.Redis,
			Metrics: config.Metrics,
			Logger:  logger,
		})
		repo = cache
	}

	service := catalog.NewService(repo,
		catalog.WithLogger(logger),
		catalog.WithMetrics(config.Metrics),
		catalog.WithPageSizes(config.DefaultPageSize, config.MaxPageSize),
	)

	resolverOpts := []ResolverOption{WithLogger(logger), WithMetrics(config.Metrics)}
	if config.CatalogGate {
		resolverOpts = append(resolverOpts, WithCatalogGate(repo))
	}

	return &Manager{
		repo:     repo,
		cache:    cache,
		service:  service,
		resolver: NewResolver(config.Hierarchy, resolverOpts...),
		logger:   logger,
		config:   config,
	}
}

// Initialize runs catalog migrations on db (when non-nil) and seeds the
// system permissions.
func (m *Manager) Initialize(ctx context.Context, db *sql.DB) error {
	if db != nil {
		if err := catalog.RunMigrations(ctx, db, m.logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if _, err := m.SeedSystemPermissions(ctx); err != nil {
		return fmt.Errorf("failed to seed system permissions: %w", err)
	}

	return nil
}

// SeedSystemPermissions creates a system catalog entry for every pair in the
// grant table. Existing names are left untouched. Returns how many were
// created.
func (m *Manager) SeedSystemPermissions(ctx context.Context) (int, error) {
	created := 0
	for _, input := range m.resolver.Hierarchy().SystemPermissions() {
		_, err := m.service.Create(ctx, input)
		if errs.IsAlreadyExists(err) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("failed to create system permission %s: %w", input.Name, err)
		}
		created++
	}

	if created > 0 {
		m.logger.WithField("created", created).Info("seeded system permissions")
	}
	return created, nil
}

// Close releases the cache's invalidation subscription, if any
func (m *Manager) Close() error {
	if m.cache == nil {
		return nil
	}
	return m.cache.Close()
}

// Service returns the catalog service
func (m *Manager) Service() *catalog.Service {
	return m.service
}

// Resolver returns the decision engine
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// CheckRequest is one authorization query
type CheckRequest struct {
	Actor    Actor    `json:"actor"`
	Action   Action   `json:"action"`
	Resource Resource `json:"resource"`
	Scope    Scope    `json:"scope"`
}

// CheckResponse is the query form of a decision
type CheckResponse struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason"`
}

// RequireResponse is the assertion form of a decision
type RequireResponse struct {
	OK        bool   `json:"ok"`
	ErrorCode string `json:"error_code,omitempty"`
}

// CanActResponse reports a role comparison
type CanActResponse struct {
	Allowed bool `json:"allowed"`
}

// CheckPermission evaluates req. Only a storage failure in the catalog gate
// produces an error, and then the response is a denial.
func (m *Manager) CheckPermission(ctx context.Context, req CheckRequest) (CheckResponse, error) {
	d, err := m.resolver.Evaluate(ctx, req.Actor, req.Action, req.Resource, req.Scope)
	return CheckResponse{Granted: d.Granted, Reason: d.Reason}, err
}

// RequirePermission evaluates req like CheckPermission and reports a denial
// as an AuthorizationError.
func (m *Manager) RequirePermission(ctx context.Context, req CheckRequest) (RequireResponse, error) {
	d, err := m.resolver.Evaluate(ctx, req.Actor, req.Action, req.Resource, req.Scope)
	if err != nil {
		return RequireResponse{ErrorCode: errs.CodeOf(err)}, err
	}
	if !d.Granted {
		authErr := &errs.AuthorizationError{
			ActorID:  req.Actor.ID,
			Role:     string(req.Actor.Role),
			Action:   string(req.Action),
			Resource: string(req.Resource),
			Reason:   d.Reason,
		}
		return RequireResponse{ErrorCode: authErr.Code()}, authErr
	}
	return RequireResponse{OK: true}, nil
}

// CanActOnRole compares two roles
func (m *Manager) CanActOnRole(actorRole, targetRole Role) CanActResponse {
	return CanActResponse{Allowed: m.resolver.CanActOnRole(actorRole, targetRole)}
}

// CanManageUser reports whether actor may perform op on target
func (m *Manager) CanManageUser(actor Actor, target TargetUser, op ManageOperation) bool {
	return m.resolver.CanManageUser(actor, target, op)
}

// CanManageUserInScope is CanManageUser restricted to the actor's tenant scope
func (m *Manager) CanManageUserInScope(actor Actor, target TargetUser, op ManageOperation) bool {
	return m.resolver.CanManageUserInScope(actor, target, op)
}

// CreatePermission adds a catalog entry
func (m *Manager) CreatePermission(ctx context.Context, input catalog.CreateInput) (*catalog.Permission, error) {
	return m.service.Create(ctx, input)
}

// GetPermission returns a catalog entry by id
func (m *Manager) GetPermission(ctx context.Context, id string) (*catalog.Permission, error) {
	return m.service.Get(ctx, id)
}

// UpdatePermission patches a catalog entry
func (m *Manager) UpdatePermission(ctx context.Context, id string, patch catalog.Patch) (*catalog.Permission, error) {
	return m.service.Update(ctx, id, patch)
}

// DeletePermission removes a non-system catalog entry
func (m *Manager) DeletePermission(ctx context.Context, id string) error {
	return m.service.Delete(ctx, id)
}

// ListPermissions returns a page of catalog entries
func (m *Manager) ListPermissions(ctx context.Context, q catalog.ListQuery) (catalog.Page, error) {
	return m.service.List(ctx, q)
}

// GetStats summarizes the catalog
func (m *Manager) GetStats(ctx context.Context) (catalog.Stats, error) {
	return m.service.Stats(ctx)
}
