package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/bizauthz/pkg/errs"
	"github.com/platinummonkey/bizauthz/pkg/observability"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func setupService(t *testing.T, opts ...Option) (*Service, *fixedClock) {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewService(NewMemoryRepository(), opts...), clock
}

func prospectRead() CreateInput {
	return CreateInput{
		Name:               "PROSPECT_READ",
		DisplayName:        "Read prospects",
		Description:        "View prospects of the business",
		Category:           "prospect",
		IsSystemPermission: true,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, clock := setupService(t)

	p, err := svc.Create(ctx, prospectRead())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.IsActive)
	assert.True(t, p.IsSystemPermission)
	assert.Equal(t, clock.Now(), p.CreatedAt)
	assert.Equal(t, clock.Now(), p.UpdatedAt)

	_, err = svc.Create(ctx, CreateInput{Name: "PROSPECT_READ", DisplayName: "Other", Category: "other"})
	require.Error(t, err)
	assert.True(t, errs.IsAlreadyExists(err))

	// different case is a different name
	_, err = svc.Create(ctx, CreateInput{Name: "prospect_read", DisplayName: "Lower", Category: "prospect"})
	assert.NoError(t, err)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	tests := []struct {
		name      string
		input     CreateInput
		wantField string
	}{
		{"missing name", CreateInput{DisplayName: "d", Category: "c"}, "name"},
		{"name with spaces", CreateInput{Name: "PROSPECT READ", DisplayName: "d", Category: "c"}, "name"},
		{"name starting with digit", CreateInput{Name: "1PROSPECT", DisplayName: "d", Category: "c"}, "name"},
		{"name too long", CreateInput{Name: strings.Repeat("A", 101), DisplayName: "d", Category: "c"}, "name"},
		{"missing display name", CreateInput{Name: "A", Category: "c"}, "display_name"},
		{"missing category", CreateInput{Name: "A", DisplayName: "d"}, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			require.Error(t, err)

			var validationErr *errs.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.wantField, validationErr.Field)
		})
	}
}

func TestService_ConcurrentCreateSameName(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	const workers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, duplicates := 0, 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, prospectRead())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errs.IsAlreadyExists(err):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicates)
}

func TestService_GetAndGetByName(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	created, err := svc.Create(ctx, prospectRead())
	require.NoError(t, err)

	byID, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, byID.Name)

	byName, err := svc.GetByName(ctx, "PROSPECT_READ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
	_, err = svc.GetByName(ctx, "MISSING")
	assert.True(t, errs.IsNotFound(err))
}

func TestService_SystemPermissionProtection(t *testing.T) {
	ctx := context.Background()
	svc, clock := setupService(t)

	p, err := svc.Create(ctx, prospectRead())
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(ctx, p.ID, Patch{IsActive: &inactive})
	var modErr *errs.SystemPermissionModificationError
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "deactivation", modErr.Operation)
	assert.Equal(t, p.ID, modErr.PermissionID)

	err = svc.Delete(ctx, p.ID)
	require.ErrorAs(t, err, &modErr)
	assert.Equal(t, "deletion", modErr.Operation)

	clock.Advance(time.Minute)
	display := "Read all prospects"
	updated, err := svc.Update(ctx, p.ID, Patch{DisplayName: &display})
	require.NoError(t, err)
	assert.Equal(t, display, updated.DisplayName)
	assert.True(t, updated.IsActive)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	stored, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, display, stored.DisplayName)
}

func TestService_UpdateAndDeleteCustom(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	p, err := svc.Create(ctx, CreateInput{Name: "CAMPAIGN_SEND", DisplayName: "Send campaigns", Category: "notification"})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, p.ID, Patch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	empty := "   "
	_, err = svc.Update(ctx, p.ID, Patch{DisplayName: &empty})
	assert.True(t, errs.IsValidation(err))

	_, err = svc.Update(ctx, "missing", Patch{IsActive: &inactive})
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, svc.Delete(ctx, p.ID))
	_, err = svc.Get(ctx, p.ID)
	assert.True(t, errs.IsNotFound(err))

	assert.True(t, errs.IsNotFound(svc.Delete(ctx, p.ID)))
}

func TestService_ListPagination(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	for i := 0; i < 25; i++ {
		_, err := svc.Create(ctx, CreateInput{
			Name:        fmt.Sprintf("PERM_%02d", i),
			DisplayName: fmt.Sprintf("Permission %02d", i),
			Category:    "test",
		})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 5)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalItems)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 10, page.ItemsPerPage)
	assert.False(t, page.HasNextPage)
	assert.True(t, page.HasPrevPage)
	assert.Equal(t, "PERM_20", page.Items[0].Name)

	first, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, first.Items, 10)
	assert.Equal(t, 1, first.CurrentPage)
	assert.True(t, first.HasNextPage)
	assert.False(t, first.HasPrevPage)

	desc, err := svc.List(ctx, ListQuery{Page: 1, Limit: 1, SortBy: SortByName, SortOrder: SortDesc})
	require.NoError(t, err)
	assert.Equal(t, "PERM_24", desc.Items[0].Name)

	clamped, err := svc.List(ctx, ListQuery{Page: 1, Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, clamped.ItemsPerPage)
	assert.Len(t, clamped.Items, 25)
}

func TestService_PageSizeOption(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t, WithPageSizes(2, 3))

	for _, name := range []string{"A", "B", "C", "D"} {
		_, err := svc.Create(ctx, CreateInput{Name: name, DisplayName: name, Category: "x"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.ItemsPerPage)
	assert.Equal(t, 2, page.TotalPages)

	page, err = svc.List(ctx, ListQuery{Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 3, page.ItemsPerPage)
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)

	_, err := svc.Create(ctx, prospectRead())
	require.NoError(t, err)
	custom, err := svc.Create(ctx, CreateInput{Name: "CUSTOM", DisplayName: "Custom", Category: "x"})
	require.NoError(t, err)
	inactive := false
	_, err = svc.Update(ctx, custom.ID, Patch{IsActive: &inactive})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 2, Active: 1, Inactive: 1, System: 1, Custom: 1}, stats)
}

type failingRepository struct {
	Repository
	err error
}

func (r *failingRepository) FindByID(ctx context.Context, id string) (*Permission, error) {
	return nil, r.err
}

func (r *failingRepository) Create(ctx context.Context, p *Permission) error {
	return r.err
}

func TestService_PropagatesStorageErrors(t *testing.T) {
	ctx := context.Background()
	storageErr := errs.Storage("find", errors.New("connection refused"))
	svc := NewService(&failingRepository{Repository: NewMemoryRepository(), err: storageErr})

	_, err := svc.Get(ctx, "any")
	assert.True(t, errs.IsStorageUnavailable(err))

	inactive := false
	_, err = svc.Update(ctx, "any", Patch{IsActive: &inactive})
	assert.True(t, errs.IsStorageUnavailable(err))

	assert.True(t, errs.IsStorageUnavailable(svc.Delete(ctx, "any")))

	_, err = svc.Create(ctx, prospectRead())
	assert.True(t, errs.IsStorageUnavailable(err))
}

func TestService_Metrics(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	svc, _ := setupService(t, WithMetrics(metrics), WithIDGenerator(func() string { return "fixed-id" }))

	p, err := svc.Create(ctx, prospectRead())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", p.ID)

	_, err = svc.Get(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogOperationsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogOperationsTotal.WithLabelValues("get", "not_found")))
}
