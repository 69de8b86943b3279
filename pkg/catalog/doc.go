// Package catalog manages the catalog of named permissions that
// authorization decisions are evaluated against.
//
// # Entries
//
// A Permission has an immutable, globally unique Name (for example
// "PROSPECT_READ") used as the stable lookup key. DisplayName, Description
// and IsActive are the only mutable fields. Entries flagged as system
// permissions can never be deactivated or deleted; their display metadata
// remains editable.
//
// # Storage
//
// Repository is the storage port. Three implementations are provided:
//
//	SQLRepository     - PostgreSQL via lib/pq; uniqueness is a unique index on name
//	MemoryRepository  - mutex-guarded maps, for tests and local tooling
//	CachedRepository  - read-through LRU (+ optional Redis) decorator for lookups
//
// Name uniqueness is always enforced by the store in the same atomic step as
// the insert, never by a separate existence check.
//
// # Usage
//
//	db, err := catalog.OpenDB(ctx, catalog.DBConfig{URL: url, MaxConns: 20})
//	if err != nil {
//	    return err
//	}
//	if err := catalog.RunMigrations(ctx, db, logger); err != nil {
//	    return err
//	}
//
//	repo := catalog.NewCachedRepository(catalog.NewSQLRepository(db), catalog.CacheConfig{
//	    Size: 1024,
//	    TTL:  time.Minute,
//	})
//	svc := catalog.NewService(repo, catalog.WithLogger(logger), catalog.WithMetrics(metrics))
//
//	p, err := svc.Create(ctx, catalog.CreateInput{
//	    Name:        "PROSPECT_READ",
//	    DisplayName: "Read prospects",
//	    Category:    "prospect",
//	})
//
// Listing is 1-indexed and returns page metadata:
//
//	page, err := svc.List(ctx, catalog.ListQuery{Page: 3, Limit: 10})
//	// page.TotalPages == ceil(page.TotalItems / 10)
package catalog
