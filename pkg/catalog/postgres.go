package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/platinummonkey/bizauthz/pkg/errs"
)

const uniqueViolation = pq.ErrorCode("23505")

// nameIndex is the unique index enforcing permission name uniqueness
const nameIndex = "idx_permissions_name"

const permissionColumns = `id, name, display_name, description, category, is_system_permission, is_active, created_at, updated_at`

// sortColumns maps sort fields to SQL columns; only these are ever interpolated
var sortColumns = map[SortField]string{
	SortByName:        "name",
	SortByDisplayName: "display_name",
	SortByCategory:    "category",
	SortByCreatedAt:   "created_at",
	SortByUpdatedAt:   "updated_at",
}

// DBConfig holds database connection settings
type DBConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// OpenDB opens and pings a PostgreSQL connection pool
func OpenDB(ctx context.Context, config DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConns)
	db.SetMaxIdleConns(config.MinConns)
	db.SetConnMaxLifetime(config.MaxLifetime)
	db.SetConnMaxIdleTime(config.MaxIdleTime)

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errs.Storage("ping", err)
	}

	return db, nil
}

// SQLRepository is a PostgreSQL-backed Repository. Name uniqueness is
// enforced by the unique index created in the migrations.
type SQLRepository struct {
	db *sql.DB
}

// NewSQLRepository creates a repository on an open pool
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, p *Permission) error {
	query := `
		INSERT INTO permissions (` + permissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.DisplayName,
		p.Description,
		p.Category,
		p.IsSystemPermission,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == nameIndex {
			return &errs.AlreadyExistsError{Entity: EntityPermission, Name: p.Name}
		}
		return errs.Storage("create permission", err)
	}

	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE id = $1`
	return r.findOne(ctx, "find permission by id", query, id)
}

func (r *SQLRepository) FindByName(ctx context.Context, name string) (*Permission, error) {
	query := `SELECT ` + permissionColumns + ` FROM permissions WHERE name = $1`
	return r.findOne(ctx, "find permission by name", query, name)
}

func (r *SQLRepository) findOne(ctx context.Context, op, query string, arg string) (*Permission, error) {
	p, err := scanPermission(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	return p, nil
}

func (r *SQLRepository) Update(ctx context.Context, p *Permission) error {
	query := `
		UPDATE permissions
		SET display_name = $1, description = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		p.DisplayName,
		p.Description,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return errs.Storage("update permission", err)
	}

	return requireAffected(result, "update permission", p.ID)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return errs.Storage("delete permission", err)
	}

	return requireAffected(result, "delete permission", id)
}

func (r *SQLRepository) List(ctx context.Context, q ListQuery) ([]Permission, int, error) {
	where, args := buildWhere(q.Filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM permissions` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errs.Storage("count permissions", err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if q.SortOrder == SortDesc {
		direction = "DESC"
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM permissions%s ORDER BY %s %s, name ASC, id ASC LIMIT $%d OFFSET $%d`,
		permissionColumns, where, column, direction, len(args)+1, len(args)+2)
	listArgs := append(append([]interface{}{}, args...), q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return nil, 0, errs.Storage("list permissions", err)
	}
	defer rows.Close()

	items := make([]Permission, 0, q.Limit)
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, 0, errs.Storage("scan permission", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errs.Storage("list permissions", err)
	}

	return items, total, nil
}

func (r *SQLRepository) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active),
			COUNT(*) FILTER (WHERE is_system_permission),
			COUNT(*) FILTER (WHERE NOT is_system_permission)
		FROM permissions
	`

	var s Stats
	err := r.db.QueryRowContext(ctx, query).Scan(&s.Total, &s.Active, &s.Inactive, &s.System, &s.Custom)
	if err != nil {
		return Stats{}, errs.Storage("permission stats", err)
	}
	return s, nil
}

// buildWhere renders the filter as a WHERE clause with positional arguments
func buildWhere(f Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR display_name ILIKE $%d)", n, n))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.IsSystemPermission != nil {
		args = append(args, *f.IsSystemPermission)
		clauses = append(clauses, fmt.Sprintf("is_system_permission = $%d", len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func requireAffected(result sql.Result, op, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return errs.Storage(op, err)
	}
	if affected == 0 {
		return &errs.NotFoundError{Entity: EntityPermission, Key: id}
	}
	return nil
}

func scanPermission(scanner interface {
	Scan(dest ...interface{}) error
}) (*Permission, error) {
	var p Permission
	var description sql.NullString

	err := scanner.Scan(
		&p.ID,
		&p.Name,
		&p.DisplayName,
		&description,
		&p.Category,
		&p.IsSystemPermission,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	return &p, nil
}
