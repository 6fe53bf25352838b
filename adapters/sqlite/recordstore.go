package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/artpar/blogapi/domain/blog"
	"github.com/artpar/blogapi/ports"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = ports.ErrNotFound

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// RecordStore implements ports.RecordStore using SQLite. Queries are built
// from the schema; table and column names never come from callers.
type RecordStore struct {
	db     *DB
	schema blog.Schema
}

// NewRecordStore creates a SQLite record store.
func NewRecordStore(db *DB, schema blog.Schema) *RecordStore {
	return &RecordStore{db: db, schema: schema}
}

// Schema returns the store's schema.
func (s *RecordStore) Schema() blog.Schema {
	return s.schema
}

// Get returns one row.
func (s *RecordStore) Get(ctx context.Context, resource string, id int64) (blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return blog.Row{}, err
	}
	rows, err := s.query(ctx, res, selectFrom(res, "t")+` WHERE t.id = ?`, id)
	if err != nil {
		return blog.Row{}, err
	}
	if len(rows) == 0 {
		return blog.Row{}, ErrNotFound
	}
	return rows[0], nil
}

// List returns every row ordered by id.
func (s *RecordStore) List(ctx context.Context, resource string) ([]blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, res, selectFrom(res, "t")+` ORDER BY t.id`)
}

// Related resolves a relation of the row (resource, id).
func (s *RecordStore) Related(ctx context.Context, resource string, id int64, relation string) ([]blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return nil, err
	}
	rel, ok := res.Relation(relation)
	if !ok {
		return nil, fmt.Errorf("%s: unknown relation %q", res.Name, relation)
	}
	target, err := s.resource(rel.Target)
	if err != nil {
		return nil, err
	}

	owner, err := s.Get(ctx, res.Name, id)
	if err != nil {
		return nil, err
	}

	base := selectFrom(target, "t")
	switch rel.Kind {
	case blog.BelongsTo:
		fk, ok := owner.Int(rel.ForeignKey)
		if !ok {
			return []blog.Row{}, nil
		}
		return s.query(ctx, target, base+` WHERE t.id = ?`, fk)

	case blog.HasOne:
		return s.query(ctx, target, base+fmt.Sprintf(` WHERE t.%s = ? ORDER BY t.id LIMIT 1`,
			quote(blog.ColumnName(rel.ForeignKey))), id)

	case blog.HasMany:
		return s.query(ctx, target, base+fmt.Sprintf(` WHERE t.%s = ? ORDER BY t.id`,
			quote(blog.ColumnName(rel.ForeignKey))), id)

	case blog.ManyToMany:
		through, err := s.resource(rel.Through)
		if err != nil {
			return nil, err
		}
		return s.query(ctx, target, base+fmt.Sprintf(` JOIN %s j ON j.%s = t.id WHERE j.%s = ? ORDER BY j.id`,
			quote(through.Table),
			quote(blog.ColumnName(rel.TargetKey)),
			quote(blog.ColumnName(rel.ForeignKey))), id)
	}
	return nil, fmt.Errorf("%s.%s: unsupported relation kind %q", res.Name, rel.Name, rel.Kind)
}

// Create inserts a row. A positive "id" field is used as the primary key.
func (s *RecordStore) Create(ctx context.Context, resource string, fields map[string]any) (blog.Row, error) {
	res, err := s.resource(resource)
	if err != nil {
		return blog.Row{}, err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		cols []string
		args []any
	)
	for _, name := range names {
		v := fields[name]
		if name == "id" {
			if id, ok := blog.Normalize(blog.KindInt, v).(int64); ok && id > 0 {
				cols = append(cols, "id")
				args = append(args, id)
			}
			continue
		}
		col, ok := res.Column(name)
		if !ok {
			return blog.Row{}, fmt.Errorf("%s: unknown field %q", res.Name, name)
		}
		cols = append(cols, quote(blog.ColumnName(name)))
		args = append(args, toSQL(col.Kind, v))
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf(`INSERT INTO %s DEFAULT VALUES`, quote(res.Table))
	} else {
		stmt = fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
			quote(res.Table), strings.Join(cols, ", "), placeholders(len(cols)))
	}

	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return blog.Row{}, ErrDuplicate
		}
		return blog.Row{}, fmt.Errorf("insert %s: %w", res.Name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return blog.Row{}, fmt.Errorf("insert %s: %w", res.Name, err)
	}
	return s.Get(ctx, res.Name, id)
}

func (s *RecordStore) resource(name string) (blog.Resource, error) {
	res, ok := s.schema.Resource(name)
	if !ok {
		return blog.Resource{}, fmt.Errorf("unknown resource %q", name)
	}
	return res, nil
}

func (s *RecordStore) query(ctx context.Context, res blog.Resource, query string, args ...any) ([]blog.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Name, err)
	}
	defer rows.Close()

	out := []blog.Row{}
	for rows.Next() {
		row, err := scanRow(rows, res)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", res.Name, err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows, res blog.Resource) (blog.Row, error) {
	var id int64
	values := make([]any, len(res.Columns))
	dest := make([]any, len(res.Columns)+1)
	dest[0] = &id
	for i := range values {
		dest[i+1] = &values[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return blog.Row{}, fmt.Errorf("scan %s: %w", res.Name, err)
	}

	row := blog.Row{Type: res.Name, ID: id, Fields: make(map[string]any, len(res.Columns))}
	for i, col := range res.Columns {
		row.Fields[col.Name] = blog.Normalize(col.Kind, values[i])
	}
	return row, nil
}

func selectFrom(res blog.Resource, alias string) string {
	cols := make([]string, 0, len(res.Columns)+1)
	cols = append(cols, alias+".id")
	for _, c := range res.Columns {
		cols = append(cols, alias+"."+quote(blog.ColumnName(c.Name)))
	}
	return fmt.Sprintf(`SELECT %s FROM %s %s`, strings.Join(cols, ", "), quote(res.Table), alias)
}

// toSQL converts a field value for storage. Times are stored as RFC 3339
// text in UTC.
func toSQL(kind blog.Kind, v any) any {
	v = blog.Normalize(kind, v)
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return v
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.RecordStore = (*RecordStore)(nil)
