package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobportal/ingestion-service/internal/model"
)

// searchLimit bounds substring searches so a one-letter input cannot drag the
// whole table into memory.
const searchLimit = 50

// DB is the subset of pgxpool.Pool the stores need. pgx.Tx satisfies it too,
// so a store method can run inside or outside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TableSource is the EntitySource over one canonical taxonomy table with an
// id and name column.
type TableSource struct {
	db    DB
	kind  model.EntityType
	table string
}

func NewCompanySource(db DB) *TableSource {
	return &TableSource{db: db, kind: model.EntityCompany, table: "companies"}
}

func NewDesignationSource(db DB) *TableSource {
	return &TableSource{db: db, kind: model.EntityDesignation, table: "designations"}
}

func NewCitySource(db DB) *TableSource {
	return &TableSource{db: db, kind: model.EntityCity, table: "cities"}
}

func NewCountrySource(db DB) *TableSource {
	return &TableSource{db: db, kind: model.EntityCountry, table: "countries"}
}

func (s *TableSource) Kind() model.EntityType { return s.kind }

func (s *TableSource) FindExact(ctx context.Context, name string) (*model.Entity, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE LOWER(name) = LOWER($1) LIMIT 1`, s.table)
	return scanOne(s.db.QueryRow(ctx, query, name))
}

func (s *TableSource) Search(ctx context.Context, name string) ([]model.Entity, error) {
	query := fmt.Sprintf(
		`SELECT id, name FROM %s WHERE name ILIKE '%%' || $1 || '%%' ORDER BY name LIMIT %d`,
		s.table, searchLimit)
	rows, err := s.db.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.table, err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (s *TableSource) ListAll(ctx context.Context) ([]model.Entity, error) {
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name`, s.table)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// SkillSource is the EntitySource over the skills table. Unlike the other
// four it may create rows for unknown names and it tracks a usage count as a
// frequency signal for curation.
type SkillSource struct {
	db DB
}

func NewSkillSource(db DB) *SkillSource { return &SkillSource{db: db} }

func (s *SkillSource) Kind() model.EntityType { return model.EntitySkill }

func (s *SkillSource) FindExact(ctx context.Context, name string) (*model.Entity, error) {
	return scanOne(s.db.QueryRow(ctx,
		`SELECT id, name FROM skills WHERE LOWER(name) = LOWER($1) AND enabled LIMIT 1`, name))
}

func (s *SkillSource) Search(ctx context.Context, name string) ([]model.Entity, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name FROM skills WHERE name ILIKE '%' || $1 || '%' AND enabled ORDER BY name LIMIT $2`,
		name, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search skills: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// Create inserts a new enabled skill with a usage count of one.
func (s *SkillSource) Create(ctx context.Context, name string) (*model.Entity, error) {
	var ent model.Entity
	err := s.db.QueryRow(ctx,
		`INSERT INTO skills (name, enabled, usage_count) VALUES ($1, TRUE, 1) RETURNING id, name`,
		name).Scan(&ent.ID, &ent.Name)
	if err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return &ent, nil
}

// Touch bumps the usage count of a matched skill.
func (s *SkillSource) Touch(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `UPDATE skills SET usage_count = usage_count + 1 WHERE id = $1`, id)
	return err
}

func scanOne(row pgx.Row) (*model.Entity, error) {
	var ent model.Entity
	if err := row.Scan(&ent.ID, &ent.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ent, nil
}

func scanAll(rows pgx.Rows) ([]model.Entity, error) {
	var out []model.Entity
	for rows.Next() {
		var ent model.Entity
		if err := rows.Scan(&ent.ID, &ent.Name); err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, rows.Err()
}
