package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"muscledynamics/workout-planner/internal/domain"
	"muscledynamics/workout-planner/internal/repository"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// schema is applied by EnsureSchema. Ids are ObjectID hex strings so records
// keep the same identity whichever backend serves them.
const schema = `
CREATE TABLE IF NOT EXISTS exercises (
	id                CHAR(24) PRIMARY KEY,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	primary_muscles   TEXT[] NOT NULL,
	secondary_muscles TEXT[] NOT NULL DEFAULT '{}',
	equipment         TEXT NOT NULL,
	category          TEXT NOT NULL DEFAULT '',
	difficulty        TEXT NOT NULL DEFAULT '',
	force             TEXT NOT NULL DEFAULT '',
	mechanic          TEXT NOT NULL DEFAULT '',
	instructions      TEXT[] NOT NULL,
	images            TEXT[] NOT NULL DEFAULT '{}',
	aliases           TEXT[] NOT NULL DEFAULT '{}',
	reps              TEXT NOT NULL DEFAULT '',
	sets              TEXT NOT NULL DEFAULT '',
	rest_seconds      INTEGER NOT NULL DEFAULT 0,
	rating            DOUBLE PRECISION NOT NULL DEFAULT 0,
	usage_count       BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS exercises_primary_muscles_idx ON exercises USING GIN (primary_muscles);
CREATE INDEX IF NOT EXISTS exercises_secondary_muscles_idx ON exercises USING GIN (secondary_muscles);
DROP INDEX IF EXISTS exercises_rank_idx;
CREATE INDEX IF NOT EXISTS exercises_rank_c_idx ON exercises (rating DESC, lower(name) COLLATE "C", id);
`

// rankOrder is the result order. Names compare byte-wise after lower-casing so
// the order does not depend on the database locale.
const rankOrder = `rating DESC, lower(name) COLLATE "C" ASC, id ASC`

const selectColumns = `id, name, description, primary_muscles, secondary_muscles, equipment,
	category, difficulty, force, mechanic, instructions, images, aliases,
	reps, sets, rest_seconds, rating, usage_count, created_at, updated_at`

// ExerciseRepository serves the catalog from PostgreSQL.
type ExerciseRepository struct {
	db *sql.DB
}

// NewExerciseRepository wraps an open database handle.
func NewExerciseRepository(db *sql.DB) *ExerciseRepository {
	return &ExerciseRepository{db: db}
}

var _ repository.ExerciseRepository = (*ExerciseRepository)(nil)

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the exercises table and its indexes if missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// BuildWhere renders the filter as a WHERE clause with positional arguments.
func BuildWhere(criteria domain.SelectionCriteria) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if len(criteria.Muscles) > 0 {
		args = append(args, pq.Array(criteria.Muscles))
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(primary_muscles && $%d OR secondary_muscles && $%d)", n, n))
	}
	if len(criteria.Equipment) > 0 {
		tags := make([]string, len(criteria.Equipment))
		for i, e := range criteria.Equipment {
			tags[i] = string(e)
		}
		args = append(args, pq.Array(tags))
		clauses = append(clauses, fmt.Sprintf("equipment = ANY($%d)", len(args)))
	}
	if criteria.Difficulty != "" {
		args = append(args, string(criteria.Difficulty))
		clauses = append(clauses, fmt.Sprintf("difficulty = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ExerciseRepository) Find(ctx context.Context, criteria domain.SelectionCriteria, page domain.Pagination) ([]domain.Exercise, int64, error) {
	where, args := BuildWhere(criteria)

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM exercises%s ORDER BY %s LIMIT $%d OFFSET $%d",
		selectColumns, where, rankOrder, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exercises := []domain.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, 0, err
		}
		exercises = append(exercises, *e)
	}
	return exercises, total, rows.Err()
}

func (r *ExerciseRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Exercise, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM exercises WHERE id = $1", id.Hex())
	e, err := scanExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *ExerciseRepository) DistinctMuscles(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `
		SELECT m FROM (
			SELECT unnest(primary_muscles) AS m FROM exercises
			UNION
			SELECT unnest(secondary_muscles) FROM exercises
		) t WHERE m <> '' ORDER BY m COLLATE "C"`)
}

func (r *ExerciseRepository) DistinctEquipment(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, `SELECT DISTINCT equipment FROM exercises WHERE equipment <> '' ORDER BY equipment COLLATE "C"`)
}

func (r *ExerciseRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&n)
	return n, err
}

// InsertMany stores all records in one transaction.
func (r *ExerciseRepository) InsertMany(ctx context.Context, exercises []domain.Exercise) (int, error) {
	if len(exercises) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exercises (id, name, description, primary_muscles, secondary_muscles, equipment,
			category, difficulty, force, mechanic, instructions, images, aliases,
			reps, sets, rest_seconds, rating, usage_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range exercises {
		e := &exercises[i]
		if e.ID.IsZero() {
			e.ID = primitive.NewObjectID()
		}
		e.CreatedAt, e.UpdatedAt = now, now
		_, err := stmt.ExecContext(ctx,
			e.ID.Hex(), e.Name, e.Description,
			pq.Array(e.PrimaryMuscles), pq.Array(nonNil(e.SecondaryMuscles)), string(e.Equipment),
			string(e.Category), string(e.Difficulty), e.Force, e.Mechanic,
			pq.Array(e.Instructions), pq.Array(nonNil(e.Images)), pq.Array(nonNil(e.Aliases)),
			e.Reps, e.Sets, e.RestSeconds, e.Rating, e.UsageCount, e.CreatedAt, e.UpdatedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(exercises), nil
}

func (r *ExerciseRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *ExerciseRepository) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanExercise(s scanner) (*domain.Exercise, error) {
	var (
		e                               domain.Exercise
		id, equipment, category, diff   string
		primary, secondary, steps, imgs pq.StringArray
		aliases                         pq.StringArray
	)
	err := s.Scan(&id, &e.Name, &e.Description, &primary, &secondary, &equipment,
		&category, &diff, &e.Force, &e.Mechanic, &steps, &imgs, &aliases,
		&e.Reps, &e.Sets, &e.RestSeconds, &e.Rating, &e.UsageCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ID, err = primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("bad exercise id %q: %w", id, err)
	}
	e.PrimaryMuscles = []string(primary)
	e.SecondaryMuscles = []string(secondary)
	e.Instructions = []string(steps)
	e.Images = []string(imgs)
	e.Aliases = []string(aliases)
	e.Equipment = domain.Equipment(equipment)
	e.Category = domain.Category(category)
	e.Difficulty = domain.Difficulty(diff)
	return &e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
