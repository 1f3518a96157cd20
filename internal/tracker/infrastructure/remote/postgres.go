package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

const schemaTasks = `CREATE TABLE IF NOT EXISTS tasks (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	importance INTEGER NOT NULL DEFAULT 2,
	permanent  BOOLEAN NOT NULL DEFAULT FALSE,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	completed  BOOLEAN NOT NULL DEFAULT FALSE,
	abandoned  BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_dates ON tasks (user_id, start_date, end_date)`

const taskColumns = `id, title, content, importance, permanent, start_date, end_date, completed, abandoned, created_at, updated_at`

// PostgresStore implements Store over a Postgres tasks table. Documents are
// scoped per user; ids are server-minted UUIDs.
type PostgresStore struct {
	pool   *pgxpool.Pool
	userID string
}

// NewPostgresStore connects to databaseURL and bootstraps the schema.
func NewPostgresStore(ctx context.Context, databaseURL, userID string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaTasks); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure tasks schema: %w", err)
	}
	return &PostgresStore{pool: pool, userID: userID}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) List(ctx context.Context) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`,
		s.userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *PostgresStore) Query(ctx context.Context, q Query) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1
		   AND ((permanent AND start_date <= $2)
		     OR (NOT permanent AND start_date <= $2 AND end_date >= $3))
		 ORDER BY created_at DESC`,
		s.userID, string(q.StartOnOrBefore), string(q.EndOnOrAfter))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTasks(rows)
}

func (s *PostgresStore) Get(ctx context.Context, id task.ID) (*task.Task, error) {
	if id.IsLocal() {
		return nil, ErrLocalID
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 AND id = $2`,
		s.userID, id.String())
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) Create(ctx context.Context, t task.Task) (task.ID, error) {
	assigned := uuid.NewString()
	now := time.Now().UTC()
	created := t.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, content, importance, permanent,
		                    start_date, end_date, completed, abandoned, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		assigned, s.userID, t.Title, t.Content, t.Importance, t.Permanent,
		string(t.StartDate), string(t.EndDate), t.Completed, t.Abandoned, created, now)
	if err != nil {
		return task.ID{}, err
	}
	return task.RemoteID(assigned), nil
}

func (s *PostgresStore) Update(ctx context.Context, id task.ID, patch task.Patch) error {
	if id.IsLocal() {
		return ErrLocalID
	}

	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Importance != nil {
		add("importance", *patch.Importance)
	}
	if patch.Permanent != nil {
		add("permanent", *patch.Permanent)
	}
	if patch.StartDate != nil {
		add("start_date", string(*patch.StartDate))
	}
	if patch.EndDate != nil {
		add("end_date", string(*patch.EndDate))
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}
	if patch.Abandoned != nil {
		add("abandoned", *patch.Abandoned)
	}

	args = append(args, s.userID, id.String())
	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE user_id = $%d AND id = $%d`,
		strings.Join(sets, ", "), len(args)-1, len(args))

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id task.ID) error {
	if id.IsLocal() {
		return ErrLocalID
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND id = $2`, s.userID, id.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTasks(rows pgx.Rows) ([]task.Task, error) {
	var tasks []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t          task.Task
		id         string
		start, end string
	)
	err := row.Scan(&id, &t.Title, &t.Content, &t.Importance, &t.Permanent,
		&start, &end, &t.Completed, &t.Abandoned, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return task.Task{}, err
	}
	t.ID = task.RemoteID(id)
	t.StartDate = datekey.Key(start)
	t.EndDate = datekey.Key(end)
	return t, nil
}
