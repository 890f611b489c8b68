package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studyhub/internal/platform/clock"
	apperrors "studyhub/internal/platform/errors"
	"studyhub/internal/platform/id"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in UTC, so range filters can compare strings.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

type User struct {
	ID           string `json:"_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}

type Topic struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Section struct {
	ID     string  `json:"_id"`
	Name   string  `json:"name"`
	Topics []Topic `json:"topics"`
}

type Subject struct {
	ID       string    `json:"_id"`
	UserID   string    `json:"userId"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Sections []Section `json:"sections"`
}

type GoalTopic struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Goal struct {
	ID        string      `json:"_id"`
	UserID    string      `json:"userId"`
	Subject   string      `json:"subject"`
	Color     string      `json:"color"`
	WeekStart time.Time   `json:"weekStart"`
	WeekEnd   time.Time   `json:"weekEnd"`
	Topics    []GoalTopic `json:"topics"`
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists the reference API's users, tokens, subjects and goals.
type Store struct {
	db    *sql.DB
	ids   id.Generator
	clock clock.Clock
}

func OpenStore(ctx context.Context, dbPath string, ids id.Generator, clk clock.Clock) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps SQLite writers from tripping over each other.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, ids: ids, clock: clk}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
  token TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subjects (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  name TEXT NOT NULL,
  color TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subjects_user ON subjects(user_id);
CREATE TABLE IF NOT EXISTS sections (
  id TEXT PRIMARY KEY,
  subject_id TEXT NOT NULL,
  name TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sections_subject ON sections(subject_id);
CREATE TABLE IF NOT EXISTS topics (
  id TEXT PRIMARY KEY,
  section_id TEXT NOT NULL,
  name TEXT NOT NULL,
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_topics_section ON topics(section_id);
CREATE TABLE IF NOT EXISTS weekly_goals (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  subject TEXT NOT NULL,
  color TEXT NOT NULL,
  week_start TEXT NOT NULL,
  week_end TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_goals_user_week ON weekly_goals(user_id, week_start);
CREATE TABLE IF NOT EXISTS goal_topics (
  id TEXT PRIMARY KEY,
  goal_id TEXT NOT NULL,
  title TEXT NOT NULL,
  completed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_goal_topics_goal ON goal_topics(goal_id);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// ─── users and tokens ───

func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (User, error) {
	u := User{ID: s.ids.New(), Name: name, Email: strings.ToLower(email), PasswordHash: passwordHash}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(email) DO NOTHING;
`, u.ID, u.Name, u.Email, u.PasswordHash, s.now())
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	stored, err := s.UserByEmail(ctx, u.Email)
	if err != nil {
		return User{}, err
	}
	if stored.ID != u.ID {
		return User{}, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	}
	return stored, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	u := User{}
	err := s.db.QueryRowContext(ctx, `SELECT id, name, email, password_hash FROM users WHERE email = ?;`, strings.ToLower(email)).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, apperrors.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *Store) SaveToken(ctx context.Context, token, userID string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO tokens (token, user_id, created_at) VALUES (?, ?, ?);`, token, userID, s.now()); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (s *Store) UserIDForToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM tokens WHERE token = ?;`, token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return userID, nil
}

// ─── subjects ───

func (s *Store) ListSubjects(ctx context.Context, userID string) ([]Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM subjects WHERE user_id = ? ORDER BY rowid;`, userID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	out := make([]Subject, 0, len(ids))
	for _, subjectID := range ids {
		subject, err := s.loadSubject(ctx, s.db, subjectID)
		if err != nil {
			return nil, err
		}
		out = append(out, subject)
	}
	return out, nil
}

func (s *Store) Subject(ctx context.Context, subjectID string) (Subject, error) {
	return s.loadSubject(ctx, s.db, subjectID)
}

func (s *Store) CreateSubject(ctx context.Context, userID, name, color string) (Subject, error) {
	subjectID := s.ids.New()
	if _, err := s.db.ExecContext(ctx, `INSERT INTO subjects (id, user_id, name, color) VALUES (?, ?, ?, ?);`, subjectID, userID, name, color); err != nil {
		return Subject{}, fmt.Errorf("insert subject: %w", err)
	}
	return s.loadSubject(ctx, s.db, subjectID)
}

func (s *Store) DeleteSubject(ctx context.Context, subjectID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(tx.ExecContext(ctx, `DELETE FROM subjects WHERE id = ?;`, subjectID)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE section_id IN (SELECT id FROM sections WHERE subject_id = ?);`, subjectID); err != nil {
			return fmt.Errorf("delete subject topics: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE subject_id = ?;`, subjectID); err != nil {
			return fmt.Errorf("delete subject sections: %w", err)
		}
		return nil
	})
}

func (s *Store) SetSubjectColor(ctx context.Context, subjectID, color string) (Subject, error) {
	if err := requireRow(s.db.ExecContext(ctx, `UPDATE subjects SET color = ? WHERE id = ?;`, color, subjectID)); err != nil {
		return Subject{}, err
	}
	return s.loadSubject(ctx, s.db, subjectID)
}

func (s *Store) AddSection(ctx context.Context, subjectID, name string) (Subject, error) {
	return s.editSubject(ctx, subjectID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO sections (id, subject_id, name) VALUES (?, ?, ?);`, s.ids.New(), subjectID, name)
		return err
	})
}

func (s *Store) DeleteSection(ctx context.Context, subjectID, sectionID string) (Subject, error) {
	return s.editSubject(ctx, subjectID, func(tx *sql.Tx) error {
		if err := requireRow(tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ? AND subject_id = ?;`, sectionID, subjectID)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE section_id = ?;`, sectionID)
		return err
	})
}

func (s *Store) AddTopic(ctx context.Context, subjectID, sectionID, name string) (Subject, error) {
	return s.editSubject(ctx, subjectID, func(tx *sql.Tx) error {
		if err := s.requireSection(ctx, tx, subjectID, sectionID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO topics (id, section_id, name, created_at) VALUES (?, ?, ?, ?);`, s.ids.New(), sectionID, name, s.now())
		return err
	})
}

// DeleteTopic never removes the section, even when it empties it.
func (s *Store) DeleteTopic(ctx context.Context, subjectID, sectionID, topicID string) (Subject, error) {
	return s.editSubject(ctx, subjectID, func(tx *sql.Tx) error {
		if err := s.requireSection(ctx, tx, subjectID, sectionID); err != nil {
			return err
		}
		return requireRow(tx.ExecContext(ctx, `DELETE FROM topics WHERE id = ? AND section_id = ?;`, topicID, sectionID))
	})
}

func (s *Store) editSubject(ctx context.Context, subjectID string, fn func(*sql.Tx) error) (Subject, error) {
	var out Subject
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.loadSubject(ctx, tx, subjectID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		subject, err := s.loadSubject(ctx, tx, subjectID)
		out = subject
		return err
	})
	return out, err
}

func (s *Store) requireSection(ctx context.Context, q querier, subjectID, sectionID string) error {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM sections WHERE id = ? AND subject_id = ?;`, sectionID, subjectID).Scan(&n); err != nil {
		return fmt.Errorf("load section: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: section %s", apperrors.ErrNotFound, sectionID)
	}
	return nil
}

func (s *Store) loadSubject(ctx context.Context, q querier, subjectID string) (Subject, error) {
	subject := Subject{Sections: []Section{}}
	err := q.QueryRowContext(ctx, `SELECT id, user_id, name, color FROM subjects WHERE id = ?;`, subjectID).
		Scan(&subject.ID, &subject.UserID, &subject.Name, &subject.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return Subject{}, fmt.Errorf("%w: subject %s", apperrors.ErrNotFound, subjectID)
	}
	if err != nil {
		return Subject{}, fmt.Errorf("load subject: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT id, name FROM sections WHERE subject_id = ? ORDER BY rowid;`, subjectID)
	if err != nil {
		return Subject{}, fmt.Errorf("load sections: %w", err)
	}
	index := map[string]int{}
	for rows.Next() {
		sec := Section{Topics: []Topic{}}
		if err := rows.Scan(&sec.ID, &sec.Name); err != nil {
			rows.Close()
			return Subject{}, fmt.Errorf("scan section: %w", err)
		}
		index[sec.ID] = len(subject.Sections)
		subject.Sections = append(subject.Sections, sec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Subject{}, fmt.Errorf("load sections: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
SELECT t.id, t.section_id, t.name, t.notes, t.created_at
FROM topics t JOIN sections s ON s.id = t.section_id
WHERE s.subject_id = ?
ORDER BY t.rowid;
`, subjectID)
	if err != nil {
		return Subject{}, fmt.Errorf("load topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t Topic
		var sectionID, created string
		if err := rows.Scan(&t.ID, &sectionID, &t.Name, &t.Notes, &created); err != nil {
			return Subject{}, fmt.Errorf("scan topic: %w", err)
		}
		t.CreatedAt = parseTime(created)
		if i, ok := index[sectionID]; ok {
			subject.Sections[i].Topics = append(subject.Sections[i].Topics, t)
		}
	}
	if err := rows.Err(); err != nil {
		return Subject{}, fmt.Errorf("load topics: %w", err)
	}
	return subject, nil
}

// ─── weekly goals ───

// ListGoals returns the user's goals, restricted to week starts inside
// [from, to] when both are set.
func (s *Store) ListGoals(ctx context.Context, userID string, from, to time.Time) ([]Goal, error) {
	query := `SELECT id FROM weekly_goals WHERE user_id = ?`
	args := []any{userID}
	if !from.IsZero() && !to.IsZero() {
		query += ` AND week_start >= ? AND week_start <= ?`
		args = append(args, formatTime(from), formatTime(to))
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY week_start, rowid;`, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	ids, err := scanIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]Goal, 0, len(ids))
	for _, goalID := range ids {
		g, err := s.loadGoal(ctx, s.db, goalID)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Store) Goal(ctx context.Context, goalID string) (Goal, error) {
	return s.loadGoal(ctx, s.db, goalID)
}

func (s *Store) CreateGoal(ctx context.Context, g Goal) (Goal, error) {
	goalID := s.ids.New()
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO weekly_goals (id, user_id, subject, color, week_start, week_end)
VALUES (?, ?, ?, ?, ?, ?);
`, goalID, g.UserID, g.Subject, g.Color, formatTime(g.WeekStart), formatTime(g.WeekEnd)); err != nil {
			return fmt.Errorf("insert goal: %w", err)
		}
		for _, t := range g.Topics {
			if _, err := tx.ExecContext(ctx, `INSERT INTO goal_topics (id, goal_id, title, completed) VALUES (?, ?, ?, ?);`, s.ids.New(), goalID, t.Title, t.Completed); err != nil {
				return fmt.Errorf("insert goal topic: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Goal{}, err
	}
	return s.loadGoal(ctx, s.db, goalID)
}

func (s *Store) UpdateGoal(ctx context.Context, goalID, subject, color string) (Goal, error) {
	return s.editGoal(ctx, goalID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE weekly_goals SET subject = ?, color = COALESCE(NULLIF(?, ''), color) WHERE id = ?;`, subject, color, goalID)
		return err
	})
}

func (s *Store) DeleteGoal(ctx context.Context, goalID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireRow(tx.ExecContext(ctx, `DELETE FROM weekly_goals WHERE id = ?;`, goalID)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM goal_topics WHERE goal_id = ?;`, goalID)
		return err
	})
}

func (s *Store) AddGoalTopic(ctx context.Context, goalID, title string) (Goal, error) {
	return s.editGoal(ctx, goalID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO goal_topics (id, goal_id, title, completed) VALUES (?, ?, ?, 0);`, s.ids.New(), goalID, title)
		return err
	})
}

func (s *Store) ToggleGoalTopic(ctx context.Context, goalID, topicID string) (Goal, error) {
	return s.editGoal(ctx, goalID, func(tx *sql.Tx) error {
		return requireRow(tx.ExecContext(ctx, `UPDATE goal_topics SET completed = 1 - completed WHERE id = ? AND goal_id = ?;`, topicID, goalID))
	})
}

func (s *Store) DeleteGoalTopic(ctx context.Context, goalID, topicID string) (Goal, error) {
	return s.editGoal(ctx, goalID, func(tx *sql.Tx) error {
		return requireRow(tx.ExecContext(ctx, `DELETE FROM goal_topics WHERE id = ? AND goal_id = ?;`, topicID, goalID))
	})
}

func (s *Store) editGoal(ctx context.Context, goalID string, fn func(*sql.Tx) error) (Goal, error) {
	var out Goal
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.loadGoal(ctx, tx, goalID); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		g, err := s.loadGoal(ctx, tx, goalID)
		out = g
		return err
	})
	return out, err
}

func (s *Store) loadGoal(ctx context.Context, q querier, goalID string) (Goal, error) {
	g := Goal{Topics: []GoalTopic{}}
	var start, end string
	err := q.QueryRowContext(ctx, `SELECT id, user_id, subject, color, week_start, week_end FROM weekly_goals WHERE id = ?;`, goalID).
		Scan(&g.ID, &g.UserID, &g.Subject, &g.Color, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return Goal{}, fmt.Errorf("%w: goal %s", apperrors.ErrNotFound, goalID)
	}
	if err != nil {
		return Goal{}, fmt.Errorf("load goal: %w", err)
	}
	g.WeekStart = parseTime(start)
	g.WeekEnd = parseTime(end)

	rows, err := q.QueryContext(ctx, `SELECT id, title, completed FROM goal_topics WHERE goal_id = ? ORDER BY rowid;`, goalID)
	if err != nil {
		return Goal{}, fmt.Errorf("load goal topics: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t GoalTopic
		if err := rows.Scan(&t.ID, &t.Title, &t.Completed); err != nil {
			return Goal{}, fmt.Errorf("scan goal topic: %w", err)
		}
		g.Topics = append(g.Topics, t)
	}
	if err := rows.Err(); err != nil {
		return Goal{}, fmt.Errorf("load goal topics: %w", err)
	}
	return g, nil
}

// ─── helpers ───

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) now() string {
	return formatTime(s.clock.Now())
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanIDs(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		ids = append(ids, v)
	}
	return ids, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
