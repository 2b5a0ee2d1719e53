// Package social provides the user directory behind the login and feed demo:
// credential checks and per-user post feeds, backed by SQLite.
package social

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/chartline/internal/models"
)

var defaultDSNSeq atomic.Uint64

// defaultDSN names a fresh in-memory database, private to one directory.
func defaultDSN() string {
	return fmt.Sprintf("file:chartline-social-%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", defaultDSNSeq.Add(1))
}

var (
	// ErrInvalidCredentials is returned by Login when the username is unknown
	// or the password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnknownUser is returned by FetchFeed for a username with no account.
	ErrUnknownUser = errors.New("unknown user")
)

// Directory authenticates users and serves their feeds.
type Directory interface {
	Login(ctx context.Context, username, password string) (models.User, error)
	FetchFeed(ctx context.Context, username string) ([]models.Post, error)
}

// SQLiteDirectory implements Directory on a SQLite database.
type SQLiteDirectory struct {
	mu           sync.RWMutex
	db           *sql.DB
	cost         int
	loginLatency time.Duration
	feedLatency  time.Duration
	logger       *slog.Logger
	nowFunc      func() time.Time
}

// Option configures a SQLiteDirectory.
type Option func(*SQLiteDirectory)

// WithLatency delays Login and FetchFeed by the given durations.
func WithLatency(login, feed time.Duration) Option {
	return func(d *SQLiteDirectory) {
		d.loginLatency = login
		d.feedLatency = feed
	}
}

// WithBcryptCost sets the cost used when hashing new passwords.
func WithBcryptCost(cost int) Option {
	return func(d *SQLiteDirectory) { d.cost = cost }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *SQLiteDirectory) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewSQLiteDirectory opens dsn and initializes the schema. An empty dsn opens
// a new in-memory database that no other directory shares.
func NewSQLiteDirectory(ctx context.Context, dsn string, opts ...Option) (*SQLiteDirectory, error) {
	if dsn == "" {
		dsn = defaultDSN()
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	d := &SQLiteDirectory{
		db:      db,
		cost:    bcrypt.DefaultCost,
		logger:  slog.New(slog.DiscardHandler),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close closes the database.
func (d *SQLiteDirectory) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// AddUser creates an account and returns it with its assigned ID.
func (d *SQLiteDirectory) AddUser(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, errors.New("username is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, hash, d.nowFunc().UTC().Format(time.RFC3339))
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return models.User{ID: id, Username: username, Email: email}, nil
}

// AddPost appends a post to a user's feed.
func (d *SQLiteDirectory) AddPost(ctx context.Context, username, title, content string) (models.Post, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	userID, err := d.userID(ctx, username)
	if err != nil {
		return models.Post{}, err
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO posts (user_id, title, content, created_at) VALUES (?, ?, ?, ?)`,
		userID, title, content, d.nowFunc().UTC().Format(time.RFC3339))
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Post{}, fmt.Errorf("failed to read post id: %w", err)
	}
	return models.Post{ID: id, Title: title, Content: content}, nil
}

// Seed installs the demo account "john" (password "password") with three posts.
// Seeding an already seeded directory is a no-op.
func (d *SQLiteDirectory) Seed(ctx context.Context) error {
	d.mu.RLock()
	_, err := d.userID(ctx, "john")
	d.mu.RUnlock()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnknownUser) {
		return err
	}

	if _, err := d.AddUser(ctx, "john", "john@example.com", "password"); err != nil {
		return err
	}
	for i := 1; i <= 3; i++ {
		if _, err := d.AddPost(ctx, "john", fmt.Sprintf("Post %d", i), fmt.Sprintf("Content %d", i)); err != nil {
			return err
		}
	}
	d.logger.Debug("social directory seeded", "user", "john", "posts", 3)
	return nil
}

// Login checks username and password. Both an unknown username and a wrong
// password fail with ErrInvalidCredentials.
func (d *SQLiteDirectory) Login(ctx context.Context, username, password string) (models.User, error) {
	if err := wait(ctx, d.loginLatency); err != nil {
		return models.User{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		u    models.User
		hash []byte
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		d.logger.Debug("login rejected", "username", username, "reason", "unknown user")
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		d.logger.Debug("login rejected", "username", username, "reason", "password mismatch")
		return models.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// FetchFeed returns the user's posts in insertion order. A known user with no
// posts gets an empty, non-nil slice.
func (d *SQLiteDirectory) FetchFeed(ctx context.Context, username string) ([]models.Post, error) {
	if err := wait(ctx, d.feedLatency); err != nil {
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	userID, err := d.userID(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT id, title, content FROM posts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	return posts, nil
}

// userID looks up a user's primary key. Callers hold d.mu.
func (d *SQLiteDirectory) userID(ctx context.Context, username string) (int64, error) {
	var id int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM users WHERE username = ?`, username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownUser, username)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query user: %w", err)
	}
	return id, nil
}

// wait sleeps for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
