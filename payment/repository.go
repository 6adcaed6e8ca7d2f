package payment

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/alovak/cardflow-paysim/payment/models"
	"github.com/jackc/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations
var migrations embed.FS

var (
	ErrConflict    = fmt.Errorf("conflict")
	ErrRawCardData = fmt.Errorf("raw card number or cvv must not be persisted")
)

// Store persists sanitized card submissions.
type Store interface {
	CreateSubmission(ctx context.Context, card models.CardSubmission) error
}

type dialect struct {
	name string
	bind func(n int) string
}

var (
	postgresDialect = dialect{name: "postgres", bind: func(n int) string { return "$" + strconv.Itoa(n) }}
	sqliteDialect   = dialect{name: "sqlite", bind: func(int) string { return "?" }}
)

// Repository stores submissions in memory, or in Postgres/SQLite when built with a db.
type Repository struct {
	mu          sync.RWMutex
	submissions []models.CardSubmission
	ids         map[string]struct{}

	db      *sql.DB
	dialect dialect
}

// NewRepository returns an in-memory repository. It is meant for tests.
func NewRepository() *Repository {
	return &Repository{
		submissions: make([]models.CardSubmission, 0),
		ids:         make(map[string]struct{}),
	}
}

// NewPGRepository constructs a Postgres-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: postgresDialect}
}

// NewSQLiteRepository constructs a SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *Repository {
	return &Repository{db: db, dialect: sqliteDialect}
}

// Backend names the storage in use.
func (r *Repository) Backend() string {
	if r.db == nil {
		return "mem"
	}
	return r.dialect.name
}

// Migrate applies the embedded schema for the repository's dialect in file name order.
func (r *Repository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	dir := "migrations/" + r.dialect.name
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	for _, name := range files {
		content, err := fs.ReadFile(migrations, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// CreateSubmission inserts one row. Rows still carrying a raw card number or CVV are refused.
func (r *Repository) CreateSubmission(ctx context.Context, card models.CardSubmission) error {
	if card.CardNumber != "" || card.CVV != "" {
		return ErrRawCardData
	}
	if card.ID == "" {
		return fmt.Errorf("submission id is required")
	}
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.ids[card.ID]; ok {
			return fmt.Errorf("submission %s exists: %w", card.ID, ErrConflict)
		}
		r.submissions = append(r.submissions, card)
		r.ids[card.ID] = struct{}{}
		return nil
	}

	b := r.dialect.bind
	query := fmt.Sprintf(`
        INSERT INTO card_submissions(id, card_holder_name, card_number, cvv, expiry_month, expiry_year,
                                     hashed_card_number, hashed_cvv, transaction_date, is_valid)
        VALUES (%s,%s,%s,%s,%s,%s,%s,%s,%s,%s)
    `, b(1), b(2), b(3), b(4), b(5), b(6), b(7), b(8), b(9), b(10))
	_, err := r.db.ExecContext(ctx, query,
		card.ID, card.CardHolderName, card.CardNumber, card.CVV, card.ExpiryMonth, card.ExpiryYear,
		nullable(card.HashedCardNumber), nullable(card.HashedCVV), card.TransactionDate, card.IsValid)
	if isUniqueViolation(err) {
		return fmt.Errorf("submission %s exists: %w", card.ID, ErrConflict)
	}
	return err
}

// Submissions returns a snapshot of the in-memory rows.
func (r *Repository) Submissions() []models.CardSubmission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.CardSubmission, len(r.submissions))
	copy(out, r.submissions)
	return out
}

// Ping returns DB readiness
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		return true
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
