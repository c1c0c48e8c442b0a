package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrJournalTooNew is returned by Open when the journal was migrated by a
// build that knows a later schema than this one.
var ErrJournalTooNew = errors.New("journal schema is newer than this build")

// migration upgrades a journal to version. Steps run in order, each at most
// once per journal, and must be safe on a journal freshly created from
// schema.sql.
type migration struct {
	version int
	name    string
	stmt    string
}

// migrations lists every schema step after the initial journal layout
// (version 0: genesis, transactions, events by kind).
var migrations = []migration{
	{
		version: 1,
		name:    "index events by transaction for replay reads",
		stmt:    `CREATE INDEX IF NOT EXISTS idx_events_tx ON events(tx_seq, seq)`,
	},
}

// schemaVersion is the user_version a fully migrated journal carries.
func schemaVersion() int {
	return migrations[len(migrations)-1].version
}

// pragma is a connection setting and the value SQLite reports once applied.
type pragma struct {
	name, value, want string
}

// journalPragmas configure every connection. foreign_keys ties each event to
// its stored transaction row.
var journalPragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// Store is the SQLite journal of one deployment.
type Store struct {
	db     *sql.DB
	memory bool
}

// Open creates or opens the journal at path and brings its schema up to
// date. ":memory:" gives a private journal that lives as long as the Store.
// Opening the same file repeatedly is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect journal %s: %w", path, err)
	}

	// One connection: SQLite has a single writer, and an in-memory
	// database disappears with its last connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, memory: path == ":memory:"}
	if err := s.configure(); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure journal %s: %w", path, err)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal %s: %w", path, err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion returns the journal's recorded schema version.
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// configure applies journalPragmas and checks SQLite accepted each one. An
// in-memory journal reports journal_mode "memory" and is not checked for it.
func (s *Store) configure() error {
	for _, p := range journalPragmas {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set %s: %w", p.name, err)
		}
		if s.memory && p.name == "journal_mode" {
			continue
		}
		if err := s.verifyPragma(p.name, p.want); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if version > schemaVersion() {
		return fmt.Errorf("%w: version %d, supported %d", ErrJournalTooNew, version, schemaVersion())
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := s.db.Exec(m.stmt); err != nil {
			return fmt.Errorf("v%d (%s): %w", m.version, m.name, err)
		}
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("v%d: set user_version: %w", m.version, err)
		}
	}
	return nil
}

func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
