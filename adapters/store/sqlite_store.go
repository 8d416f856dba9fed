package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const identityColumns = `id, address, provider, nonce, created_at, updated_at`

const addressColumns = `id, identity_id, account_number, token_title, token_symbol, token_logo_url,
	token_requires_metadata, token_info_url, metadata, created_at, updated_at`

// SQLiteStore implements identity and address persistence over a single SQLite file
type SQLiteStore struct {
	db *sql.DB
}

var (
	_ ports.IdentityStore = (*SQLiteStore)(nil)
	_ ports.AddressStore  = (*SQLiteStore)(nil)
)

// OpenSQLite opens the store at path and applies bundled migrations
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// Close releases the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)

	for _, name := range names {
		ddl, err := migrationsFS.ReadFile(name)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(ddl), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*core.Identity, error) {
	var (
		identity             core.Identity
		provider             string
		nonce                int64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&identity.ID, &identity.Address, &provider, &nonce, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNoRecord
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	identity.Provider = core.Provider(provider)
	identity.Nonce = core.Nonce(nonce)
	identity.CreatedAt = fromMillis(createdAt)
	identity.UpdatedAt = fromMillis(updatedAt)
	return &identity, nil
}

// FindIdentity looks an identity up by address and provider
func (s *SQLiteStore) FindIdentity(ctx context.Context, address string, provider core.Provider) (*core.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE address = ? AND provider = ?`,
		address, string(provider))
	return scanIdentity(row)
}

// FindIdentityByID looks an identity up by id
func (s *SQLiteStore) FindIdentityByID(ctx context.Context, id string) (*core.Identity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	return scanIdentity(row)
}

// UpsertIdentity stores candidate unless the address is already known for its provider
func (s *SQLiteStore) UpsertIdentity(ctx context.Context, candidate *core.Identity) (*core.Identity, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (address, provider) DO NOTHING`,
		candidate.ID,
		candidate.Address,
		string(candidate.Provider),
		int64(candidate.Nonce),
		toMillis(candidate.CreatedAt),
		toMillis(candidate.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert identity: %w", err)
	}

	return s.FindIdentity(ctx, candidate.Address, candidate.Provider)
}

// UpdateNonce replaces the nonce of an identity
func (s *SQLiteStore) UpdateNonce(ctx context.Context, id string, nonce core.Nonce) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE identities SET nonce = ?, updated_at = ? WHERE id = ?`,
		int64(nonce), toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update nonce: %w", err)
	}
	return requireAffected(res)
}

// DeleteIdentity removes an identity, its addresses go with it
func (s *SQLiteStore) DeleteIdentity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return requireAffected(res)
}

func scanAddress(row rowScanner) (*core.Address, error) {
	var (
		addr                 core.Address
		requiresMetadata     bool
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&addr.ID,
		&addr.IdentityID,
		&addr.AccountNumber,
		&addr.Token.Title,
		&addr.Token.Symbol,
		&addr.Token.LogoURL,
		&requiresMetadata,
		&addr.Token.TokenInfoURL,
		&addr.Metadata,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNoRecord
		}
		return nil, fmt.Errorf("scan address: %w", err)
	}

	addr.Token.RequiresMetadata = requiresMetadata
	addr.CreatedAt = fromMillis(createdAt)
	addr.UpdatedAt = fromMillis(updatedAt)
	return &addr, nil
}

// ListAddresses returns the addresses of an identity, oldest first
func (s *SQLiteStore) ListAddresses(ctx context.Context, identityID string) ([]*core.Address, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE identity_id = ? ORDER BY created_at, id`,
		identityID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	result := make([]*core.Address, 0)
	for rows.Next() {
		addr, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return result, nil
}

// GetAddress returns a single address
func (s *SQLiteStore) GetAddress(ctx context.Context, id string) (*core.Address, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = ?`, id)
	return scanAddress(row)
}

// CreateAddress stores a new address
func (s *SQLiteStore) CreateAddress(ctx context.Context, a *core.Address) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO addresses (`+addressColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.IdentityID,
		a.AccountNumber,
		a.Token.Title,
		a.Token.Symbol,
		a.Token.LogoURL,
		a.Token.RequiresMetadata,
		a.Token.TokenInfoURL,
		a.Metadata,
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create address: %w", err)
	}
	return nil
}

// UpdateAddress overwrites the mutable fields of an address
func (s *SQLiteStore) UpdateAddress(ctx context.Context, a *core.Address) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE addresses SET account_number = ?, token_title = ?, token_symbol = ?, token_logo_url = ?,
			token_requires_metadata = ?, token_info_url = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		a.AccountNumber,
		a.Token.Title,
		a.Token.Symbol,
		a.Token.LogoURL,
		a.Token.RequiresMetadata,
		a.Token.TokenInfoURL,
		a.Metadata,
		toMillis(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	return requireAffected(res)
}

// DeleteAddress removes an address
func (s *SQLiteStore) DeleteAddress(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNoRecord
	}
	return nil
}
