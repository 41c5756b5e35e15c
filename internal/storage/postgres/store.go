package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/summonbeast/internal/host"
	"github.com/cory-johannsen/summonbeast/internal/host/fixture"
)

// ErrCharacterExists is returned when creating a character whose id is taken.
var ErrCharacterExists = errors.New("character already exists")

// Store is a host.Store, host.Board and host.Roster backed by PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

var (
	_ host.Store  = (*Store)(nil)
	_ host.Board  = (*Store)(nil)
	_ host.Roster = (*Store)(nil)
)

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the host
// tables migrated.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateCharacter inserts a character sheet. An empty id is replaced by a
// fresh UUID.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created character, or ErrCharacterExists on duplicate id.
func (s *Store) CreateCharacter(ctx context.Context, id, name string) (*host.Character, error) {
	if name == "" {
		return nil, fmt.Errorf("character name must not be empty")
	}
	if id == "" {
		id = uuid.NewString()
	}

	var c host.Character
	err := s.db.QueryRow(ctx, `
		INSERT INTO characters (id, name) VALUES ($1, $2)
		RETURNING id, name`,
		id, name,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("character %q: %w", id, ErrCharacterExists)
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}
	return &c, nil
}

// Character implements host.Store.
func (s *Store) Character(ctx context.Context, id string) (*host.Character, error) {
	var c host.Character
	err := s.db.QueryRow(ctx, `SELECT id, name FROM characters WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character %q: %w", id, host.ErrCharacterNotFound)
		}
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return &c, nil
}

// Characters implements host.Roster.
func (s *Store) Characters(ctx context.Context) ([]host.Character, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM characters ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	out := make([]host.Character, 0)
	for rows.Next() {
		var c host.Character
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCharacter implements host.Roster. Attributes go by cascade.
//
// Postcondition: Returns host.ErrCharacterNotFound if no row was deleted.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("character %q: %w", id, host.ErrCharacterNotFound)
	}
	return nil
}

// SetAttribute creates or overwrites the named attribute of characterID.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the stored attribute, or host.ErrCharacterNotFound
// if characterID is unknown.
func (s *Store) SetAttribute(ctx context.Context, characterID, name, current, maxValue string) (*Attribute, error) {
	a := &Attribute{store: s}
	err := s.db.QueryRow(ctx, `
		INSERT INTO attributes (id, character_id, name, current_value, max_value)
		SELECT $1, c.id, $3, $4, $5 FROM characters c WHERE c.id = $2
		ON CONFLICT (character_id, name)
		DO UPDATE SET current_value = EXCLUDED.current_value,
		              max_value     = EXCLUDED.max_value,
		              updated_at    = NOW()
		RETURNING id, name, current_value, max_value`,
		uuid.NewString(), characterID, name, current, maxValue,
	).Scan(&a.id, &a.name, &a.current, &a.max)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("character %q: %w", characterID, host.ErrCharacterNotFound)
		}
		return nil, fmt.Errorf("upserting attribute %q: %w", name, err)
	}
	return a, nil
}

// Attributes implements host.Store. Attributes are returned in creation order.
func (s *Store) Attributes(ctx context.Context, characterID string) ([]host.Attribute, error) {
	if _, err := s.Character(ctx, characterID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, name, current_value, max_value
		FROM attributes WHERE character_id = $1 ORDER BY position ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attributes: %w", err)
	}
	defer rows.Close()

	out := make([]host.Attribute, 0)
	for rows.Next() {
		a := &Attribute{store: s}
		if err := rows.Scan(&a.id, &a.name, &a.current, &a.max); err != nil {
			return nil, fmt.Errorf("scanning attribute row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Seed inserts the fixture's character and attributes in one transaction.
//
// Postcondition: Either every row is written or none is.
func (s *Store) Seed(ctx context.Context, f *fixture.SheetFixture) (*host.Character, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := tx.Exec(ctx, `INSERT INTO characters (id, name) VALUES ($1, $2)`, id, f.Name); err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("character %q: %w", id, ErrCharacterExists)
		}
		return nil, fmt.Errorf("inserting character: %w", err)
	}

	batch := &pgx.Batch{}
	for _, a := range f.Flatten() {
		batch.Queue(`
			INSERT INTO attributes (id, character_id, name, current_value, max_value)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (character_id, name)
			DO UPDATE SET current_value = EXCLUDED.current_value, max_value = EXCLUDED.max_value`,
			uuid.NewString(), id, a.Name, a.Current, a.Max,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return nil, fmt.Errorf("inserting attributes for %q: %w", f.Name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing seed of %q: %w", f.Name, err)
	}
	return &host.Character{ID: id, Name: f.Name}, nil
}

// AddToken implements host.Board.
func (s *Store) AddToken(ctx context.Context, name, characterID string) (host.Token, error) {
	var t host.Token
	err := s.db.QueryRow(ctx, `
		INSERT INTO tokens (id, name, represents) VALUES ($1, $2, $3)
		RETURNING id, name, represents`,
		uuid.NewString(), name, characterID,
	).Scan(&t.ID, &t.Name, &t.Represents)
	if err != nil {
		return host.Token{}, fmt.Errorf("inserting token: %w", err)
	}
	return t, nil
}

// RemoveToken implements host.Board.
//
// Postcondition: Returns the removed token, or host.ErrTokenNotFound.
func (s *Store) RemoveToken(ctx context.Context, id string) (host.Token, error) {
	var t host.Token
	err := s.db.QueryRow(ctx, `
		DELETE FROM tokens WHERE id = $1
		RETURNING id, name, represents`,
		id,
	).Scan(&t.ID, &t.Name, &t.Represents)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return host.Token{}, fmt.Errorf("token %q: %w", id, host.ErrTokenNotFound)
		}
		return host.Token{}, fmt.Errorf("deleting token: %w", err)
	}
	return t, nil
}

// Tokens implements host.Roster. Tokens are returned in placement order.
func (s *Store) Tokens(ctx context.Context) ([]host.Token, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, represents FROM tokens ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	out := make([]host.Token, 0)
	for rows.Next() {
		var t host.Token
		if err := rows.Scan(&t.ID, &t.Name, &t.Represents); err != nil {
			return nil, fmt.Errorf("scanning token row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Attribute is a host.Attribute row. Get reads the values loaded with the
// row; Set writes through to the database.
type Attribute struct {
	store *Store

	mu      sync.Mutex
	id      string
	name    string
	current string
	max     string
}

// ID returns the attribute's row id.
func (a *Attribute) ID() string { return a.id }

// Name implements host.Attribute.
func (a *Attribute) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// Get implements host.Attribute.
func (a *Attribute) Get(field host.Field) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch field {
	case host.FieldCurrent:
		return a.current
	case host.FieldMax:
		return a.max
	case host.FieldName:
		return a.name
	default:
		return ""
	}
}

// Set implements host.Attribute.
//
// Postcondition: On success the row and the loaded value agree; on error
// neither changes.
func (a *Attribute) Set(ctx context.Context, field host.Field, value string) error {
	var column string
	switch field {
	case host.FieldCurrent:
		column = "current_value"
	case host.FieldMax:
		column = "max_value"
	case host.FieldName:
		column = "name"
	default:
		return fmt.Errorf("attribute %q: unknown field %q", a.Name(), field)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// column comes from the fixed switch above.
	tag, err := a.store.db.Exec(ctx,
		`UPDATE attributes SET `+column+` = $1, updated_at = NOW() WHERE id = $2`,
		value, a.id,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("attribute %q: renaming to %q: name already used on this sheet", a.name, value)
		}
		return fmt.Errorf("updating attribute %q %s: %w", a.name, field, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("attribute %q: row %s no longer exists", a.name, a.id)
	}

	switch field {
	case host.FieldCurrent:
		a.current = value
	case host.FieldMax:
		a.max = value
	case host.FieldName:
		a.name = value
	}
	return nil
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
