package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/raycity/authserver/config"
	"github.com/raycity/authserver/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when an insert collides with an
// existing username.
var ErrDuplicateUsername = errors.New("username already exists")

// ErrNoBackend is returned when AUTH_BACKEND selects no known store.
var ErrNoBackend = errors.New("no auth backend configured")

// CredentialStore defines persistence operations for user credentials
// across backends. Usernames are compared exactly after trimming
// surrounding whitespace; records with an empty username or credential
// are treated as absent.
type CredentialStore interface {
	// Exists reports whether a record with the given username exists.
	Exists(ctx context.Context, username string) (bool, error)

	// Insert appends a new record stamped with the current time.
	// Backends that can enforce uniqueness return ErrDuplicateUsername
	// on collision; others rely on the caller's Exists check.
	Insert(ctx context.Context, username, passwordHash string) (types.User, error)

	// Find returns the first record matching the username, or
	// ErrNotFound.
	Find(ctx context.Context, username string) (types.User, error)

	// ListAll returns every record without credential fields.
	ListAll(ctx context.Context) ([]types.UserSummary, error)

	// Init prepares backend storage (indexes, header rows).
	Init(ctx context.Context) error

	// Close releases the backend connection, if any.
	Close(ctx context.Context) error
}

// New selects and constructs the credential store named by
// cfg.AuthBackend. An unknown or empty selection fails closed.
func New(ctx context.Context, cfg config.Config) (CredentialStore, error) {
	switch cfg.AuthBackend {
	case config.BackendMongo:
		return NewMongoStore(ctx, cfg.Mongo)
	case config.BackendSheets:
		return NewSheetsStore(ctx, cfg.Sheets)
	case "":
		return nil, ErrNoBackend
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNoBackend, cfg.AuthBackend)
	}
}
