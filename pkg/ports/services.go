package ports

import (
	"context"
	"time"
)

// Account is a remote user account created by the registration wizard.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is an authenticated session against the account service.
type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a record in the remote document store.
type Document struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
}

// FileRef points to an uploaded file in the remote file store.
type FileRef struct {
	Bucket string `json:"bucket"`
	ID     string `json:"id"`
	Size   int64  `json:"size"`
}

// AccountService is the remote account/session collaborator.
type AccountService interface {
	// CreateAccount registers a new account.
	// Returns an error wrapping domain.ErrConflict when the email is
	// already registered.
	CreateAccount(ctx context.Context, id, email, password, name string) (*Account, error)

	// CreateSession authenticates and opens a session.
	CreateSession(ctx context.Context, email, password string) (*Session, error)

	// CurrentSession returns the active session, or (nil, nil) when no
	// session is active. The controller uses this to reuse an existing
	// session instead of blindly creating a duplicate.
	CurrentSession(ctx context.Context) (*Session, error)

	// DeleteSession invalidates the session with the given token.
	DeleteSession(ctx context.Context, token string) error
}

// DocumentService is the remote document store collaborator.
type DocumentService interface {
	// CreateDocument creates a document. Returns an error wrapping
	// domain.ErrConflict when the ID already exists in the collection.
	CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (*Document, error)

	// UpdateDocument patches an existing document with partial fields.
	// Returns an error wrapping domain.ErrNotFound when absent.
	UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*Document, error)

	// GetDocument fetches a document by ID.
	GetDocument(ctx context.Context, collection, id string) (*Document, error)

	// ListDocuments returns the documents of a collection matching the
	// equality filters (nil filters match everything).
	ListDocuments(ctx context.Context, collection string, filters map[string]any) ([]*Document, error)
}

// FileService is the remote file store collaborator.
type FileService interface {
	// Upload stores file bytes under bucket/id.
	Upload(ctx context.Context, bucket, id string, data []byte) (*FileRef, error)

	// Delete removes the file.
	Delete(ctx context.Context, bucket, id string) error

	// ViewURL returns a URL serving the file contents.
	ViewURL(ctx context.Context, bucket, id string) (string, error)
}

// Backend bundles the hosted collaborators a wizard's side effects call.
type Backend struct {
	Accounts  AccountService
	Documents DocumentService
	Files     FileService
}
