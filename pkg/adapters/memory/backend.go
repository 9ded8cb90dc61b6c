package memory

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"

	"github.com/sangamhq/vivah/pkg/domain"
	"github.com/sangamhq/vivah/pkg/ports"
)

const (
	saltBytes = 16
	keyBytes  = 32
)

type account struct {
	ports.Account
	salt []byte
	hash []byte
}

// Backend implements the hosted collaborator ports in memory: account
// and session management, a document store, and a file store.
// Safe for concurrent use.
type Backend struct {
	mu        sync.Mutex
	accounts  map[string]*account           // by account ID
	byEmail   map[string]*account           // by email
	sessions  map[string]*ports.Session     // by token
	active    *ports.Session                // the single client session
	documents map[string]map[string]*ports.Document
	files     map[string][]byte
}

// NewBackend creates an empty in-memory backend.
func NewBackend() *Backend {
	return &Backend{
		accounts:  make(map[string]*account),
		byEmail:   make(map[string]*account),
		sessions:  make(map[string]*ports.Session),
		documents: make(map[string]map[string]*ports.Document),
		files:     make(map[string][]byte),
	}
}

// Services bundles the backend into the ports wiring struct.
func (b *Backend) Services() *ports.Backend {
	return &ports.Backend{Accounts: b, Documents: b, Files: b}
}

// --- ports.AccountService ---

// CreateAccount registers a new account with an argon2id password hash.
func (b *Backend) CreateAccount(ctx context.Context, id, email, password, name string) (*ports.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.accounts[id]; exists {
		return nil, fmt.Errorf("account %s: %w", id, domain.ErrConflict)
	}
	if _, exists := b.byEmail[email]; exists {
		return nil, fmt.Errorf("email %s: %w", email, domain.ErrConflict)
	}

	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	acct := &account{
		Account: ports.Account{ID: id, Email: email, Name: name},
		salt:    salt,
		hash:    hashPassword(password, salt),
	}
	b.accounts[id] = acct
	b.byEmail[email] = acct

	out := acct.Account
	return &out, nil
}

// CreateSession authenticates and opens a session. The newest session
// becomes the active one.
func (b *Backend) CreateSession(ctx context.Context, email, password string) (*ports.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", email, domain.ErrNotFound)
	}
	if subtle.ConstantTimeCompare(acct.hash, hashPassword(password, acct.salt)) != 1 {
		return nil, fmt.Errorf("invalid credentials for %s", email)
	}

	token := make([]byte, 24)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}
	sess := &ports.Session{
		Token:     hex.EncodeToString(token),
		AccountID: acct.ID,
		CreatedAt: time.Now(),
	}
	b.sessions[sess.Token] = sess
	b.active = sess

	out := *sess
	return &out, nil
}

// CurrentSession returns the active session, or (nil, nil) when none.
func (b *Backend) CurrentSession(ctx context.Context) (*ports.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active == nil {
		return nil, nil
	}
	out := *b.active
	return &out, nil
}

// DeleteSession invalidates a session token.
func (b *Backend) DeleteSession(ctx context.Context, token string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sessions[token]; !ok {
		return fmt.Errorf("session: %w", domain.ErrNotFound)
	}
	delete(b.sessions, token)
	if b.active != nil && b.active.Token == token {
		b.active = nil
	}
	return nil
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, keyBytes)
}

// --- ports.DocumentService ---

func (b *Backend) CreateDocument(ctx context.Context, collection, id string, fields map[string]any) (*ports.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	coll := b.documents[collection]
	if coll == nil {
		coll = make(map[string]*ports.Document)
		b.documents[collection] = coll
	}
	if _, exists := coll[id]; exists {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrConflict)
	}

	doc := &ports.Document{Collection: collection, ID: id, Fields: cloneFields(fields)}
	coll[id] = doc
	return copyDoc(doc), nil
}

func (b *Backend) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) (*ports.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.documents[collection][id]
	if !ok {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	return copyDoc(doc), nil
}

func (b *Backend) GetDocument(ctx context.Context, collection, id string) (*ports.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc, ok := b.documents[collection][id]
	if !ok {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return copyDoc(doc), nil
}

func (b *Backend) ListDocuments(ctx context.Context, collection string, filters map[string]any) ([]*ports.Document, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []*ports.Document
	for _, doc := range b.documents[collection] {
		if matches(doc.Fields, filters) {
			out = append(out, copyDoc(doc))
		}
	}
	return out, nil
}

func matches(fields, filters map[string]any) bool {
	for k, v := range filters {
		if fields[k] != v {
			return false
		}
	}
	return true
}

func cloneFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyDoc(doc *ports.Document) *ports.Document {
	return &ports.Document{
		Collection: doc.Collection,
		ID:         doc.ID,
		Fields:     cloneFields(doc.Fields),
	}
}

// --- ports.FileService ---

func (b *Backend) Upload(ctx context.Context, bucket, id string, data []byte) (*ports.FileRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.files[bucket+"/"+id] = bytes.Clone(data)
	return &ports.FileRef{Bucket: bucket, ID: id, Size: int64(len(data))}, nil
}

func (b *Backend) Delete(ctx context.Context, bucket, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bucket + "/" + id
	if _, ok := b.files[key]; !ok {
		return fmt.Errorf("file %s: %w", key, domain.ErrNotFound)
	}
	delete(b.files, key)
	return nil
}

func (b *Backend) ViewURL(ctx context.Context, bucket, id string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bucket + "/" + id
	if _, ok := b.files[key]; !ok {
		return "", fmt.Errorf("file %s: %w", key, domain.ErrNotFound)
	}
	return "memory://" + key, nil
}

// FileBytes returns the raw stored bytes, for tests.
func (b *Backend) FileBytes(bucket, id string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.files[bucket+"/"+id]
	return bytes.Clone(data), ok
}
