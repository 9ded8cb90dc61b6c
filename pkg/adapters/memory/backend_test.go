package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamhq/vivah/pkg/domain"
)

func TestBackend_Accounts(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	acct, err := b.CreateAccount(ctx, "acct-1", "asha@example.com", "s3cret-password", "Asha Kulkarni")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", acct.ID)

	// Duplicate ID and duplicate email are both conflicts.
	_, err = b.CreateAccount(ctx, "acct-1", "other@example.com", "pw-whatever", "Other")
	assert.True(t, domain.IsConflict(err))
	_, err = b.CreateAccount(ctx, "acct-2", "asha@example.com", "pw-whatever", "Other")
	assert.True(t, domain.IsConflict(err))
}

func TestBackend_Sessions(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	_, err := b.CreateAccount(ctx, "acct-1", "asha@example.com", "s3cret-password", "Asha Kulkarni")
	require.NoError(t, err)

	// No session yet.
	sess, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	// Wrong password fails.
	_, err = b.CreateSession(ctx, "asha@example.com", "wrong-password")
	assert.Error(t, err)

	// Unknown email fails.
	_, err = b.CreateSession(ctx, "nobody@example.com", "s3cret-password")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	sess, err = b.CreateSession(ctx, "asha@example.com", "s3cret-password")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", sess.AccountID)
	assert.NotEmpty(t, sess.Token)

	current, err := b.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, sess.Token, current.Token)

	require.NoError(t, b.DeleteSession(ctx, sess.Token))
	current, err = b.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	err = b.DeleteSession(ctx, sess.Token)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackend_Documents(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	_, err := b.CreateDocument(ctx, "profiles", "p1", map[string]any{"city": "Pune City"})
	require.NoError(t, err)

	_, err = b.CreateDocument(ctx, "profiles", "p1", nil)
	assert.True(t, domain.IsConflict(err))

	doc, err := b.GetDocument(ctx, "profiles", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pune City", doc.Fields["city"])

	// Update patches; untouched fields survive.
	_, err = b.UpdateDocument(ctx, "profiles", "p1", map[string]any{"state": "Maharashtra"})
	require.NoError(t, err)
	doc, err = b.GetDocument(ctx, "profiles", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pune City", doc.Fields["city"])
	assert.Equal(t, "Maharashtra", doc.Fields["state"])

	_, err = b.UpdateDocument(ctx, "profiles", "missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = b.GetDocument(ctx, "profiles", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = b.CreateDocument(ctx, "profiles", "p2", map[string]any{"city": "Margao"})
	require.NoError(t, err)

	all, err := b.ListDocuments(ctx, "profiles", nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := b.ListDocuments(ctx, "profiles", map[string]any{"city": "Margao"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "p2", filtered[0].ID)
}

func TestBackend_Files(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	data := []byte{0xff, 0xd8, 0xff}
	ref, err := b.Upload(ctx, "photos", "f1", data)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ref.Size)

	url, err := b.ViewURL(ctx, "photos", "f1")
	require.NoError(t, err)
	assert.Equal(t, "memory://photos/f1", url)

	stored, ok := b.FileBytes("photos", "f1")
	require.True(t, ok)
	assert.Equal(t, data, stored)

	require.NoError(t, b.Delete(ctx, "photos", "f1"))
	assert.ErrorIs(t, b.Delete(ctx, "photos", "f1"), domain.ErrNotFound)
	_, err = b.ViewURL(ctx, "photos", "f1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
