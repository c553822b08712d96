package services

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/license-backend/internal/models"
	"github.com/javajoker/license-backend/internal/store"
	"github.com/javajoker/license-backend/internal/utils"
)

var keyPattern = regexp.MustCompile(`^FORTE-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func TestGenerateFormat(t *testing.T) {
	issuer := NewKeyIssuer(nil, DefaultKeyFormat())

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		key, err := issuer.Generate()
		require.NoError(t, err)
		assert.Regexp(t, keyPattern, key)
		seen[key] = true
	}
	assert.Greater(t, len(seen), 195)
}

func TestGenerateWithoutPrefix(t *testing.T) {
	issuer := NewKeyIssuer(nil, KeyFormat{Segments: 4, SegmentLength: 5})

	key, err := issuer.Generate()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{5}(-[A-Z0-9]{5}){3}$`, key)
}

func TestVerifyRejectsEverySingleCharacterMutation(t *testing.T) {
	issuer := NewKeyIssuer(nil, DefaultKeyFormat())

	for i := 0; i < 20; i++ {
		key, err := issuer.Generate()
		require.NoError(t, err)
		digest := issuer.Hash(key)
		require.True(t, issuer.Verify(key, digest))

		for pos := range key {
			for _, c := range utils.LicenseKeyCharset + "-" {
				if byte(c) == key[pos] {
					continue
				}
				mutated := key[:pos] + string(c) + key[pos+1:]
				if issuer.Verify(mutated, digest) {
					t.Fatalf("mutation %q verified against digest of %q", mutated, key)
				}
			}
		}
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	issuer := NewKeyIssuer(nil, DefaultKeyFormat())

	assert.False(t, issuer.Verify("FORTE-AAAA-BBBB-CCCC", "not-hex"))
	assert.False(t, issuer.Verify("FORTE-AAAA-BBBB-CCCC", ""))
	assert.True(t, issuer.Verify("FORTE-AAAA-BBBB-CCCC", strings.ToUpper(issuer.Hash("FORTE-AAAA-BBBB-CCCC"))))
}

func TestIssueStoresHashOnly(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "licenses.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	expires := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	issuer := NewKeyIssuer(s, DefaultKeyFormat())

	issued, err := issuer.Issue(ctx, IssueRequest{ExpiresAt: &expires, CreatedBy: "ops"})
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, issued.Plaintext)

	stored, err := s.FindOne(ctx, store.Filter{KeyHash: utils.HashString(issued.Plaintext)})
	require.NoError(t, err)
	assert.Equal(t, issued.Record.ID, stored.ID)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.IsRegistered)
	assert.Nil(t, stored.Username)
	assert.Nil(t, stored.HWID)
	assert.Equal(t, "ops", *stored.CreatedBy)
	assert.True(t, expires.Equal(*stored.ExpiresAt))
	assert.NotContains(t, stored.KeyHash, issued.Plaintext)

	events, err := s.ListEvents(ctx, stored.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventActionIssue, events[0].Action)
	assert.Equal(t, "ops", events[0].Details["created_by"])
}

func TestIssueRejectsPastExpiry(t *testing.T) {
	issuer := NewKeyIssuer(new(mockStore), DefaultKeyFormat())

	past := time.Now().Add(-time.Minute)
	_, err := issuer.Issue(context.Background(), IssueRequest{ExpiresAt: &past})
	assert.Error(t, err)
}

func TestIssueRetriesOnCollision(t *testing.T) {
	ms := new(mockStore)
	ms.On("Insert", mock.Anything, mock.Anything).Return(store.ErrDuplicate).Once()
	ms.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	ms.On("RecordEvent", mock.Anything, mock.Anything).Return(nil)

	issued, err := NewKeyIssuer(ms, DefaultKeyFormat()).Issue(context.Background(), IssueRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Plaintext)
	ms.AssertNumberOfCalls(t, "Insert", 2)
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	ms := new(mockStore)
	ms.On("Insert", mock.Anything, mock.Anything).Return(store.ErrDuplicate)

	_, err := NewKeyIssuer(ms, DefaultKeyFormat()).Issue(context.Background(), IssueRequest{})
	assert.Error(t, err)
	ms.AssertNumberOfCalls(t, "Insert", issueAttempts)
}
