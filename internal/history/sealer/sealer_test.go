package sealer

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "bubble/pkg/domain"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	ring, err := NewKeyring("v2", map[string][]byte{"v1": testKey(1), "v2": testKey(2)})
	require.NoError(t, err)
	return New(ring)
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t)
	user := id.UserID(uuid.New())
	plaintext := []byte("payload")

	ref, blob, err := s.Seal(user, plaintext)
	require.NoError(t, err)
	assert.Equal(t, "v2", ref)
	assert.Len(t, blob, BlobOverhead+len(plaintext))
	assert.False(t, bytes.Contains(blob, plaintext), "plaintext must not appear in the blob")

	got, err := s.Open(user, ref, blob)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSealUsesFreshNonces(t *testing.T) {
	s := newTestSealer(t)
	user := id.UserID(uuid.New())

	_, a, err := s.Seal(user, []byte("same"))
	require.NoError(t, err)
	_, b, err := s.Seal(user, []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenFailures(t *testing.T) {
	s := newTestSealer(t)
	user := id.UserID(uuid.New())
	ref, blob, err := s.Seal(user, []byte("payload"))
	require.NoError(t, err)

	t.Run("another user cannot open the record", func(t *testing.T) {
		_, err := s.Open(id.UserID(uuid.New()), ref, blob)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := bytes.Clone(blob)
		tampered[len(tampered)-1] ^= 0xff
		_, err := s.Open(user, ref, tampered)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("truncated blob", func(t *testing.T) {
		_, err := s.Open(user, ref, blob[:10])
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("unsupported version", func(t *testing.T) {
		bumped := bytes.Clone(blob)
		bumped[0] = 0x7f
		_, err := s.Open(user, ref, bumped)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("wrong key version", func(t *testing.T) {
		_, err := s.Open(user, "v1", blob)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("unknown key reference is systemic", func(t *testing.T) {
		_, err := s.Open(user, "v9", blob)
		assert.True(t, errors.Is(err, ErrUnknownKey))
		assert.False(t, errors.Is(err, ErrCorrupt))
	})
}

func TestKeyRotation(t *testing.T) {
	oldRing, err := NewKeyring("v1", map[string][]byte{"v1": testKey(1)})
	require.NoError(t, err)
	user := id.UserID(uuid.New())
	ref, blob, err := New(oldRing).Seal(user, []byte("before rotation"))
	require.NoError(t, err)

	rotated := newTestSealer(t)
	got, err := rotated.Open(user, ref, blob)
	require.NoError(t, err)
	assert.Equal(t, "before rotation", string(got))
}

func TestParseKeyring(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testKey(7))

	t.Run("valid entries", func(t *testing.T) {
		ring, err := ParseKeyring("k1", []string{"k1:" + encoded})
		require.NoError(t, err)
		assert.Equal(t, "k1", ring.Active())
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := ParseKeyring("k1", []string{encoded})
		assert.Error(t, err)
	})

	t.Run("short key", func(t *testing.T) {
		_, err := ParseKeyring("k1", []string{"k1:" + base64.StdEncoding.EncodeToString([]byte("short"))})
		assert.Error(t, err)
	})

	t.Run("active key absent", func(t *testing.T) {
		_, err := ParseKeyring("k2", []string{"k1:" + encoded})
		assert.Error(t, err)
	})
}
