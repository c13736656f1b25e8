// Package sealer encrypts location payloads at rest.
//
// Each user's records are sealed under a key derived with HKDF-SHA256 from a
// deployment master key, so one leaked derived key exposes one user only.
// Blobs use XChaCha20-Poly1305 in the format
//
//	[Version: 1 byte] [Nonce: 24 bytes] [Ciphertext+Tag: N+16 bytes]
//
// with the version byte and the owning user id as associated data, which
// stops a record from being replayed under another user.
package sealer

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	id "bubble/pkg/domain"
)

// KeySize is the size in bytes of master and derived keys.
const KeySize = 32

// BlobVersion is the format byte prepended to every sealed blob.
const BlobVersion byte = 0x01

// BlobOverhead is version + nonce + tag.
const BlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

var hkdfInfoLocation = []byte("bubble.history.location.v1")

var (
	// ErrUnknownKey means the record names a key version this process does
	// not hold. It is a deployment fault, never a per-record one.
	ErrUnknownKey = errors.New("sealer: unknown key reference")
	// ErrCorrupt means the blob is malformed or fails authentication.
	ErrCorrupt = errors.New("sealer: corrupt record")
)

// Keyring holds master keys by reference. Active seals new records; every
// held key can open records sealed under it, which allows rotation.
type Keyring struct {
	keys   map[string][]byte
	active string
}

// NewKeyring validates and copies the given master keys.
func NewKeyring(active string, keys map[string][]byte) (*Keyring, error) {
	if active == "" {
		return nil, errors.New("sealer: active key reference is required")
	}
	ring := &Keyring{keys: make(map[string][]byte, len(keys)), active: active}
	for ref, key := range keys {
		if ref == "" {
			return nil, errors.New("sealer: key reference cannot be empty")
		}
		if len(key) != KeySize {
			return nil, fmt.Errorf("sealer: key %q is %d bytes, want %d", ref, len(key), KeySize)
		}
		ring.keys[ref] = append([]byte(nil), key...)
	}
	if _, ok := ring.keys[active]; !ok {
		return nil, fmt.Errorf("sealer: active key %q not in keyring", active)
	}
	return ring, nil
}

// ParseKeyring builds a keyring from "ref:base64key" entries.
func ParseKeyring(active string, entries []string) (*Keyring, error) {
	keys := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		ref, encoded, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("sealer: key entry must be ref:base64")
		}
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("sealer: key %q is not valid base64: %w", ref, err)
		}
		keys[ref] = key
	}
	return NewKeyring(active, keys)
}

// Active returns the reference used for new records.
func (k *Keyring) Active() string {
	return k.active
}

// Sealer encrypts and decrypts per-user payloads.
type Sealer struct {
	ring *Keyring
}

// New creates a Sealer over the keyring.
func New(ring *Keyring) *Sealer {
	return &Sealer{ring: ring}
}

// Seal encrypts plaintext for userID under the active key and returns the
// key reference alongside the blob.
func (s *Sealer) Seal(userID id.UserID, plaintext []byte) (string, []byte, error) {
	ref := s.ring.active
	key, err := s.deriveKey(ref, userID)
	if err != nil {
		return "", nil, err
	}
	defer clear(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", nil, fmt.Errorf("generating random nonce: %w", err)
	}

	out := make([]byte, 1+chacha20poly1305.NonceSizeX, BlobOverhead+len(plaintext))
	out[0] = BlobVersion
	copy(out[1:], nonce[:])
	out = aead.Seal(out, nonce[:], plaintext, buildAAD(BlobVersion, userID))
	return ref, out, nil
}

// Open decrypts a blob sealed for userID under keyRef. The caller owns the
// returned slice and should clear it once decoded.
func (s *Sealer) Open(userID id.UserID, keyRef string, blob []byte) ([]byte, error) {
	key, err := s.deriveKey(keyRef, userID)
	if err != nil {
		return nil, err
	}
	defer clear(key)

	if len(blob) < BlobOverhead {
		return nil, fmt.Errorf("%w: blob is %d bytes, minimum is %d", ErrCorrupt, len(blob), BlobOverhead)
	}
	if blob[0] != BlobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, blob[0])
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, blob[1+chacha20poly1305.NonceSizeX:], buildAAD(blob[0], userID))
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrCorrupt)
	}
	return plaintext, nil
}

func (s *Sealer) deriveKey(ref string, userID id.UserID) ([]byte, error) {
	master, ok := s.ring.keys[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, ref)
	}
	info := make([]byte, 0, len(hkdfInfoLocation)+16)
	info = append(info, hkdfInfoLocation...)
	info = append(info, userID[:]...)

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, info), key); err != nil {
		return nil, fmt.Errorf("deriving user key: %w", err)
	}
	return key, nil
}

func buildAAD(version byte, userID id.UserID) []byte {
	aad := make([]byte, 0, 1+16)
	aad = append(aad, version)
	return append(aad, userID[:]...)
}
