// Package keystore implements the trusted-key store (component C5): a
// filesystem directory of public (and optionally private) secp256k1 keys
// with JSON metadata, following the teacher's preference for small,
// dependency-light filesystem stores (internal/config's viper-backed
// loader is the closest teacher analogue for structured persistence; the
// key material itself is PEM text, not something viper touches).
package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/EnactProtocol/security-go/internal/cryptoprim"
	"github.com/EnactProtocol/security-go/internal/pemcodec"
)

// ErrAlreadyExists is returned by GenerateAndStore/ImportPublic when a key
// with the requested ID already has a file on disk.
var ErrAlreadyExists = errors.New("keystore: key already exists")

// ErrIO is returned by write paths when a file cannot be written, after
// best-effort rollback of any partially written file.
var ErrIO = errors.New("keystore: write failed")

const (
	trustedKeysDir = "trusted-keys"
	privateKeysDir = "private-keys"
	trustedCacheSize = 128
)

// KeyPair is a hex-encoded secp256k1 keypair, the shape callers of the
// store see (distinct from cryptoprim.KeyPair only in that it carries JSON
// tags for the export-bundle format).
type KeyPair struct {
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
}

// Metadata is the JSON sidecar persisted alongside each key.
type Metadata struct {
	KeyID       string `json:"keyId"`
	Created     string `json:"created"`
	Algorithm   string `json:"algorithm"`
	Description string `json:"description,omitempty"`
}

// Store is a handle onto a trusted-key-store root directory. The zero
// value is not usable; construct with New.
type Store struct {
	root   string
	logger *log.Logger
	cache  *lru.Cache[string, string] // keyId -> public key hex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger overrides the default stderr logger used for the degraded-
// mode notices spec §4.5 calls for (skipped entries, lazy directory
// creation failures).
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a Store rooted at dir (typically "<host root>/" with
// trusted-keys/ and private-keys/ as children).
func New(dir string, opts ...Option) *Store {
	cache, _ := lru.New[string, string](trustedCacheSize)
	s := &Store{
		root:   dir,
		logger: log.New(os.Stderr, "enact/keystore: ", log.LstdFlags),
		cache:  cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) trustedDir() string { return filepath.Join(s.root, trustedKeysDir) }
func (s *Store) privateDir() string { return filepath.Join(s.root, privateKeysDir) }

func (s *Store) publicPath(keyID string) string  { return filepath.Join(s.trustedDir(), keyID+"-public.pem") }
func (s *Store) metaPath(keyID string) string    { return filepath.Join(s.trustedDir(), keyID+".meta") }
func (s *Store) privatePath(keyID string) string { return filepath.Join(s.privateDir(), keyID+"-private.pem") }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GenerateAndStore creates a fresh keypair and persists it. It fails if
// either the public or private file for keyID already exists.
func (s *Store) GenerateAndStore(keyID, description string) (KeyPair, error) {
	if fileExists(s.publicPath(keyID)) || fileExists(s.privatePath(keyID)) {
		return KeyPair{}, ErrAlreadyExists
	}
	kp, err := cryptoprim.GenerateKeyPair()
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := s.writeKeyFiles(keyID, kp.PublicKey, kp.PrivateKey, description); err != nil {
		return KeyPair{}, err
	}
	s.cache.Remove(keyID)
	return KeyPair{PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey}, nil
}

// ImportPublic writes only the public PEM and metadata for an externally
// supplied public key. It fails if a public key with keyID already exists.
func (s *Store) ImportPublic(keyID, pubHex, description string) error {
	if fileExists(s.publicPath(keyID)) {
		return ErrAlreadyExists
	}
	if err := s.ensureDir(s.trustedDir()); err != nil {
		return err
	}
	pemText, err := pemcodec.HexToPEM(pubHex, pemcodec.Public)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := s.writePublicAndMeta(keyID, pemText, description); err != nil {
		return err
	}
	s.cache.Remove(keyID)
	return nil
}

// ImportPrivate derives the public key from privHex and stores both files,
// as GenerateAndStore does for a freshly generated key.
func (s *Store) ImportPrivate(keyID, privHex, description string) (KeyPair, error) {
	if fileExists(s.publicPath(keyID)) || fileExists(s.privatePath(keyID)) {
		return KeyPair{}, ErrAlreadyExists
	}
	pubHex, err := cryptoprim.DerivePublic(privHex)
	if err != nil {
		return KeyPair{}, err
	}
	if err := s.writeKeyFiles(keyID, pubHex, privHex, description); err != nil {
		return KeyPair{}, err
	}
	s.cache.Remove(keyID)
	return KeyPair{PrivateKey: privHex, PublicKey: pubHex}, nil
}

// writeKeyFiles writes the public PEM, metadata, and private PEM, rolling
// back any files it managed to create if a later step fails.
func (s *Store) writeKeyFiles(keyID, pubHex, privHex, description string) (err error) {
	if err := s.ensureDir(s.trustedDir()); err != nil {
		return err
	}
	if err := s.ensureDir(s.privateDir()); err != nil {
		return err
	}

	pubPEM, err := pemcodec.HexToPEM(pubHex, pemcodec.Public)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	privPEM, err := pemcodec.HexToPEM(privHex, pemcodec.Private)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	var written []string
	rollback := func() {
		for _, p := range written {
			_ = os.Remove(p)
		}
	}

	if err := s.writePublicAndMeta(keyID, pubPEM, description); err != nil {
		rollback()
		return err
	}
	written = append(written, s.publicPath(keyID), s.metaPath(keyID))

	if err := os.WriteFile(s.privatePath(keyID), []byte(privPEM), 0o600); err != nil {
		rollback()
		_ = os.Remove(s.privatePath(keyID))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	return nil
}

func (s *Store) writePublicAndMeta(keyID, pubPEM, description string) error {
	if err := os.WriteFile(s.publicPath(keyID), []byte(pubPEM), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	meta := Metadata{
		KeyID:       keyID,
		Created:     time.Now().UTC().Format(time.RFC3339),
		Algorithm:   "secp256k1",
		Description: description,
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		_ = os.Remove(s.publicPath(keyID))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(s.metaPath(keyID), metaBytes, 0o644); err != nil {
		_ = os.Remove(s.publicPath(keyID))
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (s *Store) ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Printf("could not create %s: %v", dir, err)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Get returns both halves of a keypair, or (KeyPair{}, false) if either
// file is missing or unreadable.
func (s *Store) Get(keyID string) (KeyPair, bool) {
	pubHex, ok := s.GetPublic(keyID)
	if !ok {
		return KeyPair{}, false
	}
	privPEM, err := os.ReadFile(s.privatePath(keyID))
	if err != nil {
		return KeyPair{}, false
	}
	privHex, err := pemcodec.PEMToHex(string(privPEM), pemcodec.Private)
	if err != nil {
		return KeyPair{}, false
	}
	return KeyPair{PrivateKey: privHex, PublicKey: pubHex}, true
}

// GetPublic returns the public key hex for keyID, or ("", false) if the
// file is missing or unreadable.
func (s *Store) GetPublic(keyID string) (string, bool) {
	if cached, ok := s.cache.Get(keyID); ok {
		return cached, true
	}
	pemText, err := os.ReadFile(s.publicPath(keyID))
	if err != nil {
		return "", false
	}
	hexStr, err := pemcodec.PEMToHex(string(pemText), pemcodec.Public)
	if err != nil {
		s.logger.Printf("skipping unreadable trusted key %q: %v", keyID, err)
		return "", false
	}
	s.cache.Add(keyID, hexStr)
	return hexStr, true
}

// GetMetadata returns the stored metadata for keyID, or (nil, false) if
// absent or unparsable.
func (s *Store) GetMetadata(keyID string) (*Metadata, bool) {
	data, err := os.ReadFile(s.metaPath(keyID))
	if err != nil {
		return nil, false
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false
	}
	return &meta, true
}

// KeyExists reports whether both the public and private files for keyID
// are present.
func (s *Store) KeyExists(keyID string) bool {
	return fileExists(s.publicPath(keyID)) && fileExists(s.privatePath(keyID))
}

// Remove deletes any of the three files for keyID that exist, returning
// true if at least one was removed.
func (s *Store) Remove(keyID string) bool {
	removedAny := false
	for _, p := range []string{s.publicPath(keyID), s.metaPath(keyID), s.privatePath(keyID)} {
		if err := os.Remove(p); err == nil {
			removedAny = true
		}
	}
	s.cache.Remove(keyID)
	return removedAny
}

// ListWithPrivate returns the key IDs that have a private key on disk.
func (s *Store) ListWithPrivate() []string {
	entries, err := os.ReadDir(s.privateDir())
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if id, ok := strings.CutSuffix(e.Name(), "-private.pem"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ListTrusted returns the key IDs that have a public key on disk.
func (s *Store) ListTrusted() []string {
	entries, err := os.ReadDir(s.trustedDir())
	if err != nil {
		return nil
	}
	var ids []string
	for _, e := range entries {
		if id, ok := strings.CutSuffix(e.Name(), "-public.pem"); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetAllTrustedPublicHex enumerates every PEM file in the trusted-keys
// directory and decodes it to hex. Entries that fail to decode are
// skipped and logged; enumeration is never aborted by a single bad entry.
func (s *Store) GetAllTrustedPublicHex() []string {
	entries, err := os.ReadDir(s.trustedDir())
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".pem") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.trustedDir(), e.Name()))
		if err != nil {
			s.logger.Printf("skipping unreadable trusted key file %q: %v", e.Name(), err)
			continue
		}
		hexStr, err := pemcodec.PEMToHex(string(data), pemcodec.Public)
		if err != nil {
			s.logger.Printf("skipping undecodable trusted key file %q: %v", e.Name(), err)
			continue
		}
		out = append(out, hexStr)
	}
	return out
}

// AllPublicHex implements internal/signing.TrustSource.
func (s *Store) AllPublicHex() []string {
	return s.GetAllTrustedPublicHex()
}

// IsTrusted implements internal/signing.TrustSource.
func (s *Store) IsTrusted(pubHex string) bool {
	for _, pk := range s.GetAllTrustedPublicHex() {
		if strings.EqualFold(pk, pubHex) {
			return true
		}
	}
	return false
}

// ExportBundle is the JSON shape ExportToFile writes.
type ExportBundle struct {
	Metadata   Metadata `json:"metadata"`
	PublicKey  string   `json:"publicKey"`
	PrivateKey string   `json:"privateKey,omitempty"`
}

// ExportToFile writes a JSON bundle of keyID's metadata and public key
// (and private key, if includePrivate and present) to path.
func (s *Store) ExportToFile(keyID, path string, includePrivate bool) error {
	pubHex, ok := s.GetPublic(keyID)
	if !ok {
		return fmt.Errorf("%w: unknown key %q", ErrIO, keyID)
	}
	meta, ok := s.GetMetadata(keyID)
	if !ok {
		meta = &Metadata{KeyID: keyID, Algorithm: "secp256k1"}
	}
	bundle := ExportBundle{Metadata: *meta, PublicKey: pubHex}
	if includePrivate {
		if kp, ok := s.Get(keyID); ok {
			bundle.PrivateKey = kp.PrivateKey
		}
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
