package security

import (
	"log"
	"os"
	"path/filepath"

	"github.com/EnactProtocol/security-go/internal/canonical"
	"github.com/EnactProtocol/security-go/internal/cryptoprim"
	"github.com/EnactProtocol/security-go/internal/keystore"
	"github.com/EnactProtocol/security-go/internal/secconfig"
	"github.com/EnactProtocol/security-go/internal/signing"
)

// Enact is the trusted-host profile (component C7): it owns a persistent
// trusted-key store and a persistent security-config store rooted at a
// single host directory, and signs and verifies documents against them.
// The zero value is not usable; construct with New or Open.
type Enact struct {
	home   string
	keys   *keystore.Store
	config *secconfig.Store

	// trust is the trusted-key source Verify consults. It defaults to keys
	// itself; tests substitute a mock keystore.TrustedKeySource to
	// exercise Verify's policy logic without a filesystem.
	trust keystore.TrustedKeySource

	logger  *log.Logger
	verbose bool
}

// EnactOption configures an Enact instance.
type EnactOption func(*Enact)

// WithLogger overrides the default stderr logger.
func WithLogger(l *log.Logger) EnactOption {
	return func(e *Enact) { e.logger = l }
}

// WithVerbose enables a single local troubleshooting line on Verify
// failure. It never reveals which check failed — spec requires that a
// caller learn only that verification failed, never why.
func WithVerbose(v bool) EnactOption {
	return func(e *Enact) { e.verbose = v }
}

// New returns an Enact instance rooted at DefaultHome ($ENACT_HOME, or
// $HOME/.enact).
func New(opts ...EnactOption) *Enact {
	return Open(DefaultHome(), opts...)
}

// Open returns an Enact instance rooted at dir. The trusted-keys and
// private-keys directories are created lazily on the first key write;
// security/config.json is written with defaults by Open itself if it does
// not exist yet.
func Open(dir string, opts ...EnactOption) *Enact {
	keys := keystore.New(dir)
	e := &Enact{
		home:   dir,
		keys:   keys,
		config: secconfig.New(filepath.Join(dir, "security")),
		trust:  keys,
		logger: log.New(os.Stderr, "enact: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.config.Initialize()
	return e
}

func toSigningOptions(o SigningOptions) signing.Options {
	return signing.Options{
		UseEnactDefaults:         o.UseEnactDefaults,
		IncludeFields:            o.IncludeFields,
		ExcludeFields:            o.ExcludeFields,
		AdditionalCriticalFields: o.AdditionalCriticalFields,
	}
}

// Sign projects doc under opts, hashes it, and signs the digest with
// privHex, returning the Signature to attach under the document's
// "signatures" field.
func (e *Enact) Sign(doc Document, privHex string, opts SigningOptions) (Signature, error) {
	res, err := signing.Sign(doc.withoutSignatures(), privHex, toSigningOptions(opts))
	if err != nil {
		return Signature{}, err
	}
	return Signature{
		Signature: res.SignatureHex,
		PublicKey: res.PublicKeyHex,
		Algorithm: AlgorithmSecp256k1,
		Timestamp: res.Timestamp,
	}, nil
}

// Verify checks doc against its embedded "signatures" field (or, if that
// field is absent, against providedSig) under the persisted security
// policy and trusted-key store. The policy is reloaded from disk on every
// call, so an externally edited config.json or trusted-keys directory
// takes effect on the next Verify without restarting the process.
//
// An optional policyOverride merges over the persisted SecurityConfig (spec
// §4.4: "merge policy argument over the persistent SecurityConfig load,
// over defaults"). At most one override is consulted; passing more than one
// is a caller error and only the first is applied.
func (e *Enact) Verify(doc Document, providedSig Signature, opts SigningOptions, policyOverride ...PolicyOverride) bool {
	policy := e.loadPolicy(policyOverride...)
	docSigs := toProvidedSignatures(doc.Signatures())
	provided := signing.ProvidedSignature{SignatureHex: providedSig.Signature, PublicKeyHex: providedSig.PublicKey}
	ok := signing.Verify(doc.withoutSignatures(), docSigs, provided, toSigningOptions(opts), policy, e.trust)
	if !ok && e.verbose {
		e.logger.Printf("verification failed")
	}
	return ok
}

func (e *Enact) loadPolicy(override ...PolicyOverride) signing.Policy {
	cfg := e.config.Load()
	if len(override) > 0 {
		o := override[0]
		if o.AllowLocalUnsigned != nil {
			cfg.AllowLocalUnsigned = *o.AllowLocalUnsigned
		}
		if o.MinimumSignatures != nil {
			cfg.MinimumSignatures = *o.MinimumSignatures
		}
	}
	return signing.Policy{AllowLocalUnsigned: cfg.AllowLocalUnsigned, MinimumSignatures: cfg.MinimumSignatures}
}

func toProvidedSignatures(raw []interface{}) []signing.ProvidedSignature {
	var out []signing.ProvidedSignature
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			if obj, ok := item.(*canonical.Object); ok {
				m = objectToMap(obj)
			} else {
				continue
			}
		}
		sig, _ := m["signature"].(string)
		pub, _ := m["publicKey"].(string)
		out = append(out, signing.ProvidedSignature{SignatureHex: sig, PublicKeyHex: pub})
	}
	return out
}

func objectToMap(o *canonical.Object) map[string]interface{} {
	m := make(map[string]interface{}, o.Len())
	for _, p := range o.Pairs() {
		m[p.Key] = p.Value
	}
	return m
}

// CreateDocumentHash returns the hex SHA-256 digest of doc's canonical
// projection under opts, with no signing involved.
func (e *Enact) CreateDocumentHash(doc Document, opts SigningOptions) (string, error) {
	return signing.DigestHex(doc.withoutSignatures(), toSigningOptions(opts))
}

// CanonicalDocument is the projected, ordered mapping returned by
// GetCanonicalDocument, exposed for inspection and testing.
type CanonicalDocument struct {
	obj *canonical.Object
}

// Pairs returns the projected fields in the order they would be signed.
func (c CanonicalDocument) Pairs() []canonical.Pair {
	return c.obj.Pairs()
}

// Bytes returns the exact byte sequence that would be hashed and signed.
func (c CanonicalDocument) Bytes() ([]byte, error) {
	return canonical.Marshal(c.obj)
}

// GetCanonicalDocument projects doc under opts without hashing or signing
// it, for inspection and testing.
func (e *Enact) GetCanonicalDocument(doc Document, opts SigningOptions) (CanonicalDocument, error) {
	obj, err := signing.Project(doc.withoutSignatures(), toSigningOptions(opts))
	if err != nil {
		return CanonicalDocument{}, err
	}
	return CanonicalDocument{obj: obj}, nil
}

// GetSignedFields returns the sorted field names opts would select,
// independent of any particular document.
func (e *Enact) GetSignedFields(opts SigningOptions) []string {
	return signing.GetSignedFields(toSigningOptions(opts))
}

// GenerateKeyPair returns a fresh, unstored secp256k1 keypair.
func GenerateKeyPair() (KeyPair, error) {
	kp, err := cryptoprim.GenerateKeyPair()
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{PrivateKey: kp.PrivateKey, PublicKey: kp.PublicKey}, nil
}

// DerivePublic deterministically derives the compressed public key hex for
// privHex.
func DerivePublic(privHex string) (string, error) {
	return cryptoprim.DerivePublic(privHex)
}

// GenerateAndStore generates a fresh keypair and persists it under keyID.
func (e *Enact) GenerateAndStore(keyID, description string) (KeyPair, error) {
	return e.keys.GenerateAndStore(keyID, description)
}

// ImportPublic stores an externally supplied public key under keyID.
func (e *Enact) ImportPublic(keyID, pubHex, description string) error {
	return e.keys.ImportPublic(keyID, pubHex, description)
}

// ImportPrivate derives the public key from privHex and stores both halves
// under keyID.
func (e *Enact) ImportPrivate(keyID, privHex, description string) (KeyPair, error) {
	return e.keys.ImportPrivate(keyID, privHex, description)
}

// GetKey returns both halves of the keypair stored under keyID.
func (e *Enact) GetKey(keyID string) (KeyPair, bool) {
	return e.keys.Get(keyID)
}

// GetPublicKey returns the public key hex stored under keyID.
func (e *Enact) GetPublicKey(keyID string) (string, bool) {
	return e.keys.GetPublic(keyID)
}

// GetKeyMetadata returns the metadata stored alongside keyID.
func (e *Enact) GetKeyMetadata(keyID string) (*KeyMetadata, bool) {
	return e.keys.GetMetadata(keyID)
}

// KeyExists reports whether both halves of keyID are present in the store.
func (e *Enact) KeyExists(keyID string) bool {
	return e.keys.KeyExists(keyID)
}

// RemoveKey deletes any files stored under keyID.
func (e *Enact) RemoveKey(keyID string) bool {
	return e.keys.Remove(keyID)
}

// ListKeysWithPrivate returns the key IDs that have a private key on disk.
func (e *Enact) ListKeysWithPrivate() []string {
	return e.keys.ListWithPrivate()
}

// ListTrustedKeys returns the key IDs that have a public key on disk.
func (e *Enact) ListTrustedKeys() []string {
	return e.keys.ListTrusted()
}

// GetAllTrustedPublicHex returns every decodable public key in the trusted
// store, hex-encoded.
func (e *Enact) GetAllTrustedPublicHex() []string {
	return e.keys.GetAllTrustedPublicHex()
}

// ExportKeyToFile writes a JSON bundle of keyID's metadata and public key
// (and, if includePrivate, its private key) to path.
func (e *Enact) ExportKeyToFile(keyID, path string, includePrivate bool) error {
	return e.keys.ExportToFile(keyID, path, includePrivate)
}

// LoadSecurityConfig returns the persisted verification policy.
func (e *Enact) LoadSecurityConfig() SecurityConfig {
	return e.config.Load()
}

// SaveSecurityConfig persists cfg, merged with defaults for any unset
// fields.
func (e *Enact) SaveSecurityConfig(cfg SecurityConfig) bool {
	return e.config.Save(cfg)
}

// UpdateSecurityConfig loads the current policy, applies partial, and
// saves the result.
func (e *Enact) UpdateSecurityConfig(allowLocalUnsigned *bool, minimumSignatures *int) SecurityConfig {
	return e.config.Update(secconfig.Partial{AllowLocalUnsigned: allowLocalUnsigned, MinimumSignatures: minimumSignatures})
}

// ResetSecurityConfig overwrites the persisted policy with defaults.
func (e *Enact) ResetSecurityConfig() SecurityConfig {
	return e.config.Reset()
}

// ValidateSecurityConfig reports whether raw has the right shape to be
// unmarshaled into a SecurityConfig.
func ValidateSecurityConfig(raw map[string]interface{}) bool {
	return secconfig.Validate(raw)
}

// ImportSecurityConfig reads and validates a SecurityConfig from path.
func ImportSecurityConfig(path string) (*SecurityConfig, bool) {
	return secconfig.Import(path)
}

// ExportSecurityConfig writes cfg as JSON to path.
func ExportSecurityConfig(cfg SecurityConfig, path string) bool {
	return secconfig.Export(cfg, path)
}
