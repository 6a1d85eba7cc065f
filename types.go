package security

import (
	"github.com/EnactProtocol/security-go/internal/keystore"
	"github.com/EnactProtocol/security-go/internal/secconfig"
)

// Signature is a single signature over a document's canonicalized bytes.
type Signature struct {
	Signature string `json:"signature"`
	PublicKey string `json:"publicKey"`
	Algorithm string `json:"algorithm"`
	Timestamp int64  `json:"timestamp"`
}

// KeyPair is a generated or imported secp256k1 keypair, hex-encoded.
type KeyPair = keystore.KeyPair

// KeyMetadata describes a key stored in the trusted-key store.
type KeyMetadata = keystore.Metadata

// SecurityConfig is the persisted verification policy: how many valid
// signatures a document must carry, and whether a completely unsigned
// document is accepted locally.
type SecurityConfig = secconfig.Config

// DefaultSecurityConfig is the configuration used when none has been
// persisted yet.
func DefaultSecurityConfig() SecurityConfig {
	return secconfig.Defaults()
}

// PolicyOverride carries caller-specified overrides for a single Verify
// call. Fields left nil fall through to the persisted SecurityConfig (which
// itself falls through to DefaultSecurityConfig for anything never saved),
// per spec §4.4's "merge policy argument over the persistent SecurityConfig
// load, over defaults". Pointer fields distinguish "not specified" from a
// deliberate false/0, which a plain SecurityConfig value can't.
type PolicyOverride = secconfig.Partial
