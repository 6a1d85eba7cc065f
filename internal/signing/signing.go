// Package signing implements the canonicalizer and signing/verification
// service (component C4): it ties field selection (internal/fields) and
// byte serialization (internal/canonical) to the cryptographic primitives
// (internal/cryptoprim), and applies the trust and multi-signature policy
// during verification.
package signing

import (
	"encoding/hex"
	"time"

	"github.com/EnactProtocol/security-go/internal/canonical"
	"github.com/EnactProtocol/security-go/internal/cryptoprim"
	"github.com/EnactProtocol/security-go/internal/fields"
)

// Options mirrors the public SigningOptions shape without depending on the
// root package, avoiding an import cycle.
type Options struct {
	UseEnactDefaults         bool
	IncludeFields            []string
	ExcludeFields            []string
	AdditionalCriticalFields []string
}

func (o Options) activeDefaults() []fields.Config {
	if o.UseEnactDefaults {
		return fields.EnactDefaults
	}
	return fields.GenericDefaults
}

// ProvidedSignature is the minimal shape Verify needs from a caller-
// supplied Signature value.
type ProvidedSignature struct {
	SignatureHex string
	PublicKeyHex string
}

// Policy is the merged (allowLocalUnsigned, minimumSignatures) pair that
// governs verification.
type Policy struct {
	AllowLocalUnsigned bool
	MinimumSignatures  int
}

// TrustSource is the set of trusted public keys available to Verify. The
// boundary API satisfies this with the trusted-key store; the untrusted
// profile never constructs one.
type TrustSource interface {
	AllPublicHex() []string
	IsTrusted(pubHex string) bool
}

// Result is what Sign produces, including its sign-time timestamp; the
// root package wraps it in the public Signature type.
type Result struct {
	SignatureHex string
	PublicKeyHex string
	Timestamp    int64
}

// nowFunc is overridable in tests.
var nowFunc = func() int64 { return time.Now().Unix() }

// Project runs field selection and canonicalization, returning the ordered
// object that would be signed.
func Project(doc map[string]interface{}, opts Options) (*canonical.Object, error) {
	sel, err := fields.Resolve(doc, opts.IncludeFields, opts.ExcludeFields, opts.AdditionalCriticalFields, opts.activeDefaults())
	if err != nil {
		return nil, err
	}
	return fields.Project(doc, sel), nil
}

// CanonicalBytes projects doc and serializes it to canonical JSON bytes.
func CanonicalBytes(doc map[string]interface{}, opts Options) ([]byte, error) {
	obj, err := Project(doc, opts)
	if err != nil {
		return nil, err
	}
	return canonical.Marshal(obj)
}

// DigestHex projects, serializes, and SHA-256 hashes doc, returning the hex
// digest. This backs both Sign and CreateDocumentHash.
func DigestHex(doc map[string]interface{}, opts Options) (string, error) {
	data, err := CanonicalBytes(doc, opts)
	if err != nil {
		return "", err
	}
	digest := cryptoprim.Hash(data)
	return hex.EncodeToString(digest[:]), nil
}

// GetSignedFields returns the sorted field names the given options would
// select, independent of any particular document.
func GetSignedFields(opts Options) []string {
	sel := fields.SelectNames(opts.IncludeFields, opts.ExcludeFields, opts.AdditionalCriticalFields, opts.activeDefaults())
	return sel.Names
}

// Sign projects doc, hashes it, and produces a deterministic ECDSA
// signature with privHex.
func Sign(doc map[string]interface{}, privHex string, opts Options) (Result, error) {
	digestHex, err := DigestHex(doc, opts)
	if err != nil {
		return Result{}, err
	}
	sigHex, err := cryptoprim.Sign(privHex, digestHex)
	if err != nil {
		return Result{}, err
	}
	pubHex, err := cryptoprim.DerivePublic(privHex)
	if err != nil {
		return Result{}, err
	}
	return Result{SignatureHex: sigHex, PublicKeyHex: pubHex, Timestamp: nowFunc()}, nil
}

// Verify applies the trust and multi-signature policy and verifies doc
// against its attached signatures (or, if none are attached, the single
// providedSig; a providedSig with an empty SignatureHex counts as no
// signature at all). It never returns an error: every decoding or
// cryptographic failure collapses to false for that one signature.
func Verify(doc map[string]interface{}, docSignatures []ProvidedSignature, providedSig ProvidedSignature, opts Options, policy Policy, trust TrustSource) bool {
	sigs := docSignatures
	if len(sigs) == 0 && providedSig.SignatureHex != "" {
		sigs = []ProvidedSignature{providedSig}
	}

	n := len(sigs)
	m := policy.MinimumSignatures
	if n < m {
		return policy.AllowLocalUnsigned && n == 0
	}

	digestHex, err := DigestHex(doc, opts)
	if err != nil {
		return false
	}

	trusted := make(map[string]bool)
	var allTrusted []string
	if trust != nil {
		allTrusted = trust.AllPublicHex()
		for _, pk := range allTrusted {
			trusted[pk] = true
		}
	}

	for _, s := range sigs {
		if !verifyOne(s, digestHex, trusted, allTrusted) {
			return false
		}
	}
	return true
}

func verifyOne(s ProvidedSignature, digestHex string, trusted map[string]bool, allTrusted []string) bool {
	if s.PublicKeyHex != "" && trusted[s.PublicKeyHex] {
		return cryptoprim.Verify(s.PublicKeyHex, digestHex, s.SignatureHex)
	}
	// Fallback scan: the embedded key is missing, empty, or not trusted.
	for _, pk := range allTrusted {
		if cryptoprim.Verify(pk, digestHex, s.SignatureHex) {
			return true
		}
	}
	return false
}

// VerifyEmbeddedOnly implements the untrusted profile: it checks sig
// against only the public key embedded in the signature itself, with no
// trust store and no fallback scan.
func VerifyEmbeddedOnly(doc map[string]interface{}, sig ProvidedSignature, opts Options) bool {
	digestHex, err := DigestHex(doc, opts)
	if err != nil {
		return false
	}
	if sig.PublicKeyHex == "" {
		return false
	}
	return cryptoprim.Verify(sig.PublicKeyHex, digestHex, sig.SignatureHex)
}
