// Package cryptoprim implements the secp256k1 keypair, hashing, and compact
// ECDSA signing primitives the rest of the module builds on. The signing
// and verification entry points never panic on malformed input: verify
// degrades to false, mirroring the teacher's
// internal/crypto/algorithms/secp256k1 package, which keeps the same
// fail-closed, never-throw shape for Validate/ValidateWithCanonicality.
package cryptoprim

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// ErrInvalidKey is returned by Sign when the supplied private key is not a
// valid hex-encoded 32-byte secp256k1 scalar.
var ErrInvalidKey = errors.New("cryptoprim: invalid private key")

const (
	privateKeyHexLen = 64 // 32 bytes
	publicKeyHexLen  = 66 // 33 bytes, compressed
	compactSigHexLen = 128
)

// KeyPair is a generated secp256k1 keypair in lowercase hex.
type KeyPair struct {
	PrivateKey string
	PublicKey  string
}

// GenerateKeyPair samples a uniformly random valid secp256k1 scalar and
// derives its compressed public point. Candidate scalars are resampled on
// the practically-impossible chance of landing outside [1, order-1],
// mirroring the teacher's randomSecp256k1SecretKey retry loop.
func GenerateKeyPair() (KeyPair, error) {
	raw := make([]byte, 32)
	for {
		if _, err := rand.Read(raw); err != nil {
			return KeyPair{}, err
		}

		var scalar secp256k1.ModNScalar
		overflow := scalar.SetByteSlice(raw)
		if overflow || scalar.IsZero() {
			continue
		}

		priv, pub := btcec.PrivKeyFromBytes(raw)
		defer zero(priv)
		zeroBytes(raw)

		return KeyPair{
			PrivateKey: hex.EncodeToString(priv.Serialize()),
			PublicKey:  hex.EncodeToString(pub.SerializeCompressed()),
		}, nil
	}
}

// DerivePublic deterministically derives the compressed public key hex for
// a given private key hex.
func DerivePublic(privHex string) (string, error) {
	priv, err := decodePrivate(privHex)
	if err != nil {
		return "", err
	}
	defer zero(priv)
	return hex.EncodeToString(priv.PubKey().SerializeCompressed()), nil
}

// Hash returns the SHA-256 digest of data. Callers pass the canonical UTF-8
// bytes produced by the canonicalizer.
func Hash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Sign produces a deterministic (RFC-6979) compact ECDSA signature: the
// 64-byte (r || s) encoding, hex-encoded to 128 characters.
func Sign(privHex string, digestHex string) (string, error) {
	priv, err := decodePrivate(privHex)
	if err != nil {
		return "", err
	}
	defer zero(priv)

	digest, err := hex.DecodeString(normalizeHex(digestHex))
	if err != nil {
		return "", ErrInvalidKey
	}

	sig := ecdsa.Sign(priv, digest)
	r := sig.R().Bytes()
	s := sig.S().Bytes()

	var compact [64]byte
	copy(compact[0:32], r[:])
	copy(compact[32:64], s[:])
	return hex.EncodeToString(compact[:]), nil
}

// Verify reports whether sigHex is a valid compact ECDSA signature over
// digestHex by the holder of pubHex. It never panics: any malformed input
// (bad hex, wrong lengths, off-curve point) yields false.
func Verify(pubHex string, digestHex string, sigHex string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	pubBytes, err := hex.DecodeString(normalizeHex(pubHex))
	if err != nil || len(pubBytes) != 33 {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return false
	}

	digest, err := hex.DecodeString(normalizeHex(digestHex))
	if err != nil {
		return false
	}

	sigBytes, err := hex.DecodeString(normalizeHex(sigHex))
	if err != nil || len(sigBytes) != 64 {
		return false
	}

	var r, s secp256k1.ModNScalar
	r.SetByteSlice(sigBytes[0:32])
	s.SetByteSlice(sigBytes[32:64])
	sig := ecdsa.NewSignature(&r, &s)

	return sig.Verify(digest, pub)
}

func decodePrivate(privHex string) (*secp256k1.PrivateKey, error) {
	clean := normalizeHex(privHex)
	if len(clean) != privateKeyHexLen {
		return nil, ErrInvalidKey
	}
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return nil, ErrInvalidKey
	}
	defer zeroBytes(raw)

	scalar := new(secp256k1.ModNScalar)
	overflow := scalar.SetByteSlice(raw)
	if overflow || scalar.IsZero() {
		return nil, ErrInvalidKey
	}
	return secp256k1.NewPrivateKey(scalar), nil
}

func normalizeHex(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func zero(priv *secp256k1.PrivateKey) {
	if priv != nil {
		priv.Zero()
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
