package security

import (
	"errors"

	"github.com/EnactProtocol/security-go/internal/cryptoprim"
	"github.com/EnactProtocol/security-go/internal/fields"
	"github.com/EnactProtocol/security-go/internal/keystore"
	"github.com/EnactProtocol/security-go/internal/pemcodec"
	"github.com/EnactProtocol/security-go/internal/secconfig"
)

// Re-exported sentinel errors. Consumers match these with errors.Is/As
// rather than importing the internal packages directly.
var (
	// ErrInvalidKey is returned by Sign when the private key is not a
	// valid secp256k1 scalar.
	ErrInvalidKey = cryptoprim.ErrInvalidKey

	// ErrUnsupportedPEMLength and ErrMalformedPEM are returned by the PEM
	// codec when input cannot be placed into any supported shape.
	ErrUnsupportedPEMLength = pemcodec.ErrUnsupportedLength
	ErrMalformedPEM         = pemcodec.ErrMalformed

	// ErrKeyAlreadyExists is returned by GenerateAndStore/ImportPublic
	// when a key with the given ID is already present in the store.
	ErrKeyAlreadyExists = keystore.ErrAlreadyExists

	// ErrStoreIO is returned by key-store write paths on failure, after
	// best-effort rollback of any partially written file.
	ErrStoreIO = keystore.ErrIO

	// ErrConfigIO wraps a failed security-config write inside the config
	// store. SaveSecurityConfig reports such a failure by returning false,
	// not by returning this error.
	ErrConfigIO = secconfig.ErrIO

	errNotAnObject = errors.New("security: top-level JSON value is not an object")
)

// MissingRequiredField reports the name of a required field that was
// absent or empty when signing or canonicalizing a document.
type MissingRequiredField = fields.MissingRequiredError
