// Package pemcodec converts between hex-encoded secp256k1 key material and
// PEM text, tolerating the handful of non-standard shapes third-party PEM
// producers emit. It deliberately does not run a general ASN.1 decoder:
// like the teacher's own key-loading code (internal/crypto/keylib-style
// PEM handling is absent from goXRPLd's XRPL key formats, but the same
// "scan for the tag sequence you expect, bail otherwise" approach is used
// throughout internal/crypto for DER signature parsing, see canonicality.go)
// this scans for a small set of known tag sequences.
package pemcodec

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"strings"

	"github.com/EnactProtocol/security-go/internal/cryptoprim"
)

// Kind selects which PEM label/DER shape to produce or expect.
type Kind int

const (
	Public Kind = iota
	Private
)

const (
	publicLabel  = "PUBLIC KEY"
	privateLabel = "PRIVATE KEY"
)

// ErrUnsupportedLength is returned when decoded PEM body bytes cannot be
// placed into any supported public-key shape.
var ErrUnsupportedLength = errors.New("pemcodec: unsupported key length")

// ErrMalformed is returned when PEM framing or hex/base64 decoding fails.
var ErrMalformed = errors.New("pemcodec: malformed input")

// secp256k1 AlgorithmIdentifier OID (1.2.840.10045.2.1, id-ecPublicKey)
// together with the named-curve OID (1.3.132.0.10, secp256k1), DER encoded
// as it appears inside a SubjectPublicKeyInfo structure.
var spkiAlgorithmIdentifier = []byte{
	0x30, 0x10, // SEQUENCE, len 16
	0x06, 0x07, 0x2a, 0x86, 0x48, 0xce, 0x3d, 0x02, 0x01, // OID id-ecPublicKey
	0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x0a, // OID secp256k1
}

// ecPrivateKeyAlgorithmIdentifier is the AlgorithmIdentifier encodePKCS8
// writes into the PKCS8 PrivateKeyInfo: a SEQUENCE holding only the
// secp256k1 named-curve OID. The decoder does not look for it; it scans
// for the scalar's octet string directly.
var ecPrivateKeyAlgorithmIdentifier = []byte{
	0x30, 0x07, // SEQUENCE, len 7
	0x06, 0x05, 0x2b, 0x81, 0x04, 0x00, 0x0a, // OID secp256k1
}

// IsPEM is a cheap structural check for the presence of BEGIN/END markers.
func IsPEM(s string) bool {
	return strings.Contains(s, "-----BEGIN") && strings.Contains(s, "-----END")
}

// HexToPEM encodes hexStr (a compressed public key for Public, or a 32-byte
// scalar for Private) as standard PEM text.
func HexToPEM(hexStr string, kind Kind) (string, error) {
	raw, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(hexStr)))
	if err != nil {
		return "", ErrMalformed
	}

	switch kind {
	case Public:
		body := append(append([]byte{}, spkiPrefix()...), raw...)
		return encodePEM(publicLabel, body), nil
	case Private:
		body, err := encodePKCS8(raw)
		if err != nil {
			return "", err
		}
		return encodePEM(privateLabel, body), nil
	default:
		return "", ErrMalformed
	}
}

func spkiPrefix() []byte {
	// SubjectPublicKeyInfo ::= SEQUENCE { algorithm, subjectPublicKey BIT STRING }
	// The BIT STRING header (tag 0x03, length, 0 unused bits) precedes the
	// 33-byte compressed point; the whole SEQUENCE length is computed below
	// from the header bytes plus the fixed 33-byte point size.
	inner := append(append([]byte{}, spkiAlgorithmIdentifier...), bitStringHeader(33)...)
	seq := append([]byte{0x30, byte(len(inner) + 33)}, inner...)
	return seq
}

func bitStringHeader(payloadLen int) []byte {
	return []byte{0x03, byte(payloadLen + 1), 0x00}
}

// encodePKCS8 emits a PKCS8 PrivateKeyInfo embedding the 32-byte scalar as
// an EC private key octet string, followed by the derived compressed
// public point as the ECPrivateKey's [1]-tagged publicKey element. This is one of
// two historically-observed byte-for-byte PKCS8 shapes for this key type
// (spec §9); the tolerant decoder below accepts both.
func encodePKCS8(scalar []byte) ([]byte, error) {
	if len(scalar) != 32 {
		return nil, ErrUnsupportedLength
	}
	pub, err := publicFromPrivate(scalar)
	if err != nil {
		return nil, err
	}

	// ECPrivateKey ::= SEQUENCE { version INTEGER, privateKey OCTET STRING,
	//                             [1] publicKey BIT STRING }
	octet := append([]byte{0x04, byte(len(scalar))}, scalar...)
	pubBitString := append(bitStringHeader(len(pub)), pub...)
	taggedPub := append([]byte{0xa1, byte(len(pubBitString))}, pubBitString...)

	ecKeyBody := append([]byte{0x02, 0x01, 0x01}, octet...) // version=1
	ecKeyBody = append(ecKeyBody, taggedPub...)
	ecKey := append([]byte{0x30, byte(len(ecKeyBody))}, ecKeyBody...)

	ecKeyOctet := append([]byte{0x04, byte(len(ecKey))}, ecKey...)

	privateKeyInfoBody := append([]byte{0x02, 0x01, 0x00}, ecPrivateKeyAlgorithmIdentifier...)
	privateKeyInfoBody = append(privateKeyInfoBody, ecKeyOctet...)
	return append([]byte{0x30, byte(len(privateKeyInfoBody))}, privateKeyInfoBody...), nil
}

// PEMToHex decodes PEM text back to hex, tolerating the shapes described in
// the package doc: strict PKIX/PKCS8, raw compressed, raw uncompressed, and
// raw bare scalars.
func PEMToHex(pemStr string, kind Kind) (string, error) {
	body, err := decodePEMBody(pemStr)
	if err != nil {
		return "", err
	}

	switch kind {
	case Public:
		return decodePublic(body)
	case Private:
		return decodePrivate(body)
	default:
		return "", ErrMalformed
	}
}

func decodePEMBody(pemStr string) ([]byte, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block != nil {
		return block.Bytes, nil
	}

	// Tolerate callers that hand us a bare base64 body without markers, or
	// markers with irregular whitespace pem.Decode rejects.
	stripped := stripPEMFraming(pemStr)
	raw, err := decodeBase64Loose(stripped)
	if err != nil {
		return nil, ErrMalformed
	}
	return raw, nil
}

func stripPEMFraming(s string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// decodeBase64Loose tries the standard and raw/url-safe base64 alphabets in
// turn, since some third-party PEM producers omit padding or use the
// URL-safe alphabet outside a proper PEM frame.
func decodeBase64Loose(s string) ([]byte, error) {
	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range encodings {
		if raw, err := enc.DecodeString(s); err == nil {
			return raw, nil
		} else {
			lastErr = err
		}
	}
	return nil, lastErr
}

func decodePublic(body []byte) (string, error) {
	// Shape 1: PKIX SubjectPublicKeyInfo carrying the fixed EC point bit
	// string; find the tag sequence and return the 33 bytes that follow.
	if idx := bytes.Index(body, spkiAlgorithmIdentifier); idx >= 0 {
		rest := body[idx+len(spkiAlgorithmIdentifier):]
		if len(rest) >= 3 && rest[0] == 0x03 {
			// BIT STRING: tag, length, unused-bits byte, then payload.
			bitLen := int(rest[1])
			if bitLen >= 1 && len(rest) >= 2+bitLen {
				point := rest[3 : 2+bitLen]
				if len(point) == 33 {
					return hex.EncodeToString(point), nil
				}
			}
		}
	}

	switch len(body) {
	case 33:
		if body[0] == 0x02 || body[0] == 0x03 {
			return hex.EncodeToString(body), nil
		}
	case 32:
		prefixed := append([]byte{0x02}, body...)
		return hex.EncodeToString(prefixed), nil
	case 65:
		if body[0] == 0x04 {
			x := body[1:33]
			y := body[33:65]
			prefix := byte(0x02)
			if y[len(y)-1]&1 == 1 {
				prefix = 0x03
			}
			compressed := append([]byte{prefix}, x...)
			return hex.EncodeToString(compressed), nil
		}
	}

	// Anything else between 32 and 65 bytes, inclusive, is returned as-is:
	// this also catches a literal 65-byte body that isn't 0x04-prefixed
	// uncompressed-point shape above.
	if len(body) > 32 && len(body) <= 65 {
		return hex.EncodeToString(body), nil
	}

	return "", ErrUnsupportedLength
}

func decodePrivate(body []byte) (string, error) {
	// PKCS8: locate the OCTET STRING that introduces the 32-byte scalar.
	// An ECPrivateKey's inner octet string is preceded by the 2-byte
	// header {0x04, 0x20} once unwrapped from the outer PKCS8 octet
	// string; scan for either nesting depth.
	if scalar := findOctetString32(body); scalar != nil {
		return hex.EncodeToString(scalar), nil
	}
	if len(body) == 32 {
		return hex.EncodeToString(body), nil
	}
	return "", ErrMalformed
}

// findOctetString32 scans for the DER tag sequence {0x04, 0x20} (OCTET
// STRING, length 32) and returns the 32 bytes that follow the first match.
// In both historical PKCS8 nesting variants (spec §9) every enclosing
// header precedes the scalar's own octet string and none has length 32,
// so the first match is the scalar; bytes inside the scalar or the public
// point that happen to read {0x04, 0x20} come later and are not used.
func findOctetString32(body []byte) []byte {
	for i := 0; i+1 < len(body); i++ {
		if body[i] == 0x04 && body[i+1] == 0x20 && i+2+32 <= len(body) {
			return body[i+2 : i+2+32]
		}
	}
	return nil
}

func publicFromPrivate(scalar []byte) ([]byte, error) {
	pubHex, err := cryptoprim.DerivePublic(hex.EncodeToString(scalar))
	if err != nil {
		return nil, ErrMalformed
	}
	return hex.DecodeString(pubHex)
}
