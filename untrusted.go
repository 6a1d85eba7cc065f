package security

import "github.com/EnactProtocol/security-go/internal/signing"

// VerifyUntrusted implements the untrusted profile: it checks sig against
// only the public key embedded in the signature itself. There is no
// trusted-key store, no fallback scan over other trusted keys, and no
// persisted security policy — callers who need those hold an Enact
// instance instead.
func VerifyUntrusted(doc Document, sig Signature, opts SigningOptions) bool {
	provided := signing.ProvidedSignature{SignatureHex: sig.Signature, PublicKeyHex: sig.PublicKey}
	return signing.VerifyEmbeddedOnly(doc.withoutSignatures(), provided, toSigningOptions(opts))
}

// SignUntrusted signs doc with privHex under opts, with no store or policy
// involved. It is the same operation Enact.Sign performs, exposed as a
// package-level function for callers that never construct an Enact
// instance.
func SignUntrusted(doc Document, privHex string, opts SigningOptions) (Signature, error) {
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
