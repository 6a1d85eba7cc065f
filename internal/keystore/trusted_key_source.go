package keystore

// TrustedKeySource is the read-only view of a trusted-key store that the
// signing/verification service depends on. *Store implements it directly;
// boundary-API tests substitute a generated mock to simulate store
// failures (corrupt entries, an empty store) without touching a
// filesystem.
type TrustedKeySource interface {
	AllPublicHex() []string
	IsTrusted(pubHex string) bool
}
