package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EnactProtocol/security-go/testutil"
)

func sampleToolDoc() Document {
	return Document(testutil.SampleEnactDocument())
}

func TestSignThenVerifyViaEnactWithGeneratedAndTrustedKey(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("signer", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	sig, err := e.Sign(doc, kp.PrivateKey, opts)
	require.NoError(t, err)
	require.Equal(t, AlgorithmSecp256k1, sig.Algorithm)
	require.Equal(t, kp.PublicKey, sig.PublicKey)

	require.True(t, e.Verify(doc, sig, opts))
}

func TestVerifyFailsForUntrustedSigner(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	sig, err := SignUntrusted(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	require.False(t, e.Verify(doc, sig, opts))
}

func TestVerifyUsesEmbeddedDocumentSignaturesOverProvided(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("embedded-signer", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}
	sig, err := e.Sign(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	doc["signatures"] = []interface{}{
		map[string]interface{}{"signature": sig.Signature, "publicKey": sig.PublicKey},
	}

	require.True(t, e.Verify(doc, Signature{}, opts))
}

func TestAllowLocalUnsignedPolicyDefault(t *testing.T) {
	e := Open(t.TempDir())
	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	require.True(t, e.Verify(doc, Signature{}, opts))
}

func TestUpdateSecurityConfigForbidsUnsignedDocuments(t *testing.T) {
	e := Open(t.TempDir())
	allow := false
	e.UpdateSecurityConfig(&allow, nil)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}
	require.False(t, e.Verify(doc, Signature{}, opts))
}

func TestCreateDocumentHashIsStableAcrossCalls(t *testing.T) {
	e := Open(t.TempDir())
	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	h1, err := e.CreateDocumentHash(doc, opts)
	require.NoError(t, err)
	h2, err := e.CreateDocumentHash(doc, opts)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}

func TestGetCanonicalDocumentOrdersSelectedFields(t *testing.T) {
	e := Open(t.TempDir())
	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	canon, err := e.GetCanonicalDocument(doc, opts)
	require.NoError(t, err)

	var keys []string
	for _, p := range canon.Pairs() {
		keys = append(keys, p.Key)
	}
	require.Equal(t, []string{"command", "description", "name"}, keys)
}

func TestGetSignedFieldsMatchesActiveDefaults(t *testing.T) {
	e := Open(t.TempDir())
	names := e.GetSignedFields(SigningOptions{UseEnactDefaults: true})
	require.Contains(t, names, "command")
}

func TestKeyStorePassthroughOperations(t *testing.T) {
	e := Open(t.TempDir())
	require.False(t, e.KeyExists("walt"))

	kp, err := e.GenerateAndStore("walt", "a key")
	require.NoError(t, err)
	require.True(t, e.KeyExists("walt"))

	got, ok := e.GetKey("walt")
	require.True(t, ok)
	require.Equal(t, kp.PrivateKey, got.PrivateKey)

	meta, ok := e.GetKeyMetadata("walt")
	require.True(t, ok)
	require.Equal(t, "a key", meta.Description)

	require.Contains(t, e.ListKeysWithPrivate(), "walt")
	require.Contains(t, e.ListTrustedKeys(), "walt")
	require.Contains(t, e.GetAllTrustedPublicHex(), kp.PublicKey)

	require.True(t, e.RemoveKey("walt"))
	require.False(t, e.KeyExists("walt"))
}

func TestVerifyPolicyOverrideRelaxesPersistedConfig(t *testing.T) {
	e := Open(t.TempDir())
	allow := false
	e.UpdateSecurityConfig(&allow, nil)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	require.False(t, e.Verify(doc, Signature{}, opts))

	relax := true
	require.True(t, e.Verify(doc, Signature{}, opts, PolicyOverride{AllowLocalUnsigned: &relax}))
}

func TestVerifyPolicyOverrideTightensPersistedConfig(t *testing.T) {
	e := Open(t.TempDir())
	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	require.True(t, e.Verify(doc, Signature{}, opts))

	strict := false
	require.False(t, e.Verify(doc, Signature{}, opts, PolicyOverride{AllowLocalUnsigned: &strict, MinimumSignatures: intPtr(1)}))
}

func TestVerifyPolicyOverrideLeavesUnsetFieldsAtPersistedValue(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("override-signer", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}
	sig, err := e.Sign(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	// Only AllowLocalUnsigned is overridden; MinimumSignatures stays at the
	// persisted 1. The signature is valid and trusted, so tightening
	// AllowLocalUnsigned (irrelevant here) leaves the outcome unchanged.
	strict := false
	require.True(t, e.Verify(doc, sig, opts, PolicyOverride{AllowLocalUnsigned: &strict}))
}

func intPtr(n int) *int { return &n }

func TestSignThenVerifyWithIncludeFieldsIgnoresUnselectedFieldMutation(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("include-fields-signer", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{IncludeFields: []string{"command"}}

	sig, err := e.Sign(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	doc["description"] = "a completely different description"
	require.True(t, e.Verify(doc, sig, opts))
}

func TestSignThenVerifyWithIncludeFieldsDetectsSelectedFieldMutation(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("include-fields-signer-2", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{IncludeFields: []string{"command"}}

	sig, err := e.Sign(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	doc["command"] = "rm -rf /"
	require.False(t, e.Verify(doc, sig, opts))
}

func TestVerifyFailsWhenIncludeFieldsDifferBetweenSignerAndVerifier(t *testing.T) {
	e := Open(t.TempDir())
	kp, err := e.GenerateAndStore("include-fields-mismatch-signer", "")
	require.NoError(t, err)

	doc := sampleToolDoc()
	signOpts := SigningOptions{IncludeFields: []string{"command"}}
	verifyOpts := SigningOptions{IncludeFields: []string{"command", "description"}}

	sig, err := e.Sign(doc, kp.PrivateKey, signOpts)
	require.NoError(t, err)

	require.False(t, e.Verify(doc, sig, verifyOpts))
}

func TestSecurityConfigPassthroughOperations(t *testing.T) {
	e := Open(t.TempDir())
	cfg := e.LoadSecurityConfig()
	require.Equal(t, DefaultSecurityConfig(), cfg)

	min := 3
	updated := e.UpdateSecurityConfig(nil, &min)
	require.Equal(t, 3, updated.MinimumSignatures)

	reset := e.ResetSecurityConfig()
	require.Equal(t, DefaultSecurityConfig(), reset)
}
