package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignUntrustedThenVerifyUntrustedSucceeds(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}

	sig, err := SignUntrusted(doc, kp.PrivateKey, opts)
	require.NoError(t, err)
	require.True(t, VerifyUntrusted(doc, sig, opts))
}

func TestVerifyUntrustedFailsWithTamperedDocument(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}
	sig, err := SignUntrusted(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	doc["command"] = "rm -rf /"
	require.False(t, VerifyUntrusted(doc, sig, opts))
}

func TestVerifyUntrustedFailsWithoutEmbeddedPublicKey(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	doc := sampleToolDoc()
	opts := SigningOptions{UseEnactDefaults: true}
	sig, err := SignUntrusted(doc, kp.PrivateKey, opts)
	require.NoError(t, err)

	sig.PublicKey = ""
	require.False(t, VerifyUntrusted(doc, sig, opts))
}
