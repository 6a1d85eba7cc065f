// Package testutil holds fixtures shared by this module's _test.go files:
// a sample tool-manifest document and a throwaway keypair generator, so
// every package's tests build the same shape of document instead of each
// hand-rolling its own.
package testutil

import (
	"testing"

	"github.com/EnactProtocol/security-go/internal/cryptoprim"

	"github.com/stretchr/testify/require"
)

// SampleEnactDocument returns a document carrying every field EnactDefaults
// requires.
func SampleEnactDocument() map[string]interface{} {
	return map[string]interface{}{
		"name":        "my-tool",
		"command":     "echo hi",
		"description": "a sample tool",
	}
}

// MustGenerateKeyPair generates a keypair or fails the test.
func MustGenerateKeyPair(t *testing.T) cryptoprim.KeyPair {
	t.Helper()
	kp, err := cryptoprim.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}
