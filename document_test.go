package security

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EnactProtocol/security-go/internal/canonical"
)

func TestParseDocumentPreservesNestedOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"name":"tool","command":"run","env":{"b":"2","a":"1"}}`))
	require.NoError(t, err)
	require.Equal(t, "tool", doc["name"])
	require.Equal(t, "run", doc["command"])

	env, ok := doc["env"].(*canonical.Object)
	require.True(t, ok)
	require.Equal(t, "b", env.Pairs()[0].Key)
	require.Equal(t, "a", env.Pairs()[1].Key)
}

func TestDocumentSignaturesReturnsNilWhenAbsent(t *testing.T) {
	doc := Document{"name": "tool"}
	require.Nil(t, doc.Signatures())
}

func TestDocumentSignaturesReturnsAttachedSequence(t *testing.T) {
	doc := Document{"name": "tool", "signatures": []interface{}{map[string]interface{}{"signature": "ab", "publicKey": "cd"}}}
	sigs := doc.Signatures()
	require.Len(t, sigs, 1)
}

func TestWithoutSignaturesDropsTheField(t *testing.T) {
	doc := Document{"name": "tool", "signatures": []interface{}{}}
	stripped := doc.withoutSignatures()
	_, ok := stripped["signatures"]
	require.False(t, ok)
	require.Equal(t, "tool", stripped["name"])
}
