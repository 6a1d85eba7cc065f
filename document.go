// Package security implements the Enact document-signing library: a
// canonicalization and signature engine over a policy-selected subset of a
// structured document's fields, plus a trusted-key store and
// security-policy store for the host profile that needs persistent trust
// state.
package security

import "github.com/EnactProtocol/security-go/internal/canonical"

// Document is a free-form structured record: a mapping from field name to
// an arbitrary JSON-shaped value. Values parsed via ParseDocument preserve
// the key order of nested objects from their source JSON text; values
// built programmatically as plain map[string]interface{} are serialized
// with their nested keys sorted, since there is no other order to
// preserve.
type Document map[string]interface{}

// ParseDocument decodes raw JSON bytes into a Document, preserving the key
// order of nested objects so that canonicalization's "serialized as
// parsed, not re-sorted" contract for nested values holds for documents
// that arrive as JSON (the common case for tool manifests exchanged over
// the wire).
func ParseDocument(data []byte) (Document, error) {
	v, err := canonical.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*canonical.Object)
	if !ok {
		return nil, errNotAnObject
	}
	doc := make(Document, obj.Len())
	for _, p := range obj.Pairs() {
		doc[p.Key] = p.Value
	}
	return doc, nil
}

// Signatures returns the document's "signatures" field as a slice, or nil
// if absent or not a sequence. An empty sequence is returned as is.
func (d Document) Signatures() []interface{} {
	v, ok := d["signatures"]
	if !ok {
		return nil
	}
	switch seq := v.(type) {
	case []interface{}:
		return seq
	default:
		return nil
	}
}

// withoutSignatures returns a shallow copy of d with the "signatures" key
// removed, since it must never be part of the signed byte sequence even
// when present (spec invariant: signatures is never itself included in the
// signed bytes).
func (d Document) withoutSignatures() map[string]interface{} {
	out := make(map[string]interface{}, len(d))
	for k, v := range d {
		if k == "signatures" {
			continue
		}
		out[k] = v
	}
	return out
}
