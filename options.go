package security

import "github.com/EnactProtocol/security-go/internal/fields"

// SigningOptions configures which fields of a document get selected for
// signing and verification. The same options must be used on both sides of
// a sign/verify pair for verification to succeed (Property P9).
type SigningOptions struct {
	// UseEnactDefaults selects the Enact tool-manifest default field set
	// when true, or the generic default set when false.
	UseEnactDefaults bool

	// IncludeFields, when non-nil, overrides the default field set
	// entirely: only these names are considered for selection.
	IncludeFields []string

	// ExcludeFields removes names from the selected set after
	// defaults/include are resolved.
	ExcludeFields []string

	// AdditionalCriticalFields appends extra names when defaults are in
	// effect. Ignored when IncludeFields is set.
	AdditionalCriticalFields []string

	// Algorithm is reserved; only "secp256k1" is supported.
	Algorithm string
}

const AlgorithmSecp256k1 = "secp256k1"

func (o SigningOptions) activeDefaults() []fields.Config {
	if o.UseEnactDefaults {
		return fields.EnactDefaults
	}
	return fields.GenericDefaults
}
