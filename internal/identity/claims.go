package identity

// Provenance records which verification tier produced a claim. It travels
// with the claim so downstream authorization can apply stricter policy to
// lower-assurance results.
type Provenance string

const (
	// ProvenanceVerified: cryptographic signature verification succeeded.
	ProvenanceVerified Provenance = "verified"

	// ProvenanceLookup: the provider's account-lookup endpoint confirmed
	// the token server-side.
	ProvenanceLookup Provenance = "lookup"

	// ProvenanceUnverified: structural decode only, no signature check.
	// Produced exclusively under the non-production or allow-list gates.
	ProvenanceUnverified Provenance = "unverified"
)

// Claim is the result of verifying a bearer identity token.
type Claim struct {
	UID        string
	Email      string
	Role       string // from provider custom attributes, may be empty
	Provenance Provenance
}

// LowAssurance reports whether this claim was produced without signature
// verification. Callers must not treat a low-assurance claim as equivalent
// to a verified one.
func (c *Claim) LowAssurance() bool {
	return c.Provenance == ProvenanceUnverified
}
