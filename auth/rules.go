package auth

// The V3 signed header set is computed from include rules over lowercase
// header names.
type headerRule interface {
	includes(name string) bool
}

// allowNames signs exactly the listed headers, when present.
type allowNames map[string]struct{}

func (r allowNames) includes(name string) bool {
	_, ok := r[name]
	return ok
}

// denyNames signs every header except the listed ones.
type denyNames map[string]struct{}

func (r denyNames) includes(name string) bool {
	_, ok := r[name]
	return !ok
}

var (
	minimalSignedHeaders = allowNames{
		"content-type": {},
		"host":         {},
	}

	// The session token never joins the signature, matching the platform
	// rule that x-tc-token stays outside the signed set.
	defaultSignedHeaders = denyNames{
		"authorization":  {},
		"content-length": {},
		"expect":         {},
		"user-agent":     {},
		"x-tc-token":     {},
	}
)
