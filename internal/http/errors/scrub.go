package errors

import "regexp"

// Error text that reaches a response body may embed upstream provider
// messages. Those occasionally carry credential material (a private key
// block from a misparsed service account, an API key baked into a URL, a
// bearer token echoed by a proxy). Scrub strips anything credential-like
// before the text leaves the process.

var scrubPatterns = []*regexp.Regexp{
	// PEM blocks, including escaped-newline variants
	regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`),
	// key/token/secret query or form parameters
	regexp.MustCompile(`(?i)\b(key|api[_-]?key|token|secret|password|assertion)=[^\s&"']+`),
	// bearer credentials in header dumps
	regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/-]+=*`),
	// anything that looks like a JWT
	regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9._-]+`),
}

const redacted = "[REDACTED]"

// Scrub removes credential-like substrings from s.
func Scrub(s string) string {
	for _, re := range scrubPatterns {
		s = re.ReplaceAllString(s, redacted)
	}
	return s
}
