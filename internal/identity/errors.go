package identity

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind classifies a verification or lookup failure. The fallback cascade
// dispatches on Kind, never on error message text: classification happens
// once, at the boundary where the underlying crypto/transport library is
// invoked.
type Kind int

const (
	KindUnknown Kind = iota

	// KindDecoder marks a cryptographic-stack incompatibility: TLS record
	// or handshake failures against the key endpoint, unparseable
	// certificates, broken PEM material. This is the only kind that opens
	// the verification fallback cascade.
	KindDecoder

	// KindNetwork marks a transient transport failure: reset, refused,
	// timeout, DNS. Opens the degraded role-resolution path only.
	KindNetwork

	// KindExpired is provider-terminal: the token's lifetime has passed.
	KindExpired

	// KindInvalid is provider-terminal: malformed token, bad signature,
	// wrong audience or issuer.
	KindInvalid

	// KindDisabled is provider-terminal: the account exists but is
	// disabled.
	KindDisabled

	// KindNotFound marks an absent record, distinct from any transport
	// failure.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindDecoder:
		return "decoder"
	case KindNetwork:
		return "network"
	case KindExpired:
		return "expired"
	case KindInvalid:
		return "invalid"
	case KindDisabled:
		return "disabled"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the typed error crossing the identity boundary. Code mirrors the
// upstream provider's machine-readable code where one exists, so clients
// keep the error vocabulary they already handle.
type Error struct {
	Kind Kind
	Code string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a typed Error.
func E(kind Kind, code, op string, err error) *Error {
	return &Error{Kind: kind, Code: code, Op: op, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown when err carries none.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindUnknown
}

// CodeOf extracts the provider code from err, or "" when err carries none.
func CodeOf(err error) string {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ""
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Provider-mirrored codes.
const (
	CodeTokenExpired  = "auth/id-token-expired"
	CodeTokenInvalid  = "auth/invalid-id-token"
	CodeArgument      = "auth/argument-error"
	CodeUserDisabled  = "auth/user-disabled"
	CodeUserNotFound  = "auth/user-not-found"
	CodeInternal      = "auth/internal-error"
	CodeNetwork       = "auth/network-error"
	CodeDecoderFailed = "auth/decoder-error"
)

// ClassifyJWT maps a golang-jwt parse/verify failure into the taxonomy.
// Keyfunc failures that are already typed keep their kind, so a decoder
// failure fetching public keys surfaces as KindDecoder here.
func ClassifyJWT(op string, err error) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}
	switch {
	case errors.Is(err, jwtv5.ErrTokenExpired):
		return E(KindExpired, CodeTokenExpired, op, err)
	case errors.Is(err, jwtv5.ErrTokenMalformed):
		return E(KindInvalid, CodeArgument, op, err)
	case errors.Is(err, jwtv5.ErrTokenNotValidYet),
		errors.Is(err, jwtv5.ErrTokenSignatureInvalid),
		errors.Is(err, jwtv5.ErrTokenInvalidAudience),
		errors.Is(err, jwtv5.ErrTokenInvalidIssuer),
		errors.Is(err, jwtv5.ErrTokenInvalidClaims):
		return E(KindInvalid, CodeTokenInvalid, op, err)
	case errors.Is(err, jwtv5.ErrTokenUnverifiable):
		// Keyfunc error without a kind of its own: treat as transport.
		return ClassifyTransport(op, err)
	default:
		return E(KindInvalid, CodeTokenInvalid, op, err)
	}
}

// ClassifyTransport maps a transport-layer failure into the taxonomy.
// TLS and certificate-material problems are decoder-kind; everything that
// smells of a flaky network is network-kind.
func ClassifyTransport(op string, err error) *Error {
	var ie *Error
	if errors.As(err, &ie) {
		return ie
	}

	var (
		recordErr    tls.RecordHeaderError
		certErr      x509.CertificateInvalidError
		authorityErr x509.UnknownAuthorityError
	)
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || errors.As(err, &authorityErr) {
		return E(KindDecoder, CodeDecoderFailed, op, err)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return E(KindNetwork, CodeNetwork, op, err)
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) {
		return E(KindNetwork, CodeNetwork, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return E(KindNetwork, CodeNetwork, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return E(KindNetwork, CodeNetwork, op, err)
	}

	return E(KindUnknown, CodeInternal, op, err)
}
