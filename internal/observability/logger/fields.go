package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// STANDARD FIELDS - HTTP
// =================================================================================

// RequestID field for the request ID.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method field for the HTTP method.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path field for the request path.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status field for the HTTP status code.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration field for the request duration.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// DurationMs field for the duration in milliseconds.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes field for response bytes written.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ClientIP field for the client address.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// =================================================================================
// STANDARD FIELDS - AUTH
// =================================================================================

// UserID field for the subject identifier.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Email field for the user email (use sparingly in prod).
func Email(v string) zap.Field {
	return zap.String("email", v)
}

// Role field for the resolved authorization role.
func Role(v string) zap.Field {
	return zap.String("role", v)
}

// Provenance field for the verification tier that produced a claim.
func Provenance(v string) zap.Field {
	return zap.String("provenance", v)
}

// Tier field for the fallback tier being attempted.
func Tier(v string) zap.Field {
	return zap.String("tier", v)
}

// =================================================================================
// STANDARD FIELDS - SYSTEM
// =================================================================================

// Component field for the component/module name.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op field for the current operation.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err field for an error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Key field for a generic key.
func Key(v string) zap.Field {
	return zap.String("key", v)
}

// String generic string field.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Int generic int field.
func Int(key string, v int) zap.Field {
	return zap.Int(key, v)
}

// Bool generic bool field.
func Bool(key string, v bool) zap.Field {
	return zap.Bool(key, v)
}
