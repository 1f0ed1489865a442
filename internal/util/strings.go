// Package util provides small helpers shared across the interceptor library.
package util

// TruncateSecret returns a loggable prefix of a credential. Tokens and CSRF
// states must never appear whole in logs; eight characters is enough to
// correlate log lines without weakening the secret.
func TruncateSecret(s string) string {
	const keep = 8
	if len(s) <= keep {
		return s
	}
	return s[:keep]
}
