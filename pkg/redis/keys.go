package redis

import "strings"

// Every key lives under "se:<kind>:...". Blank parts are dropped.
const keyNamespace = "se"

const (
	kindIdempotency = "idempotency"
	kindRateLimit   = "rate_limit"
	kindLock        = "lock"
	kindLocal       = "local"
)

func (c *Client) IdempotencyKey(scope, id string) string {
	return key(kindIdempotency, scope, id)
}

func (c *Client) RateLimitKey(parts ...string) string {
	return key(kindRateLimit, parts...)
}

// LockKey names the key guarding an exclusive worker cycle.
func (c *Client) LockKey(name string) string {
	return key(kindLock, name)
}

// LocalKey maps a browser-style local storage key into a session namespace.
func (c *Client) LocalKey(namespace, name string) string {
	return key(kindLocal, namespace, name)
}

func key(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}
