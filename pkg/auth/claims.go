package auth

import "github.com/golang-jwt/jwt/v5"

// SessionClaims identify an anonymous storefront session. The session key
// scopes the server cart and the notification inbox.
type SessionClaims struct {
	SessionKey string `json:"sk"`
	jwt.RegisteredClaims
}

// SessionHeader carries the signed session token on requests and responses.
const SessionHeader = "X-Session-Token"
