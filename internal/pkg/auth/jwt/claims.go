package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims issued to an authenticated user.
type Payload struct {
	// StandardClaims carries exp, iat and iss.
	jwt.StandardClaims

	// ID is the user's identity in the user store.
	ID string `json:"id"`

	// Username is the login name the token was issued for.
	Username string `json:"username"`
}
