package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// UserIdentityExpiration is the default lifetime of an identity token.
	UserIdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "dmchat"
)

// ErrInvalidToken is returned for malformed, badly signed or expired tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// GenerateToken creates and signs a new JWT Token string based on the provided Payload struct.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken parses and validates the JWT Token string using the provided secretKey.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenService issues and verifies identity tokens over a single shared secret.
// It holds no state besides its configuration and is safe for concurrent use.
type TokenService struct {
	secret string
	ttl    time.Duration
}

// NewTokenService returns a TokenService; a non-positive ttl falls back to UserIdentityExpiration.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = UserIdentityExpiration
	}
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue signs a token binding username and userID.
func (s *TokenService) Issue(username, userID string) (string, error) {
	return GenerateToken(&Payload{ID: userID, Username: username}, s.secret, s.ttl)
}

// Parse verifies the token and returns its claims.
func (s *TokenService) Parse(token string) (*Payload, error) {
	payload, err := ParseToken(token, s.secret)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}

// Validate reports whether the signature verifies and the token has not expired.
func (s *TokenService) Validate(token string) bool {
	_, err := s.Parse(token)
	return err == nil
}

// UserID returns the user ID bound in a valid token.
func (s *TokenService) UserID(token string) (string, error) {
	payload, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return payload.ID, nil
}

// Username returns the username bound in a valid token.
func (s *TokenService) Username(token string) (string, error) {
	payload, err := s.Parse(token)
	if err != nil {
		return "", err
	}
	return payload.Username, nil
}
