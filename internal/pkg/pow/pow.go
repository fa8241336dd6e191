/*
Package pow implements an optional proof-of-work gate in front of account
registration.

A client fetches a nonce, searches for a counter such that
sha256(nonce + counter) starts with `difficulty` hex zeros, and trades the
solution for a short-lived, single-use proof token. The registration route
then requires that token. A difficulty of 0 disables the gate.
*/
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/resp"
)

const (
	// TokenHeaderKey is the HTTP header carrying the proof token.
	TokenHeaderKey = "X-PoW-Token"

	// ProofTokenDuration is how long an issued proof token stays usable.
	ProofTokenDuration = 30 * time.Second

	// NonceExpiryDuration is how long a challenge nonce stays solvable.
	NonceExpiryDuration = 5 * time.Minute

	sweepInterval = time.Minute
)

var (
	// ErrNonceInvalid is returned for unknown, expired or already used nonces.
	ErrNonceInvalid = errors.New("nonce expired or invalid")

	// ErrProofInsufficient is returned when the hash misses the difficulty target.
	ErrProofInsufficient = errors.New("proof does not meet difficulty requirement")
)

// Challenge is handed to a client that must solve a proof of work.
type Challenge struct {
	Nonce      string `json:"nonce"`
	Difficulty int    `json:"difficulty"`
}

// Manager issues challenges and proof tokens. It is safe for concurrent use.
type Manager struct {
	difficulty int

	mu     sync.Mutex
	nonces map[string]time.Time
	tokens map[string]time.Time

	now func() time.Time
}

// NewManager creates a Manager. Its sweep goroutine stops when ctx is done.
func NewManager(ctx context.Context, difficulty int) *Manager {
	m := &Manager{
		difficulty: difficulty,
		nonces:     make(map[string]time.Time),
		tokens:     make(map[string]time.Time),
		now:        time.Now,
	}

	if m.Enabled() {
		go m.sweep(ctx)
	}

	return m
}

// Enabled reports whether a proof is required at all.
func (m *Manager) Enabled() bool {
	return m.difficulty > 0
}

// NewChallenge registers and returns a fresh nonce.
func (m *Manager) NewChallenge() Challenge {
	nonce := uuid.New().String()

	m.mu.Lock()
	m.nonces[nonce] = m.now().Add(NonceExpiryDuration)
	m.mu.Unlock()

	return Challenge{Nonce: nonce, Difficulty: m.difficulty}
}

// Solves reports whether counter solves nonce at difficulty.
func Solves(nonce, counter string, difficulty int) bool {
	hash := sha256.Sum256([]byte(nonce + counter))
	return strings.HasPrefix(hex.EncodeToString(hash[:]), strings.Repeat("0", difficulty))
}

// Verify checks a solution and, if it holds, consumes the nonce and issues a proof token.
func (m *Manager) Verify(nonce, counter string) (string, error) {
	if !Solves(nonce, counter, m.difficulty) {
		return "", ErrProofInsufficient
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.nonces[nonce]
	if !ok || m.now().After(expiry) {
		return "", ErrNonceInvalid
	}
	delete(m.nonces, nonce)

	token := uuid.New().String()
	m.tokens[token] = m.now().Add(ProofTokenDuration)
	return token, nil
}

// Redeem consumes the proof token carried by r, from the X-PoW-Token header
// or the pow_token query parameter. A token is accepted once.
func (m *Manager) Redeem(r *http.Request) bool {
	token := r.Header.Get(TokenHeaderKey)
	if token == "" {
		token = r.URL.Query().Get("pow_token")
	}
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	expiry, ok := m.tokens[token]
	if !ok {
		return false
	}
	delete(m.tokens, token)

	return !m.now().After(expiry)
}

// Middleware requires a valid proof token when the gate is enabled.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Enabled() && !m.Redeem(r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) sweep(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.removeExpired()
		}
	}
}

func (m *Manager) removeExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for nonce, expiry := range m.nonces {
		if now.After(expiry) {
			delete(m.nonces, nonce)
		}
	}
	for token, expiry := range m.tokens {
		if now.After(expiry) {
			delete(m.tokens, token)
		}
	}
}
