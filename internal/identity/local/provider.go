// Package local is a self-contained identity provider: bcrypt-hashed
// credentials held in process, HS256 JWTs for identity assertions.
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ludendorff/pkg/platform/sentinel"
)

type account struct {
	email    string
	hash     []byte
	disabled bool
}

type Provider struct {
	mu       sync.RWMutex
	accounts map[string]*account // subject id -> account
	byEmail  map[string]string   // email -> subject id
	secret   []byte
	expiry   time.Duration
}

func New(secret string, expiry time.Duration) *Provider {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Provider{
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		secret:   []byte(secret),
		expiry:   expiry,
	}
}

func (p *Provider) VerifyToken(_ context.Context, tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid token")
	}

	p.mu.RLock()
	acct, exists := p.accounts[claims.Subject]
	p.mu.RUnlock()
	if !exists {
		return "", sentinel.ErrNotFound
	}
	if acct.disabled {
		return "", fmt.Errorf("account disabled")
	}
	return claims.Subject, nil
}

// IssueToken signs an identity assertion for an existing account. Used by
// dev tooling and tests; production assertions come from the login flow.
func (p *Provider) IssueToken(subjectID string) (string, error) {
	p.mu.RLock()
	_, exists := p.accounts[subjectID]
	p.mu.RUnlock()
	if !exists {
		return "", sentinel.ErrNotFound
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *Provider) CreateUser(_ context.Context, email, password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, taken := p.byEmail[email]; taken {
		return "", sentinel.ErrConflict
	}
	subjectID := uuid.NewString()
	p.accounts[subjectID] = &account{email: email, hash: hash}
	p.byEmail[email] = subjectID
	return subjectID, nil
}

func (p *Provider) SetDisabled(_ context.Context, subjectID string, disabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, exists := p.accounts[subjectID]
	if !exists {
		return sentinel.ErrNotFound
	}
	acct.disabled = disabled
	return nil
}

func (p *Provider) DeleteUser(_ context.Context, subjectID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	acct, exists := p.accounts[subjectID]
	if !exists {
		return sentinel.ErrNotFound
	}
	delete(p.byEmail, acct.email)
	delete(p.accounts, subjectID)
	return nil
}

// CheckPassword verifies credentials for an account, for login flows built
// on top of this provider.
func (p *Provider) CheckPassword(email, password string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	subjectID, ok := p.byEmail[email]
	if !ok {
		return "", false
	}
	acct := p.accounts[subjectID]
	if acct.disabled {
		return "", false
	}
	if bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return "", false
	}
	return subjectID, true
}
