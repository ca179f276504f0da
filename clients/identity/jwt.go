package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"convbackend/core"
	"convbackend/models"
)

const (
	issuer = "convbackend"

	// SessionTTL is the validity window of a minted session credential
	SessionTTL = 24 * time.Hour

	signingKeyInfo = "convbackend session signing v1"
	sealingKeyInfo = "convbackend access token sealing v1"
)

type sessionClaims struct {
	jwt.RegisteredClaims
	Username    string `json:"github_username"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	Picture     string `json:"picture,omitempty"`
	SealedToken string `json:"github_access_token"`
}

type keyMaterial struct {
	signingKey []byte
	sealingKey []byte
}

// JWTIdentityProvider implements the clients.IdentityProvider interface.
// Credentials are HS256 JWTs; the GitHub access token inside them is sealed
// with XChaCha20-Poly1305 so the cookie never exposes it, even base64-decoded.
type JWTIdentityProvider struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	keysOnce sync.Once
	keys     *keyMaterial
	keysErr  error
}

// NewJWTIdentityProvider creates a provider whose keys are derived from secret
func NewJWTIdentityProvider(secret string) *JWTIdentityProvider {
	return &JWTIdentityProvider{
		secret: []byte(secret),
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

// WithClock overrides the time source used for issuing and validating credentials
func (p *JWTIdentityProvider) WithClock(now func() time.Time) *JWTIdentityProvider {
	p.now = now
	return p
}

func (p *JWTIdentityProvider) Mint(
	ctx context.Context,
	subjectID string,
	claims models.SessionClaims,
) (models.SessionCredential, error) {
	keys, err := p.keyMaterial()
	if err != nil {
		return "", core.NewError(core.KindIdentityProviderUnavailable, "Identity provider unavailable", err)
	}

	sealed, err := seal(keys.sealingKey, subjectID, claims.AccessToken)
	if err != nil {
		return "", core.NewError(core.KindIdentityProviderUnavailable, "Identity provider unavailable", err)
	}

	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			ID:        core.NewID("sess"),
		},
		Username:    claims.User.Username,
		Name:        claims.User.DisplayName,
		Email:       claims.User.Email,
		Picture:     claims.User.AvatarURL,
		SealedToken: sealed,
	})

	tokenString, err := token.SignedString(keys.signingKey)
	if err != nil {
		return "", core.NewError(core.KindIdentityProviderUnavailable, "Identity provider unavailable",
			fmt.Errorf("failed to sign token: %w", err))
	}

	return models.SessionCredential(tokenString), nil
}

func (p *JWTIdentityProvider) Verify(ctx context.Context, credential models.SessionCredential) (*models.SessionClaims, error) {
	keys, err := p.keyMaterial()
	if err != nil {
		return nil, core.NewError(core.KindIdentityProviderUnavailable, "Identity provider unavailable", err)
	}

	parsed := &sessionClaims{}
	_, err = jwt.ParseWithClaims(
		string(credential),
		parsed,
		func(token *jwt.Token) (any, error) {
			return keys.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, core.NewError(core.KindSessionExpired, "Session expired", err)
		}
		return nil, core.NewError(core.KindSessionInvalid, "Invalid session", err)
	}

	if _, err := strconv.ParseInt(parsed.Subject, 10, 64); err != nil {
		return nil, core.NewError(core.KindSessionInvalid, "Invalid session", fmt.Errorf("unexpected subject %q", parsed.Subject))
	}

	accessToken, err := unseal(keys.sealingKey, parsed.Subject, parsed.SealedToken)
	if err != nil {
		return nil, core.NewError(core.KindSessionInvalid, "Invalid session", err)
	}

	return &models.SessionClaims{
		User: models.User{
			ID:          parsed.Subject,
			Username:    parsed.Username,
			DisplayName: parsed.Name,
			Email:       parsed.Email,
			AvatarURL:   parsed.Picture,
		},
		AccessToken: accessToken,
	}, nil
}

func (p *JWTIdentityProvider) keyMaterial() (*keyMaterial, error) {
	p.keysOnce.Do(func() {
		if len(p.secret) == 0 {
			p.keysErr = fmt.Errorf("session secret is empty")
			return
		}
		signingKey, err := deriveKey(p.secret, signingKeyInfo)
		if err != nil {
			p.keysErr = err
			return
		}
		sealingKey, err := deriveKey(p.secret, sealingKeyInfo)
		if err != nil {
			p.keysErr = err
			return
		}
		p.keys = &keyMaterial{signingKey: signingKey, sealingKey: sealingKey}
	})
	return p.keys, p.keysErr
}

func deriveKey(secret []byte, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// seal encrypts plaintext bound to subjectID. Output is base64url(nonce || ciphertext).
func seal(key []byte, subjectID, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), []byte(subjectID))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func unseal(key []byte, subjectID, encoded string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed token: %w", err)
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return "", fmt.Errorf("sealed token too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, []byte(subjectID))
	if err != nil {
		return "", fmt.Errorf("failed to open sealed token: %w", err)
	}
	return string(plaintext), nil
}
