// internal/identity/identity.go
package identity

import (
	"crypto/ed25519"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the HttpOnly cookie carrying the signed identity token.
// The browser resends it automatically; client script can neither read nor
// rewrite it, so message content can never forge an identity.
const CookieName = "quizbuzz_token"

// Provider mints and verifies opaque client identities. Each identity is a
// server-generated uuid wrapped in an ed25519-signed JWT; the keypair is
// fresh per process, so tokens die with the process like the rooms do.
type Provider struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expire     time.Duration // 0 => no exp claim
}

// NewProvider generates a runtime keypair. expire of zero means tokens
// never expire.
func NewProvider(expire time.Duration) (*Provider, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Provider{privateKey: priv, publicKey: pub, expire: expire}, nil
}

// NewProviderFromPath reads an ed25519 keypair from disk, for deployments
// that want identities to survive a restart of the process.
func NewProviderFromPath(privatePath, publicPath string, expire time.Duration) (*Provider, error) {
	privData, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	pubData, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	return &Provider{
		privateKey: ed25519.PrivateKey(privData),
		publicKey:  ed25519.PublicKey(pubData),
		expire:     expire,
	}, nil
}

// CreateToken signs a JWT with "sub" = id.
func (p *Provider) CreateToken(id uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub": id.String(),
	}
	if p.expire > 0 {
		claims["exp"] = time.Now().Add(p.expire).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(p.privateKey)
}

// VerifyToken checks the signature and returns the embedded identity.
func (p *Provider) VerifyToken(tokenString string) (uuid.UUID, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return uuid.Nil, fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid identity in token: %w", err)
	}
	return id, nil
}

// Ensure resolves the caller's identity. A valid cookie token is reused;
// otherwise a fresh identity is minted and set on the response. Must run
// before the response is hijacked (i.e. before a websocket upgrade) so the
// Set-Cookie header still reaches the client.
func (p *Provider) Ensure(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if id, verr := p.VerifyToken(c.Value); verr == nil {
			return id, nil
		}
		// Invalid or expired token: fall through and reissue.
	}

	id := uuid.New()
	token, err := p.CreateToken(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to mint identity token: %w", err)
	}
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	}
	if p.expire > 0 {
		cookie.MaxAge = int(p.expire.Seconds())
	}
	http.SetCookie(w, cookie)
	return id, nil
}
