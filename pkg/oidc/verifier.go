// Package oidc verifies GitHub Actions OIDC tokens presented by CI jobs.
package oidc

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const (
	GitHubActionsIssuer = "https://token.actions.githubusercontent.com"
	DefaultAudience     = "api://littlesteps-ai"

	jwksCacheKey    = "jwks"
	defaultCacheTTL = time.Hour
)

var (
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRepositoryMismatch = errors.New("token repository is not allowed")
)

// Claims carries the GitHub-specific claims next to the registered ones.
type Claims struct {
	Repository      string `json:"repository"`
	RepositoryOwner string `json:"repository_owner"`
	Ref             string `json:"ref"`
	Workflow        string `json:"workflow"`
	jwt.RegisteredClaims
}

// TokenVerifier is what the cleanup job depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (*Claims, error)
}

type Config struct {
	// Issuer defaults to GitHubActionsIssuer. Only tests point it elsewhere.
	Issuer     string
	Audience   string
	Repository string
	// JWKSURL defaults to Issuer + "/.well-known/jwks".
	JWKSURL    string
	HTTPClient *http.Client
	CacheTTL   time.Duration
}

type Verifier struct {
	cfg    Config
	client *http.Client
	keys   *cache.Cache
}

var _ TokenVerifier = (*Verifier)(nil)

func NewVerifier(cfg Config) *Verifier {
	if cfg.Issuer == "" {
		cfg.Issuer = GitHubActionsIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.JWKSURL == "" {
		cfg.JWKSURL = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks"
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		cfg:    cfg,
		client: client,
		keys:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Verify checks signature, issuer, audience and expiry, then the repository
// claim. A token that is valid but from another repository, or any token
// when no repository is configured, returns ErrRepositoryMismatch; every other failure wraps ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*Claims, error) {
	if rawToken == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			return v.publicKey(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// An unset expected repository admits nobody.
	if v.cfg.Repository == "" || claims.Repository != v.cfg.Repository {
		return claims, ErrRepositoryMismatch
	}
	return claims, nil
}

// publicKey looks kid up in the cached key set and refetches once on a miss
// so that issuer key rotation is picked up.
func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if keys, ok := v.cachedKeys(); ok {
		if key, ok := keys[kid]; ok {
			return key, nil
		}
	}

	keys, err := v.fetchKeys(ctx)
	if err != nil {
		return nil, err
	}
	v.keys.SetDefault(jwksCacheKey, keys)

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key for kid %q", kid)
	}
	return key, nil
}

func (v *Verifier) cachedKeys() (map[string]*rsa.PublicKey, bool) {
	cached, ok := v.keys.Get(jwksCacheKey)
	if !ok {
		return nil, false
	}
	keys, ok := cached.(map[string]*rsa.PublicKey)
	return keys, ok
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

func (v *Verifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		key, err := rsaKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no usable RSA keys")
	}
	return keys, nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(e)
	if !exponent.IsInt64() || exponent.Int64() < 3 {
		return nil, errors.New("bad exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(exponent.Int64()),
	}, nil
}
