package token

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/educonnect-africa/auth-service/config"
)

// Claims is the identity a session token asserts.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

// Signer issues and parses signed session tokens. The signing key is
// process-wide configuration loaded once at startup; rotating it
// invalidates every outstanding token.
type Signer interface {
	Sign(claims Claims, ttl time.Duration) (string, error)
	Parse(token string) (*jwt.Token, jwt.MapClaims, error)
}

type jwtSigner struct {
	cfg       *config.Config
	hmacKey   []byte
	private   *rsa.PrivateKey
	publicKey *rsa.PublicKey
}

func NewSigner(cfg *config.Config) (Signer, error) {
	s := &jwtSigner{cfg: cfg}
	if cfg.JWTSecret != "" {
		s.hmacKey = []byte(cfg.JWTSecret)
		return s, nil
	}
	if cfg.JWTPrivateKey != "" && cfg.JWTPublicKey != "" {
		priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.JWTPrivateKey))
		if err != nil {
			return nil, err
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, err
		}
		s.private = priv
		s.publicKey = pub
		return s, nil
	}
	return nil, errors.New("jwt secret or key pair required")
}

func (s *jwtSigner) Sign(claims Claims, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.GetSigningMethod(s.method()))
	now := time.Now().UTC()
	std := token.Claims.(jwt.MapClaims)
	std["sub"] = claims.UserID
	std["email"] = claims.Email
	std["role"] = claims.Role
	std["iss"] = s.cfg.JWTIssuer
	std["aud"] = s.cfg.JWTAudience
	std["iat"] = now.Unix()
	std["exp"] = now.Add(ttl).Unix()
	return s.sign(token)
}

func (s *jwtSigner) Parse(tokenStr string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(jwt.WithAudience(s.cfg.JWTAudience), jwt.WithIssuer(s.cfg.JWTIssuer), jwt.WithLeeway(30*time.Second))
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if s.hmacKey != nil {
			return s.hmacKey, nil
		}
		return s.publicKey, nil
	})
	return token, claims, err
}

func (s *jwtSigner) sign(token *jwt.Token) (string, error) {
	if s.hmacKey != nil {
		return token.SignedString(s.hmacKey)
	}
	if s.private == nil {
		return "", errors.New("private key not configured")
	}
	return token.SignedString(s.private)
}

func (s *jwtSigner) method() string {
	if s.hmacKey != nil {
		return jwt.SigningMethodHS256.Alg()
	}
	return jwt.SigningMethodRS256.Alg()
}
