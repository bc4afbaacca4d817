package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	errs "HelloChat/tools/errs"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options controls verification parameters.
type Options struct {
	Secret []byte // HMAC key (from env/KMS in production)
	Alg    string // HS256/HS384/HS512, default HS256
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256"}
}

// ConnClaims is what a socket handshake token must carry.
type ConnClaims struct {
	UserID    int64
	TokenType string
	IsActive  bool
	ExpiresAt time.Time
}

// VerifyConnToken validates the bearer token a client sends as its first
// frame after connect. Refresh tokens are not accepted on sockets. Expired
// and malformed tokens map to distinct coded errors so the endpoint can
// close with a distinguishing reason.
func VerifyConnToken(opts Options, token string) (*ConnClaims, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return nil, err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		if t.Method.Alg() != method.Alg() {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, errs.ErrTokenExpired
		}
		return nil, errs.ErrTokenInvalid.WithDetail(err.Error())
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errs.ErrTokenInvalid
	}

	out := &ConnClaims{}
	switch id := claims["id"].(type) {
	case float64:
		out.UserID = int64(id)
	default:
		return nil, errs.ErrTokenInvalid.WithDetail("missing id claim")
	}
	if t, _ := claims["type"].(string); t == "refresh" {
		return nil, errs.ErrTokenInvalid.WithDetail("refresh token on socket")
	} else {
		out.TokenType = t
	}
	if v, ok := claims["is_active"].(bool); ok {
		out.IsActive = v
	} else {
		out.IsActive = true
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return out, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
