// Package token issues and verifies the signed bearer tokens identifying API callers.
package token

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

// DefaultTTL is how long an issued token stays valid. There is no refresh.
const DefaultTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")

	signingMethod = jwt.SigningMethodHS256
)

// Identity is the verified content of a token.
type Identity struct {
	UserID int
	Role   user.Role
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role user.Role `json:"role"`
}

type Service struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	NowFunc func() time.Time // mockable
}

func NewService(conf *core.Config) *Service {
	ttl := conf.Server.JWTExpirationDelta
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret:  []byte(conf.SecretKey),
		issuer:  conf.AppName,
		ttl:     ttl,
		NowFunc: time.Now,
	}
}

// Issue generates a signed token for the user, expiring after the configured TTL.
func (svc *Service) Issue(userID int, role user.Role) (string, error) {
	now := svc.NowFunc()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    svc.issuer,
			Subject:   strconv.Itoa(userID),
			ExpiresAt: now.Add(svc.ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role: role,
	}
	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(svc.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Verify checks the token signature & expiry and returns the Identity it carries.
// Any failure is reported as ErrInvalidToken.
func (svc *Service) Verify(tokenString string) (Identity, error) {
	claims := new(Claims)
	parser := jwt.Parser{SkipClaimsValidation: true}
	tkn, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, ErrInvalidToken
		}
		return svc.secret, nil
	})
	if err != nil || !tkn.Valid {
		return Identity{}, ErrInvalidToken
	}

	// claims are validated against our own clock
	if !claims.VerifyExpiresAt(svc.NowFunc().Unix(), true) {
		return Identity{}, ErrInvalidToken
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: id, Role: claims.Role}, nil
}
