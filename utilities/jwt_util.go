package utilities

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"enquete-backend/internal/model"
)

// Token expiration time for tokens minted by TokenIssuer.
const AccessTokenExpiry = time.Hour * 12

var (
	ErrMissingSecret = errors.New("token secret is not configured")
	ErrInvalidToken  = errors.New("invalid or malformed token")
)

// Claims struct
type Claims struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Account converts the claims into the caller identity.
func (c *Claims) Account() *model.Account {
	return &model.Account{ID: c.AccountID, Username: c.Username, Email: c.Email}
}

// TokenIssuer signs and validates HS256 bearer tokens shared with the
// identity provider.
type TokenIssuer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// GenerateToken creates an access token for account.
func (ti *TokenIssuer) GenerateToken(account model.Account) (string, error) {
	if len(ti.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := ti.now()
	claims := &Claims{
		AccountID: account.ID,
		Username:  account.Username,
		Email:     account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    ti.issuer,
			Subject:   strconv.FormatUint(uint64(account.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// ValidateToken verifies the token and extracts claims
func (ti *TokenIssuer) ValidateToken(tokenStr string) (*Claims, error) {
	if len(ti.secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	}
	if ti.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ti.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.AccountID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
