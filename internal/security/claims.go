package security

import (
	"errors"
	"time"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the verified caller. UserID is the numeric account id carried
// in the "uid" claim.
type Principal struct {
	UserID int64
	Role   string
	Ver    int64
	Exp    time.Time
	Issuer string
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (Principal, error)
}
