// Package auth implements the identity verifier consumed by the HTTP
// middleware and the websocket handshake.
package auth

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roomlink/messaging-platform/internal/model"
	"github.com/roomlink/messaging-platform/pkg/errors"
)

// Identity is the result of verifying a credential.
type Identity struct {
	ParticipantID uint64
	Role          model.Role
}

// Verifier turns a bearer credential into an authenticated participant.
type Verifier interface {
	Verify(credential string) (Identity, error)
}

// Claims represents JWT claims. The subject carries the decimal participant
// id.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTVerifier verifies HMAC-signed JWTs.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and extracts the participant
// identity.
func (v *JWTVerifier) Verify(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, errors.Unauthorized("missing credential")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(credential, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errors.Wrap(errors.CodeUnauthenticated, "invalid token", err)
	}

	participantID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, errors.Unauthorized("invalid token subject")
	}

	return Identity{
		ParticipantID: participantID,
		Role:          model.Role(claims.Role),
	}, nil
}
