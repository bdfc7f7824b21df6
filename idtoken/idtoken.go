// Package idtoken extracts display claims from federated provider ID
// tokens (Google, Apple) without verifying their signature.
//
// The tokens handled here were already verified by the remote identity
// service before the engine ever sees them; this package only recovers
// the human-facing claims (email, name) that profile bootstrap needs.
// Never use it to make an authorization decision.
package idtoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when the raw token cannot be decoded at all.
var ErrMalformed = errors.New("idtoken: malformed token")

// Claims carries the subset of ID-token claims profile bootstrap consumes.
type Claims struct {
	Subject string
	Email   string
	Name    string

	// GivenName and FamilyName are present on Google tokens and preferred
	// over splitting Name when both are set.
	GivenName  string
	FamilyName string
}

// Parse decodes raw without signature verification and returns its
// display claims. Unknown or missing claims are left empty rather than
// treated as errors; only an undecodable token fails.
func Parse(raw string) (*Claims, error) {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformed
	}

	return &Claims{
		Subject:    stringClaim(mapClaims, "sub"),
		Email:      stringClaim(mapClaims, "email"),
		Name:       stringClaim(mapClaims, "name"),
		GivenName:  stringClaim(mapClaims, "given_name"),
		FamilyName: stringClaim(mapClaims, "family_name"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return value
}
