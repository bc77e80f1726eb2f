package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/review-service/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// unverifiedToken carries claims whose signature was never checked.
type unverifiedToken struct {
	claims jwt.MapClaims
}

func (t *unverifiedToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// InsecureVerifier does NOT validate signatures. It is meant for local runs
// against a Keycloak realm whose keys are not reachable, and is enabled with
// AUTH_INSECURE_TOKENS=true. Subject, expiry and (when set) issuer are still
// enforced so reviewers cannot act under an empty or stale identity.
type InsecureVerifier struct {
	issuer string
	now    func() time.Time
}

// NewInsecureVerifier accepts tokens from issuer, or from anyone when issuer
// is empty.
func NewInsecureVerifier(issuer string) *InsecureVerifier {
	return &InsecureVerifier{issuer: issuer, now: time.Now}
}

func (v *InsecureVerifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("unverified token: %w", err)
	}
	if sub, _ := claims.GetSubject(); sub == "" {
		return nil, errors.New("unverified token: missing subject")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("unverified token: %w", err)
	}
	if exp != nil && !v.now().Before(exp.Time) {
		return nil, jwt.ErrTokenExpired
	}
	if v.issuer != "" {
		if iss, _ := claims.GetIssuer(); iss != v.issuer {
			return nil, fmt.Errorf("unverified token: issuer %q not accepted", iss)
		}
	}
	return &unverifiedToken{claims: claims}, nil
}
