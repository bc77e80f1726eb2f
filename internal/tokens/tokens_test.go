package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/docflow/review-service/internal/models"
	"github.com/docflow/review-service/pkg/middleware"
)

const secret = "test-secret-32-bytes-should-be-long-enough"

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	iss := NewIssuer(secret, "review-service", 2*time.Minute)
	a := models.Actor{ID: "A1", Role: models.RoleApprover, Email: "a1@example.com"}
	tokenStr, err := iss.GenerateAccessToken(a)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	tok, err := NewHMACVerifier(secret, "review-service").Verify(context.Background(), tokenStr)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		t.Fatalf("Claims error: %v", err)
	}
	got, ok := middleware.ActorFromClaims(claims)
	if !ok {
		t.Fatalf("claims carry no subject: %v", claims)
	}
	if got != a {
		t.Fatalf("unexpected actor: got=%+v want=%+v", got, a)
	}
}

func TestVerify_Expired(t *testing.T) {
	iss := NewIssuer(secret, "", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tokenStr, err := iss.GenerateAccessToken(models.Actor{ID: "u2", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := NewHMACVerifier(secret, "").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	tokenStr, err := NewIssuer(secret, "", time.Minute).GenerateAccessToken(models.Actor{ID: "u3"})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := NewHMACVerifier("different-secret-xxxxxxxxxxxxxxxx", "").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verify to fail with wrong secret")
	}
}

func TestVerify_WrongIssuerFails(t *testing.T) {
	tokenStr, err := NewIssuer(secret, "someone-else", time.Minute).GenerateAccessToken(models.Actor{ID: "u3"})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := NewHMACVerifier(secret, "review-service").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verify to fail for foreign issuer")
	}
}

func TestVerify_Malformed(t *testing.T) {
	if _, err := NewHMACVerifier(secret, "").Verify(context.Background(), "not.a.jwt"); err == nil {
		t.Fatalf("expected verify to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","role":"admin","exp":9999999999}`))
	if _, err := NewHMACVerifier(secret, "").Verify(context.Background(), headerEnc+"."+payloadEnc+"."); err == nil {
		t.Fatalf("expected verify to reject alg=none token")
	}
}

// Raising the role in the payload must fail signature verification
func TestVerify_TamperedPayload(t *testing.T) {
	tokenStr, err := NewIssuer(secret, "", 5*time.Minute).GenerateAccessToken(models.Actor{ID: "user-t", Role: models.RoleUser})
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), `"user"`, `"admin"`, 1)))
	if _, err := NewHMACVerifier(secret, "").Verify(context.Background(), strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

func TestGenerateAccessToken_NoSecret(t *testing.T) {
	if _, err := NewIssuer("", "", time.Minute).GenerateAccessToken(models.Actor{ID: "x"}); err == nil {
		t.Fatalf("expected error without secret")
	}
}
