package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	actor := Actor{
		UserID: uuid.New(),
		Role:   RoleDoctor,
		Name:   "Dr. Smith",
		Email:  "smith@clinic.test",
	}

	raw, err := svc.Issue(actor)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	got, err := svc.Verify(raw)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got != actor {
		t.Errorf("round trip actor = %+v, want %+v", got, actor)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	raw, err := issuer.Issue(Actor{UserID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := verifier.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	raw, err := svc.Issue(Actor{UserID: uuid.New(), Role: RolePatient})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	raw, err := svc.Issue(Actor{UserID: uuid.New(), Role: Role("SUPERUSER")})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := svc.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestDoctorIDOnlyForDoctors(t *testing.T) {
	id := uuid.New()

	if got, ok := (Actor{UserID: id, Role: RoleDoctor}).DoctorID(); !ok || got != id {
		t.Error("doctor actor should expose its doctor id")
	}
	if _, ok := (Actor{UserID: id, Role: RolePatient}).DoctorID(); ok {
		t.Error("patient actor should not expose a doctor id")
	}
}
