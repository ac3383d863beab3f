package signs

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("secret")

	sig := signer.Sign("avatars/user-1.png", time.Hour)

	if err := signer.Verify(sig.Path, sig.ExpiresAt, sig.Token); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsTamperedPath(t *testing.T) {
	signer := NewSigner("secret")

	sig := signer.Sign("avatars/user-1.png", time.Hour)

	err := signer.Verify("avatars/user-2.png", sig.ExpiresAt, sig.Token)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyRejectsExtendedExpiry(t *testing.T) {
	signer := NewSigner("secret")

	sig := signer.Sign("avatars/user-1.png", time.Hour)

	err := signer.Verify(sig.Path, sig.ExpiresAt+3600, sig.Token)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("got %v, want ErrSignatureInvalid", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewSigner("secret")

	sig := signer.Sign("avatars/user-1.png", time.Hour)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	err := signer.Verify(sig.Path, sig.ExpiresAt, sig.Token)
	if !errors.Is(err, ErrSignatureExpired) {
		t.Fatalf("got %v, want ErrSignatureExpired", err)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	signer := NewSigner("secret")
	other := NewSigner("other")

	sig := signer.Sign("avatars/user-1.png", time.Hour)

	err := other.Verify(sig.Path, sig.ExpiresAt, sig.Token)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("got %v, want ErrSignatureInvalid", err)
	}
}
