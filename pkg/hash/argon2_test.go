package hash

import (
	"errors"
	"strings"
	"testing"
)

var testParams = Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestHashAndVerify(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("Senha@123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !IsHash(encoded) {
		t.Fatal("IsHash should accept own output")
	}

	ok, err := h.Verify("Senha@123", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify(correct) = %v, %v", ok, err)
	}
	ok, err = h.Verify("senha@123", encoded)
	if err != nil || ok {
		t.Fatalf("Verify(wrong) = %v, %v", ok, err)
	}
}

func TestVerifyUsesEmbeddedParams(t *testing.T) {
	encoded, err := NewHasher(testParams).Hash("x")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := NewHasher(DefaultParams).Verify("x", encoded)
	if err != nil || !ok {
		t.Fatalf("Verify across params = %v, %v", ok, err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	h := NewHasher(testParams)
	for _, in := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=x$m=1,t=1,p=1$a$b"} {
		if _, err := h.Verify("x", in); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidHash", in, err)
		}
	}
	if _, err := h.Verify("x", "$argon2id$v=1$m=1,t=1,p=1$YQ$Yg"); !errors.Is(err, ErrIncompatibleVersion) {
		t.Errorf("old version err = %v", err)
	}
}
