package application

import (
	"errors"
	"strconv"
	"testing"
)

var testArgon2Params = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("GenerateCode returned error: %v", err)
		}
		n, err := strconv.Atoi(code)
		if len(code) != 6 || err != nil || n < 100000 || n > 999999 {
			t.Fatalf("unexpected code %q", code)
		}
	}
}

func TestHashAndCompareCode(t *testing.T) {
	t.Parallel()

	hash, err := HashCode("123456", testArgon2Params)
	if err != nil {
		t.Fatalf("HashCode returned error: %v", err)
	}
	if err := CompareCode(hash, "123456"); err != nil {
		t.Fatalf("expected matching code, got %v", err)
	}
	if err := CompareCode(hash, "654321"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}

	other, err := HashCode("123456", testArgon2Params)
	if err != nil {
		t.Fatalf("HashCode returned error: %v", err)
	}
	if other == hash {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestCompareCodeRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	for _, encoded := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=1$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$m=1,t=1,p=1$!!$aGFzaA"} {
		if err := CompareCode(encoded, "123456"); !errors.Is(err, ErrInvalidCodeHash) {
			t.Fatalf("%q: expected ErrInvalidCodeHash, got %v", encoded, err)
		}
	}
}
