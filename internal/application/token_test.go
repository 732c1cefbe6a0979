package application

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	issuer := NewTokenIssuer("secret", 0, func() time.Time { return now })

	token, expiresAt, err := issuer.Issue(User{ID: "user-1", Role: RoleFaculty})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if !expiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	subject, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("expected subject user-1, got %q", subject)
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
	current := now
	issuer := NewTokenIssuer("secret", time.Hour, func() time.Time { return current })
	token, _, err := issuer.Issue(User{ID: "user-1", Role: RoleStudent})
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	t.Run("empty token", func(t *testing.T) {
		if _, err := issuer.Parse(""); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other", time.Hour, func() time.Time { return now })
		if _, err := other.Parse(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}).SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		if _, err := issuer.Parse(forged); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewTokenIssuer("secret", time.Hour, func() time.Time { return now.Add(2 * time.Hour) })
		if _, err := expired.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	})
}
