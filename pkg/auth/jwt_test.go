package auth

import (
	"testing"
	"time"
)

func TestGenerateParse(t *testing.T) {
	t.Run("round trip preserves claims", func(t *testing.T) {
		token, err := Generate(7, "alice", true, time.Hour)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		claims, err := Parse(token)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if claims.UserID != 7 || claims.Username != "alice" || !claims.IsAdmin {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token, err := Generate(1, "bob", false, -time.Minute)
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if _, err := Parse(token); err == nil {
			t.Error("expected expired token to be invalid")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if _, err := Parse("not-a-token"); err == nil {
			t.Error("expected parse error")
		}
	})
}
