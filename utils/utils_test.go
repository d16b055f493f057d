package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"eventhub/config"
)

func testManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		JWTSecret:  "test-secret",
		Issuer:     "eventhub-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
	})
}

// bcrypt: the right password matches, a wrong one does not.
func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("p@ssWord", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if !CheckPasswordHash("p@ssWord", hashed) {
		t.Fatalf("should match")
	}
	if CheckPasswordHash("hahaha", hashed) {
		t.Fatalf("should not match")
	}
}

func TestTokenPair_AccessRoundTrip(t *testing.T) {
	m := testManager()
	pair, err := m.GenerateTokenPair(87)
	if err != nil {
		t.Fatalf("gen token err: %v", err)
	}
	uid, err := m.VerifyAccessToken(pair.Access)
	if err != nil {
		t.Fatalf("verify err: %v", err)
	}
	if uid != 87 {
		t.Fatalf("want 87 got %d", uid)
	}

	claims, err := m.VerifyRefreshToken(pair.Refresh)
	if err != nil {
		t.Fatalf("verify refresh err: %v", err)
	}
	if claims.UserID != 87 || claims.ID == "" {
		t.Fatalf("unexpected refresh claims: %+v", claims)
	}
	if r := m.Remaining(claims); r <= 23*time.Hour || r > 24*time.Hour {
		t.Fatalf("unexpected remaining %v", r)
	}
}

func TestVerifyToken_WrongType(t *testing.T) {
	m := testManager()
	pair, _ := m.GenerateTokenPair(1)

	if _, err := m.VerifyAccessToken(pair.Refresh); err != ErrWrongTokenType {
		t.Fatalf("refresh token used as access: want ErrWrongTokenType, got %v", err)
	}
	if _, err := m.VerifyRefreshToken(pair.Access); err != ErrWrongTokenType {
		t.Fatalf("access token used as refresh: want ErrWrongTokenType, got %v", err)
	}
}

// A tampered token must fail verification.
func TestVerifyToken_Tampered_Fails(t *testing.T) {
	m := testManager()
	tok, err := m.GenerateAccessToken(99)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	if _, err := m.VerifyAccessToken(tok + "x"); err == nil {
		t.Fatalf("expect verify to fail on tampered token")
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	m := testManager()
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }
	tok, _ := m.GenerateAccessToken(5)
	m.now = time.Now

	if _, err := m.VerifyAccessToken(tok); err != ErrInvalidToken {
		t.Fatalf("want ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyToken_OtherSecretOrAlg(t *testing.T) {
	m := testManager()
	other := NewTokenManager(config.AuthConfig{JWTSecret: "other", Issuer: "eventhub-test", AccessTTL: time.Minute, RefreshTTL: time.Hour})
	tok, _ := other.GenerateAccessToken(3)
	if _, err := m.VerifyAccessToken(tok); err == nil {
		t.Fatalf("token signed with another secret must fail")
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 3, TokenType: TokenTypeAccess})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := m.VerifyAccessToken(unsigned); err == nil {
		t.Fatalf("alg=none must fail")
	}
}

func TestRedisBlacklist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	bl := NewRedisBlacklist(rdb)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh jti: revoked=%v err=%v", revoked, err)
	}

	ok, err := bl.Revoke(ctx, "jti-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first revoke: ok=%v err=%v", ok, err)
	}
	ok, err = bl.Revoke(ctx, "jti-1", time.Minute)
	if err != nil || ok {
		t.Fatalf("second revoke should report already revoked: ok=%v err=%v", ok, err)
	}
	if revoked, _ := bl.IsRevoked(ctx, "jti-1"); !revoked {
		t.Fatalf("jti-1 should be revoked")
	}

	// entries expire together with the token
	mr.FastForward(2 * time.Minute)
	if revoked, _ := bl.IsRevoked(ctx, "jti-1"); revoked {
		t.Fatalf("blacklist entry should have expired")
	}
}
