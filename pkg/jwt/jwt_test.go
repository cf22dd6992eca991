package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/barkprotocol/blinkshare/config"
)

func testManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:  "test-secret-at-least-16-chars",
		SessionTTL: ttl,
	})
}

func TestGenerateAndParse(t *testing.T) {
	m := testManager(time.Hour)

	token, err := m.GenerateToken("1001", "owner", []string{"123456789012345678"})
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	if claims.UserID != "1001" || claims.Username != "owner" {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.OwnsGuild("123456789012345678") {
		t.Errorf("OwnsGuild 应为 true")
	}
	if claims.OwnsGuild("999999999999999999") {
		t.Errorf("未授权服务器 OwnsGuild 应为 false")
	}
}

func TestNewManagerDefaultTTL(t *testing.T) {
	// 未配置时回退 24h；负值不回退（否则无法构造已过期 Token）
	if m := testManager(0); m.sessionTTL != 24*time.Hour {
		t.Errorf("sessionTTL = %v, 期望 24h", m.sessionTTL)
	}
	if m := testManager(-time.Minute); m.sessionTTL != -time.Minute {
		t.Errorf("sessionTTL = %v, 负值不应被回退", m.sessionTTL)
	}
}

func TestParseExpiredToken(t *testing.T) {
	m := testManager(-time.Minute)

	token, err := m.GenerateToken("1001", "owner", nil)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	_, err = m.ParseToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, 期望 ErrTokenExpired", err)
	}
}

func TestParseTamperedToken(t *testing.T) {
	m := testManager(time.Hour)
	other := testManager(time.Hour)
	other.secret = []byte("another-secret-16-chars-long!!!!")

	token, err := other.GenerateToken("1001", "owner", nil)
	if err != nil {
		t.Fatalf("GenerateToken 失败: %v", err)
	}

	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, 期望 ErrTokenInvalid", err)
	}
}

func TestParseGarbage(t *testing.T) {
	m := testManager(time.Hour)
	if _, err := m.ParseToken("not.a.jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, 期望 ErrTokenInvalid", err)
	}
}

