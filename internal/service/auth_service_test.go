package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func newTestAuthService(t *testing.T) (AuthService, *mockGuildRepo, *mockAccessGrantRepo, *fakeDiscord) {
	t.Helper()
	repo, guilds, grants, _ := newMockRepository()
	dg := &fakeDiscord{user: &discordgo.User{ID: "1001", Username: "owner"}}
	svc := NewAuthService(repo, dg, testVault(t), &fakeJWT{token: "session-jwt"}, testLogger)
	return svc, guilds, grants, dg
}

func TestMemberCallbackStoresEncryptedGrant(t *testing.T) {
	svc, _, grants, _ := newTestAuthService(t)

	resp, err := svc.MemberCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("MemberCallback 失败: %v", err)
	}
	if !resp.Success {
		t.Errorf("success = false")
	}

	grant, ok := grants.grants["auth-code"]
	if !ok {
		t.Fatalf("授权凭据未落库")
	}
	if grant.DiscordUserID != "1001" {
		t.Errorf("discord_user_id = %q", grant.DiscordUserID)
	}
	// token 必须加密存储，明文不得出现在落库数据里
	if grant.EncryptedToken == "token-for-auth-code" {
		t.Errorf("access token 未加密落库")
	}
	v := testVault(t)
	plain, err := v.Decrypt(grant.EncryptedToken)
	if err != nil || plain != "token-for-auth-code" {
		t.Errorf("解密结果 = %q, err = %v", plain, err)
	}
}

func TestMemberCallbackExchangeFails(t *testing.T) {
	svc, _, _, dg := newTestAuthService(t)
	dg.exchangeErr = errors.New("invalid_grant")

	_, err := svc.MemberCallback(context.Background(), "bad-code")
	if !errors.Is(err, ErrOAuthExchange) {
		t.Fatalf("err = %v, 期望 ErrOAuthExchange", err)
	}
}

func TestOwnerCallbackFiltersAdminGuilds(t *testing.T) {
	svc, guilds, _, dg := newTestAuthService(t)

	// 平台已有配置的服务器
	guilds.guilds["123456789012345678"] = testGuild()

	dg.userGuilds = []*discordgo.UserGuild{
		{ID: "123456789012345678", Name: "Admin Server", Owner: true, Icon: "abc"},
		{ID: "222222222222222222", Name: "Member Server"},
	}
	dg.botGuilds = []*discordgo.UserGuild{
		{ID: "123456789012345678"},
	}

	resp, err := svc.OwnerCallback(context.Background(), "owner-code")
	if err != nil {
		t.Fatalf("OwnerCallback 失败: %v", err)
	}

	if resp.Token != "session-jwt" {
		t.Errorf("token = %q", resp.Token)
	}
	if resp.UserID != "1001" || resp.Username != "owner" {
		t.Errorf("用户信息 = %s/%s", resp.UserID, resp.Username)
	}

	// 只返回 Owner/管理员身份的服务器
	if len(resp.Guilds) != 1 {
		t.Fatalf("服务器数 = %d, 期望 1", len(resp.Guilds))
	}
	g := resp.Guilds[0]
	if g.ID != "123456789012345678" {
		t.Errorf("guild id = %q", g.ID)
	}
	if !g.HasBot || !g.Created {
		t.Errorf("hasBot = %v, created = %v, 均期望 true", g.HasBot, g.Created)
	}
	if g.Image == nil || *g.Image != "https://cdn.discordapp.com/icons/123456789012345678/abc.png" {
		t.Errorf("image = %v", g.Image)
	}
}

func TestLoginURL(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	if url := svc.LoginURL(false).URL; url == "" {
		t.Errorf("成员授权链接为空")
	}
	if svc.LoginURL(true).URL == svc.LoginURL(false).URL {
		t.Errorf("Owner 与成员授权链接应不同（scope 不同）")
	}
}

