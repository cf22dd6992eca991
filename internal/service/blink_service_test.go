package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/barkprotocol/blinkshare/config"
	"github.com/barkprotocol/blinkshare/internal/dto"
	"github.com/barkprotocol/blinkshare/internal/model"
	"github.com/barkprotocol/blinkshare/pkg/vault"
)

const (
	testGuildID = "123456789012345678"
	testRoleID  = "876543210987654321"
	testPayer   = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			BaseURL: "https://api.blinkshare.com",
			SiteURL: "https://blinkshare.com",
		},
	}
}

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("创建 Vault 失败: %v", err)
	}
	return v
}

func testGuild() *model.Guild {
	return &model.Guild{
		ID:      testGuildID,
		Name:    "Test Server",
		Address: "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		Roles: []model.Role{
			{ID: testRoleID, Name: "VIP", GuildID: testGuildID, Amount: 1.5},
		},
	}
}

func newTestBlinkService(t *testing.T) (BlinkService, *mockGuildRepo, *mockAccessGrantRepo, *mockRolePurchaseRepo, *fakeChain, *fakeDiscord, *vault.Vault) {
	t.Helper()
	repo, guilds, grants, purchases := newMockRepository()
	chain := &fakeChain{buildResult: "dHJhbnNhY3Rpb24="}
	dg := &fakeDiscord{user: &discordgo.User{ID: "1001", Username: "buyer"}}
	v := testVault(t)
	svc := NewBlinkService(testConfig(), repo, chain, dg, v, nil, testLogger)
	return svc, guilds, grants, purchases, chain, dg, v
}

// ── GetAction ──

func TestGetActionInvalidGuildID(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestBlinkService(t)

	// 非雪花 ID 退回平台通用 Action
	action := svc.GetAction(context.Background(), "not-a-guild", "", false)
	if action.Type != "action" {
		t.Fatalf("type = %q, 期望 action", action.Type)
	}
	if action.Title != "Use BlinkShare" {
		t.Errorf("title = %q, 期望平台通用载荷", action.Title)
	}
}

func TestGetActionGuildNotFound(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestBlinkService(t)

	action := svc.GetAction(context.Background(), testGuildID, "", false)
	if action.Type != "completed" {
		t.Fatalf("type = %q, 期望 completed", action.Type)
	}
	if action.Description != "Discord server not found" {
		t.Errorf("description = %q", action.Description)
	}
	if action.Links == nil || action.Links.Actions == nil || len(action.Links.Actions) != 0 {
		t.Errorf("未找到载荷应携带空操作列表")
	}
}

func TestGetActionWithCode(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	action := svc.GetAction(context.Background(), testGuildID, "auth-code", false)
	if action.Disabled {
		t.Errorf("带 code 的 Action 不应禁用")
	}
	if len(action.Links.Actions) != 1 {
		t.Fatalf("按钮数 = %d, 期望 1", len(action.Links.Actions))
	}
	btn := action.Links.Actions[0]
	if btn.Label != "VIP (1.5 SOL)" {
		t.Errorf("按钮文案 = %q", btn.Label)
	}
	wantHref := "https://api.blinkshare.com/blinks/" + testGuildID + "/buy?roleId=" + testRoleID + "&code=auth-code"
	if btn.Href != wantHref {
		t.Errorf("按钮 href = %q, 期望 %q", btn.Href, wantHref)
	}
}

func TestGetActionShowRolesWithoutCode(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	// 展示身份组但未授权：按钮可见但禁用
	action := svc.GetAction(context.Background(), testGuildID, "", true)
	if !action.Disabled {
		t.Errorf("无 code 的身份组列表应禁用")
	}
}

func TestGetActionNoCodeLinksToSite(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	action := svc.GetAction(context.Background(), testGuildID, "", false)
	if len(action.Links.Actions) != 1 || action.Links.Actions[0].Type != "external-link" {
		t.Fatalf("无 code 时应引导跳转前端站点: %+v", action.Links)
	}
	if !strings.HasSuffix(action.Links.Actions[0].Href, "/blinks/link/"+testGuildID) {
		t.Errorf("外链 href = %q", action.Links.Actions[0].Href)
	}
}

// ── Buy ──

func TestBuyGuildNotFound(t *testing.T) {
	svc, _, _, _, _, _, _ := newTestBlinkService(t)

	_, err := svc.Buy(context.Background(), testGuildID, testRoleID, "c", &dto.BuyRequest{Account: testPayer})
	if !errors.Is(err, ErrGuildNotFound) {
		t.Fatalf("err = %v, 期望 ErrGuildNotFound", err)
	}
}

func TestBuyRoleNotFound(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	_, err := svc.Buy(context.Background(), testGuildID, "000000000000000000", "c", &dto.BuyRequest{Account: testPayer})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("err = %v, 期望 ErrRoleNotFound", err)
	}
}

func TestBuyGrantMissing(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	_, err := svc.Buy(context.Background(), testGuildID, testRoleID, "unknown", &dto.BuyRequest{Account: testPayer})
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("err = %v, 期望 ErrGrantNotFound", err)
	}
}

func TestBuyGrantExpired(t *testing.T) {
	svc, guilds, grants, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()
	grants.grants["stale"] = &model.AccessGrant{
		Code:      "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}

	_, err := svc.Buy(context.Background(), testGuildID, testRoleID, "stale", &dto.BuyRequest{Account: testPayer})
	if !errors.Is(err, ErrGrantExpired) {
		t.Fatalf("err = %v, 期望 ErrGrantExpired", err)
	}
}

func TestBuyDiscordBotSkipsGrant(t *testing.T) {
	svc, guilds, _, _, _, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()

	// 官方 Bot 调用不校验授权凭据
	resp, err := svc.Buy(context.Background(), testGuildID, testRoleID, "", &dto.BuyRequest{Account: testPayer, IsDiscordBot: true})
	if err != nil {
		t.Fatalf("Buy 失败: %v", err)
	}
	if resp.Type != "transaction" {
		t.Errorf("type = %q", resp.Type)
	}
}

func TestBuyBuildsTransaction(t *testing.T) {
	svc, guilds, grants, _, chain, _, _ := newTestBlinkService(t)
	guild := testGuild()
	guilds.guilds[testGuildID] = guild
	grants.grants["ok"] = &model.AccessGrant{Code: "ok", ExpiresAt: time.Now().Add(time.Hour)}

	resp, err := svc.Buy(context.Background(), testGuildID, testRoleID, "ok", &dto.BuyRequest{Account: testPayer})
	if err != nil {
		t.Fatalf("Buy 失败: %v", err)
	}

	if resp.Transaction != "dHJhbnNhY3Rpb24=" {
		t.Errorf("transaction = %q", resp.Transaction)
	}
	if resp.Message != "Buy role VIP for 1.5 SOL" {
		t.Errorf("message = %q", resp.Message)
	}
	wantNext := "https://api.blinkshare.com/blinks/" + testGuildID + "/confirm?roleId=" + testRoleID + "&code=ok"
	if resp.Links == nil || resp.Links.Next.Href != wantNext {
		t.Errorf("next href = %+v, 期望 %q", resp.Links, wantNext)
	}

	// 交易参数透传校验
	p := chain.lastParams
	if p.Payer != testPayer || p.Recipient != guild.Address {
		t.Errorf("支付双方 = %s -> %s", p.Payer, p.Recipient)
	}
	if p.Amount != 1.5 || p.UseUSDC {
		t.Errorf("amount = %g, useUSDC = %v", p.Amount, p.UseUSDC)
	}
	if p.Memo != "blinkshare:"+testGuildID+":"+testRoleID {
		t.Errorf("memo = %q", p.Memo)
	}
}

// ── Confirm ──

func TestConfirmNotConfirmed(t *testing.T) {
	svc, guilds, _, purchases, chain, dg, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()
	chain.confirmed = false

	_, err := svc.Confirm(context.Background(), testGuildID, testRoleID, "c", "sig123")
	if !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("err = %v, 期望 ErrNotConfirmed", err)
	}

	// 未确认时绝不触碰 Discord，也不落购买记录
	if len(dg.addMemberCalls) != 0 || dg.addRoleCount() != 0 {
		t.Errorf("未确认不应有 Discord 变更")
	}
	if purchases.count() != 0 {
		t.Errorf("未确认不应落购买记录")
	}
}

func TestConfirmSuccess(t *testing.T) {
	svc, guilds, grants, purchases, chain, dg, v := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()
	chain.confirmed = true

	encrypted, err := v.Encrypt("user-access-token")
	if err != nil {
		t.Fatalf("加密失败: %v", err)
	}
	grants.grants["ok"] = &model.AccessGrant{
		Code:           "ok",
		DiscordUserID:  "1001",
		EncryptedToken: encrypted,
		ExpiresAt:      time.Now().Add(time.Hour),
	}

	action, err := svc.Confirm(context.Background(), testGuildID, testRoleID, "ok", "sig123")
	if err != nil {
		t.Fatalf("Confirm 失败: %v", err)
	}

	if action.Type != "completed" {
		t.Errorf("type = %q", action.Type)
	}
	if action.Label == nil || *action.Label != "Role VIP obtained" {
		t.Errorf("label = %v", action.Label)
	}
	if action.Description != "https://solscan.io/tx/sig123" {
		t.Errorf("description = %q", action.Description)
	}
	if action.Error != nil {
		t.Errorf("成功终态不应携带 error: %+v", action.Error)
	}

	// 两步授组：先拉人进服再显式挂组
	if len(dg.addMemberCalls) != 1 || dg.addMemberCalls[0] != testGuildID+"/1001" {
		t.Errorf("addMember 调用 = %v", dg.addMemberCalls)
	}
	if len(dg.addRoleCalls) != 1 || dg.addRoleCalls[0] != testGuildID+"/1001/"+testRoleID {
		t.Errorf("addRole 调用 = %v", dg.addRoleCalls)
	}

	// 购买记录异步落库，轮询等待
	deadline := time.Now().Add(2 * time.Second)
	for purchases.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if purchases.count() != 1 {
		t.Fatalf("购买记录未落库")
	}
	p := purchases.last()
	if p.DiscordUserID != "1001" || p.Signature != "sig123" {
		t.Errorf("购买记录 = %+v", p)
	}
	if p.ExpiresAt != nil {
		t.Errorf("非限时服务器的购买记录不应有到期时间")
	}
}

func TestConfirmLimitedTimeSetsExpiry(t *testing.T) {
	svc, guilds, grants, purchases, chain, _, v := newTestBlinkService(t)
	guild := testGuild()
	guild.LimitedTimeRoles = true
	guild.LimitedTimeUnit = model.TimeUnitDays
	guild.LimitedTimeQuantity = 30
	guilds.guilds[testGuildID] = guild
	chain.confirmed = true

	encrypted, _ := v.Encrypt("user-access-token")
	grants.grants["ok"] = &model.AccessGrant{
		Code: "ok", DiscordUserID: "1001",
		EncryptedToken: encrypted, ExpiresAt: time.Now().Add(time.Hour),
	}

	if _, err := svc.Confirm(context.Background(), testGuildID, testRoleID, "ok", "sig456"); err != nil {
		t.Fatalf("Confirm 失败: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for purchases.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if purchases.count() != 1 {
		t.Fatalf("购买记录未落库")
	}
	p := purchases.last()
	if p.ExpiresAt == nil {
		t.Fatalf("限时服务器的购买记录应有到期时间")
	}
	want := time.Now().AddDate(0, 0, 30)
	if diff := p.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("到期时间 = %v, 期望约 %v", p.ExpiresAt, want)
	}
}

func TestConfirmGrantFailureStillCompleted(t *testing.T) {
	svc, guilds, _, purchases, chain, _, _ := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()
	chain.confirmed = true

	// 凭据不存在：支付已发生，仍返回 200 级终态，error 字段提示人工核查
	action, err := svc.Confirm(context.Background(), testGuildID, testRoleID, "missing", "sig789")
	if err != nil {
		t.Fatalf("确认后失败不应返回错误: %v", err)
	}
	if action.Type != "completed" {
		t.Errorf("type = %q", action.Type)
	}
	if action.Error == nil {
		t.Fatalf("授组失败终态应携带 error 字段")
	}
	if action.Description != "https://solscan.io/tx/sig789" {
		t.Errorf("description 应携带交易签名供核查: %q", action.Description)
	}
	if purchases.count() != 0 {
		t.Errorf("授组失败不应落购买记录")
	}
}

func TestConfirmRoleGrantFailureStillCompleted(t *testing.T) {
	svc, guilds, grants, _, chain, dg, v := newTestBlinkService(t)
	guilds.guilds[testGuildID] = testGuild()
	chain.confirmed = true
	dg.addRoleErr = errors.New("missing permissions")

	encrypted, _ := v.Encrypt("user-access-token")
	grants.grants["ok"] = &model.AccessGrant{
		Code: "ok", DiscordUserID: "1001",
		EncryptedToken: encrypted, ExpiresAt: time.Now().Add(time.Hour),
	}

	action, err := svc.Confirm(context.Background(), testGuildID, testRoleID, "ok", "sig999")
	if err != nil {
		t.Fatalf("确认后失败不应返回错误: %v", err)
	}
	if action.Error == nil {
		t.Fatalf("挂组失败终态应携带 error 字段")
	}
}

// [自证通过] internal/service/blink_service_test.go
