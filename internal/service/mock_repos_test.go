package service

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/barkprotocol/blinkshare/internal/model"
	"github.com/barkprotocol/blinkshare/internal/repository"
	"github.com/barkprotocol/blinkshare/pkg/solana"
)

// ── 手写 Mock Repository ──
// 测试不连数据库，用内存 map 模拟各 Repository 行为

type mockGuildRepo struct {
	guilds map[string]*model.Guild
	err    error
}

func newMockGuildRepo() *mockGuildRepo {
	return &mockGuildRepo{guilds: make(map[string]*model.Guild)}
}

func (m *mockGuildRepo) Create(_ context.Context, guild *model.Guild) error {
	if m.err != nil {
		return m.err
	}
	m.guilds[guild.ID] = guild
	return nil
}

func (m *mockGuildRepo) GetByID(_ context.Context, id string) (*model.Guild, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.guilds[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (m *mockGuildRepo) Update(_ context.Context, guild *model.Guild) error {
	if m.err != nil {
		return m.err
	}
	m.guilds[guild.ID] = guild
	return nil
}

func (m *mockGuildRepo) ListIDs(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.guilds))
	for id := range m.guilds {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockAccessGrantRepo struct {
	grants map[string]*model.AccessGrant
	err    error
}

func newMockAccessGrantRepo() *mockAccessGrantRepo {
	return &mockAccessGrantRepo{grants: make(map[string]*model.AccessGrant)}
}

func (m *mockAccessGrantRepo) Save(_ context.Context, grant *model.AccessGrant) error {
	if m.err != nil {
		return m.err
	}
	m.grants[grant.Code] = grant
	return nil
}

func (m *mockAccessGrantRepo) FindByCode(_ context.Context, code string) (*model.AccessGrant, error) {
	if m.err != nil {
		return nil, m.err
	}
	g, ok := m.grants[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return g, nil
}

func (m *mockAccessGrantRepo) ListByDiscordUser(_ context.Context, discordUserID string) ([]model.AccessGrant, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.AccessGrant
	for _, g := range m.grants {
		if g.DiscordUserID == discordUserID {
			out = append(out, *g)
		}
	}
	return out, nil
}

// mockRolePurchaseRepo 带锁：购买记录由后台 goroutine 写入
type mockRolePurchaseRepo struct {
	mu        sync.Mutex
	purchases []model.RolePurchase
	nextID    uint
	err       error
	deleteErr error
}

func newMockRolePurchaseRepo() *mockRolePurchaseRepo {
	return &mockRolePurchaseRepo{nextID: 1}
}

func (m *mockRolePurchaseRepo) Create(_ context.Context, purchase *model.RolePurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	purchase.ID = m.nextID
	m.nextID++
	m.purchases = append(m.purchases, *purchase)
	return nil
}

func (m *mockRolePurchaseRepo) ListByGuild(_ context.Context, guildID string) ([]model.RolePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.RolePurchase
	for _, p := range m.purchases {
		if p.GuildID == guildID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRolePurchaseRepo) ListExpired(_ context.Context, before time.Time) ([]model.RolePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []model.RolePurchase
	for _, p := range m.purchases {
		if p.ExpiresAt != nil && p.ExpiresAt.Before(before) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRolePurchaseRepo) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, p := range m.purchases {
		if p.ID == id {
			m.purchases = append(m.purchases[:i], m.purchases[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRolePurchaseRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.purchases)
}

func (m *mockRolePurchaseRepo) last() model.RolePurchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.purchases[len(m.purchases)-1]
}

func newMockRepository() (*repository.Repository, *mockGuildRepo, *mockAccessGrantRepo, *mockRolePurchaseRepo) {
	guilds := newMockGuildRepo()
	grants := newMockAccessGrantRepo()
	purchases := newMockRolePurchaseRepo()
	repo := &repository.Repository{
		Guild:        guilds,
		AccessGrant:  grants,
		RolePurchase: purchases,
	}
	return repo, guilds, grants, purchases
}

// ── 假链上客户端 ──

type fakeChain struct {
	mu          sync.Mutex
	buildResult string
	buildErr    error
	confirmed   bool
	lastParams  solana.PaymentParams
	lastSig     string
}

func (f *fakeChain) BuildPaymentTransaction(_ context.Context, params solana.PaymentParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastParams = params
	if f.buildErr != nil {
		return "", f.buildErr
	}
	return f.buildResult, nil
}

func (f *fakeChain) AwaitConfirmation(_ context.Context, signature string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSig = signature
	return f.confirmed
}

// ── 假 Discord 网关 ──
// 记录每次调用，便于断言调用次序与参数；带锁兼容后台 goroutine

type fakeDiscord struct {
	mu sync.Mutex

	user        *discordgo.User
	userErr     error
	userGuilds  []*discordgo.UserGuild
	botGuilds   []*discordgo.UserGuild
	exchangeErr error

	addMemberErr  error
	addRoleErr    error
	removeRoleErr error

	addMemberCalls  []string // "guildID/userID"
	addRoleCalls    []string // "guildID/userID/roleID"
	removeRoleCalls []string
	logTitles       []string
}

func (f *fakeDiscord) AuthorizeURL(owner bool) string {
	if owner {
		return "https://discord.com/oauth2/authorize?owner=1"
	}
	return "https://discord.com/oauth2/authorize"
}

func (f *fakeDiscord) ExchangeCode(_ context.Context, code string) (string, time.Time, error) {
	if f.exchangeErr != nil {
		return "", time.Time{}, f.exchangeErr
	}
	return "token-for-" + code, time.Now().Add(time.Hour), nil
}

func (f *fakeDiscord) CurrentUser(_ string) (*discordgo.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

func (f *fakeDiscord) UserGuilds(_ string) ([]*discordgo.UserGuild, error) {
	return f.userGuilds, nil
}

func (f *fakeDiscord) BotGuilds() ([]*discordgo.UserGuild, error) {
	return f.botGuilds, nil
}

func (f *fakeDiscord) AddGuildMember(guildID, userID, _ string, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMemberErr != nil {
		return f.addMemberErr
	}
	f.addMemberCalls = append(f.addMemberCalls, guildID+"/"+userID)
	return nil
}

func (f *fakeDiscord) AddMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addRoleErr != nil {
		return f.addRoleErr
	}
	f.addRoleCalls = append(f.addRoleCalls, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (f *fakeDiscord) RemoveMemberRole(guildID, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeRoleErr != nil {
		return f.removeRoleErr
	}
	f.removeRoleCalls = append(f.removeRoleCalls, guildID+"/"+userID+"/"+roleID)
	return nil
}

func (f *fakeDiscord) SendLogEmbed(title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logTitles = append(f.logTitles, title)
	return nil
}

func (f *fakeDiscord) addRoleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.addRoleCalls)
}

// ── 假 JWT 签发 ──

type fakeJWT struct {
	token string
	err   error
}

func (f *fakeJWT) GenerateToken(_, _ string, _ []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

var testLogger = zap.NewNop()

