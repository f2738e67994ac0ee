package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nathoo/deathpenalty/engine/effects"
	"github.com/nathoo/deathpenalty/render"
	"github.com/nathoo/deathpenalty/types"
)

const testMessage = `You died!{{with .money_lost}} You lost {{.}} {{$.currency}}.{{end}}{{with .xp_lost}} You lost {{.}} XP.{{end}}{{with .effects}} You suffer from {{.}}.{{end}}`

// --- fakes ---

type memStore struct {
	doc types.Document
}

func (m *memStore) Load() (*types.Document, error) {
	d := m.doc
	d.RecentlyDied = append([]types.PlayerID(nil), m.doc.RecentlyDied...)
	d.Penalty.PotionEffects = append([]types.StatusEffectSpec(nil), m.doc.Penalty.PotionEffects...)
	return &d, nil
}

func (m *memStore) Save(doc *types.Document) error {
	m.doc = *doc
	m.doc.RecentlyDied = append([]types.PlayerID(nil), doc.RecentlyDied...)
	return nil
}

type account struct {
	balance decimal.Decimal
	sets    int
	cause   types.Cause
}

func (a *account) Balance(context.Context, string) (decimal.Decimal, error) {
	return a.balance, nil
}

func (a *account) SetBalance(_ context.Context, _ string, amount decimal.Decimal, cause types.Cause) error {
	a.balance = amount
	a.sets++
	a.cause = cause
	return nil
}

type bank struct {
	accounts map[types.PlayerID]*account
	fail     bool
}

func (b *bank) DefaultCurrency() string { return "coins" }

func (b *bank) GetOrCreateAccount(_ context.Context, p types.PlayerID) (Account, error) {
	if b.fail {
		return nil, errors.New("no account for you")
	}
	a, ok := b.accounts[p]
	if !ok {
		a = &account{}
		b.accounts[p] = a
	}
	return a, nil
}

type host struct {
	xp        map[types.PlayerID]int
	keepInv   bool
	tasks     []func()
	container *effectList
	messages  map[types.PlayerID][]string
}

type effectList struct {
	added []types.PotionEffect
}

func (l *effectList) Add(e types.PotionEffect) error {
	l.added = append(l.added, e)
	return nil
}

func (h *host) TotalExperience(p types.PlayerID) (int, error) { return h.xp[p], nil }

func (h *host) SetTotalExperience(p types.PlayerID, xp int) error {
	h.xp[p] = xp
	return nil
}

func (h *host) KeepInventory(string) bool { return h.keepInv }

func (h *host) ScheduleOnceAfter(_ int, task func()) { h.tasks = append(h.tasks, task) }

func (h *host) EffectContainer(types.PlayerID) (effects.Container, error) { return h.container, nil }

func (h *host) Resolve(id string) (types.EffectType, bool) {
	switch id {
	case "minecraft:blindness":
		return types.EffectType{ID: id, Name: "Blindness"}, true
	case "minecraft:slowness":
		return types.EffectType{ID: id, Name: "Slowness"}, true
	}
	return types.EffectType{}, false
}

func (h *host) SendMessage(p types.PlayerID, text string) error {
	h.messages[p] = append(h.messages[p], text)
	return nil
}

func (h *host) runTasks() {
	tasks := h.tasks
	h.tasks = nil
	for _, t := range tasks {
		t()
	}
}

type fixture struct {
	eng   *Engine
	store *memStore
	host  *host
	bank  *bank
	log   *bytes.Buffer
}

func baseConfig() types.PenaltyConfig {
	return types.PenaltyConfig{
		XPReduction:     "0%",
		MoneyReduction:  "0%",
		SendMessage:     true,
		Message:         testMessage,
		DeathTypeFilter: types.DeathTypeFilter{AllowPvp: true},
	}
}

func newFixture(cfg types.PenaltyConfig) *fixture {
	store := &memStore{doc: types.Document{Penalty: cfg}}
	h := &host{
		xp:        map[types.PlayerID]int{},
		container: &effectList{},
		messages:  map[types.PlayerID][]string{},
	}
	buf := &bytes.Buffer{}
	eng := New(Deps{
		Store:      store,
		Experience: h,
		Effects:    h,
		Registry:   h,
		Scheduler:  h,
		World:      h,
		Renderer:   render.New(),
		Messenger:  h,
		Log:        zerolog.New(buf),
	})
	b := &bank{accounts: map[types.PlayerID]*account{}}
	eng.OnServiceChange(types.ServiceChange{Service: ServiceEconomy, Provider: b})
	return &fixture{eng: eng, store: store, host: h, bank: b, log: buf}
}

func playerDeath(p types.PlayerID, cause types.CauseSource) types.DeathEvent {
	return types.DeathEvent{
		Target: types.Entity{ID: p, Kind: types.KindPlayer, Name: "steve", World: "world"},
		Cause:  cause,
	}
}

var lava = types.CauseSource{Kind: types.CauseEnvironment, Name: "lava"}

func respawn(p types.PlayerID) types.RespawnEvent {
	return types.RespawnEvent{Player: p, Name: "steve", World: "world"}
}

func (f *fixture) die(t *testing.T, p types.PlayerID, cause types.CauseSource) {
	t.Helper()
	if err := f.eng.OnDeath(context.Background(), playerDeath(p, cause)); err != nil {
		t.Fatalf("OnDeath: %v", err)
	}
}

func (f *fixture) respawn(t *testing.T, p types.PlayerID) types.Outcome {
	t.Helper()
	out, err := f.eng.OnRespawn(context.Background(), respawn(p))
	if err != nil {
		t.Fatalf("OnRespawn: %v", err)
	}
	return out
}

func (f *fixture) isPending(p types.PlayerID) bool {
	for _, id := range f.store.doc.RecentlyDied {
		if id == p {
			return true
		}
	}
	return false
}

// --- tests ---

func TestScenarioA_MoneyHalved(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)
	if !f.isPending(p) {
		t.Fatal("player not pending after death")
	}
	out := f.respawn(t, p)

	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance = %s, want 50", f.bank.accounts[p].balance)
	}
	if f.isPending(p) {
		t.Error("pending record not cleared")
	}
	if out.MoneyLost == nil || !out.MoneyLost.Equal(decimal.NewFromInt(50)) {
		t.Errorf("MoneyLost = %v, want 50", out.MoneyLost)
	}
	if got := f.host.messages[p]; len(got) != 1 || got[0] != "You died! You lost 50 coins." {
		t.Errorf("messages = %q", got)
	}
	if f.bank.accounts[p].cause.Plugin != Name {
		t.Errorf("balance cause = %+v", f.bank.accounts[p].cause)
	}
}

func TestScenarioB_ZeroXPReductionIsInactive(t *testing.T) {
	cfg := baseConfig()
	cfg.XPReduction = "0%"
	cfg.PotionEffects = []types.StatusEffectSpec{{ID: "minecraft:blindness", Duration: 10}}
	f := newFixture(cfg)
	f.host.keepInv = true
	p := uuid.New()
	f.host.xp[p] = 300
	f.log.Reset()

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if f.host.xp[p] != 300 {
		t.Errorf("xp = %d, want 300", f.host.xp[p])
	}
	if out.XPLost != nil {
		t.Errorf("XPLost = %d, want nil", *out.XPLost)
	}
	if _, ok := MessageParams("steve", out)[ParamXPLost]; ok {
		t.Error("xp_lost parameter present")
	}
	if strings.Contains(out.Message, "XP") {
		t.Errorf("message mentions XP: %q", out.Message)
	}
	if f.log.Len() != 0 {
		t.Errorf("inactive reduction produced log output: %s", f.log.String())
	}
}

func TestScenarioC_PvpExempt(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.DeathTypeFilter.AllowPvp = false
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, types.CauseSource{Kind: types.CausePlayer, Player: uuid.New(), Name: "alex"})
	if f.isPending(p) {
		t.Fatal("pvp death recorded despite filter")
	}
	out := f.respawn(t, p)
	if out.Resolved {
		t.Error("respawn resolved a penalty")
	}
	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100", f.bank.accounts[p].balance)
	}
}

func TestSuicideStillTrackedWhenPvpExempt(t *testing.T) {
	cfg := baseConfig()
	cfg.DeathTypeFilter.AllowPvp = false
	f := newFixture(cfg)
	p := uuid.New()

	f.die(t, p, types.CauseSource{Kind: types.CausePlayer, Player: p})
	if !f.isPending(p) {
		t.Error("self-inflicted death not recorded")
	}
}

func TestScenarioD_UnknownEffectSkipped(t *testing.T) {
	cfg := baseConfig()
	cfg.PotionEffects = []types.StatusEffectSpec{
		{ID: "minecraft:blindness", Duration: 60, Amplifier: 1},
		{ID: "minecraft:not_a_thing", Duration: 60},
		{ID: "minecraft:slowness", Duration: 30},
	}
	f := newFixture(cfg)
	p := uuid.New()

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if len(out.Effects) != 2 {
		t.Fatalf("expected 2 effects, got %d", len(out.Effects))
	}
	if !strings.Contains(f.log.String(), "minecraft:not_a_thing") {
		t.Errorf("no warning for unknown effect, log: %s", f.log.String())
	}
	if len(out.Skipped) != 1 || !errors.Is(out.Skipped[0], ErrUnknownEffect) {
		t.Errorf("Skipped = %v", out.Skipped)
	}
	if out.Message != "You died! You suffer from Blindness, Slowness." {
		t.Errorf("message = %q", out.Message)
	}
	if len(f.host.container.added) != 0 {
		t.Error("effects applied in the respawn step")
	}
	f.host.runTasks()
	if len(f.host.container.added) != 2 {
		t.Errorf("expected 2 effects after delay, got %d", len(f.host.container.added))
	}
}

func TestRespawnWithoutDeathIsNoop(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.XPReduction = "50%"
	cfg.PotionEffects = []types.StatusEffectSpec{{ID: "minecraft:blindness", Duration: 10}}
	f := newFixture(cfg)
	f.host.keepInv = true
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}
	f.host.xp[p] = 100

	out := f.respawn(t, p)

	if out.Resolved {
		t.Error("Resolved = true")
	}
	if f.bank.accounts[p].sets != 0 {
		t.Error("balance written")
	}
	if f.host.xp[p] != 100 {
		t.Errorf("xp = %d", f.host.xp[p])
	}
	if len(f.host.tasks) != 0 {
		t.Error("effects scheduled")
	}
	if len(f.host.messages[p]) != 0 {
		t.Error("message sent")
	}
}

func TestDoubleRespawnResolvesOnce(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "10"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)
	f.respawn(t, p)
	f.respawn(t, p)

	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("balance = %s, want 90", f.bank.accounts[p].balance)
	}
}

func TestDeathTwiceBeforeRespawn(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "10"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)
	f.die(t, p, lava)
	if len(f.store.doc.RecentlyDied) != 1 {
		t.Errorf("pending entries = %d, want 1", len(f.store.doc.RecentlyDied))
	}
	f.respawn(t, p)
	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("balance = %s, want 90", f.bank.accounts[p].balance)
	}
}

func TestNonPlayerDeathIgnored(t *testing.T) {
	f := newFixture(baseConfig())
	id := uuid.New()
	err := f.eng.OnDeath(context.Background(), types.DeathEvent{Target: types.Entity{ID: id, Kind: types.KindMob, Name: "zombie"}, Cause: lava})
	if err != nil {
		t.Fatalf("OnDeath: %v", err)
	}
	if f.isPending(id) {
		t.Error("mob death recorded")
	}
}

func TestEconomyMissing(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.XPReduction = "50%"
	f := newFixture(cfg)
	f.host.keepInv = true
	f.eng.OnServiceChange(types.ServiceChange{Service: ServiceEconomy, Provider: nil})
	p := uuid.New()
	f.host.xp[p] = 100

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if out.MoneyLost != nil {
		t.Error("money penalty applied without economy")
	}
	if f.host.xp[p] != 50 {
		t.Errorf("xp = %d, want 50", f.host.xp[p])
	}
	if f.isPending(p) {
		t.Error("pending record kept")
	}
	if !hasErr(out.Skipped, ErrEconomyMissing) {
		t.Errorf("Skipped = %v", out.Skipped)
	}
	if !strings.Contains(f.log.String(), "no economy plugin present") {
		t.Errorf("missing warning, log: %s", f.log.String())
	}
}

func TestOtherServiceIgnored(t *testing.T) {
	f := newFixture(baseConfig())
	f.eng.OnServiceChange(types.ServiceChange{Service: "permissions", Provider: nil})
	if f.eng.Economy() == nil {
		t.Error("economy cleared by unrelated service change")
	}
}

func TestTypedNilEconomyEmptiesSlot(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	f := newFixture(cfg)

	f.eng.OnServiceChange(types.ServiceChange{Service: ServiceEconomy, Provider: (*bank)(nil)})
	if f.eng.Economy() != nil {
		t.Fatal("nil pointer provider should empty the economy slot")
	}

	p := uuid.New()
	f.die(t, p, lava)
	out := f.respawn(t, p)
	if !hasErr(out.Skipped, ErrEconomyMissing) {
		t.Errorf("Skipped = %v, want ErrEconomyMissing", out.Skipped)
	}
}

func TestOnDeathCanceledContext(t *testing.T) {
	f := newFixture(baseConfig())
	p := uuid.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.eng.OnDeath(ctx, playerDeath(p, lava)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if f.isPending(p) {
		t.Error("death recorded despite canceled context")
	}
}

func TestAccountCreationFailure(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.PotionEffects = []types.StatusEffectSpec{{ID: "minecraft:blindness", Duration: 10}}
	f := newFixture(cfg)
	f.bank.fail = true
	p := uuid.New()

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if !hasErr(out.Skipped, ErrAccountCreation) {
		t.Errorf("Skipped = %v", out.Skipped)
	}
	if len(out.Effects) != 1 {
		t.Error("effects step did not run")
	}
	if f.isPending(p) {
		t.Error("pending record kept")
	}
}

func TestInvalidReductionSkipsOnlyThatPenalty(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "lots"
	cfg.XPReduction = "10"
	f := newFixture(cfg)
	f.host.keepInv = true
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}
	f.host.xp[p] = 25

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if f.bank.accounts[p].sets != 0 {
		t.Error("balance written despite invalid reduction")
	}
	if f.host.xp[p] != 15 {
		t.Errorf("xp = %d, want 15", f.host.xp[p])
	}
	if !hasErr(out.Skipped, ErrConfigParse) {
		t.Errorf("Skipped = %v", out.Skipped)
	}
	if f.store.doc.Penalty.MoneyReduction != "lots" {
		t.Error("stored config modified")
	}
	if !strings.Contains(f.log.String(), "moneyReduction") {
		t.Errorf("no config error logged: %s", f.log.String())
	}
}

func TestExperienceNeedsKeepInventory(t *testing.T) {
	cfg := baseConfig()
	cfg.XPReduction = "50%"
	f := newFixture(cfg)
	f.host.keepInv = false
	p := uuid.New()
	f.host.xp[p] = 100

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if f.host.xp[p] != 100 {
		t.Errorf("xp = %d, want 100", f.host.xp[p])
	}
	if out.XPLost != nil {
		t.Error("XPLost set")
	}
}

func TestExperienceTruncatedAndFloored(t *testing.T) {
	tests := []struct {
		reduction string
		xp        int
		want      int
	}{
		{"50%", 15, 7},
		{"30", 10, 0},
		{"150%", 10, 0},
	}
	for _, tt := range tests {
		cfg := baseConfig()
		cfg.XPReduction = tt.reduction
		f := newFixture(cfg)
		f.host.keepInv = true
		p := uuid.New()
		f.host.xp[p] = tt.xp

		f.die(t, p, lava)
		out := f.respawn(t, p)

		if f.host.xp[p] != tt.want {
			t.Errorf("%s of %d: xp = %d, want %d", tt.reduction, tt.xp, f.host.xp[p], tt.want)
		}
		if out.XPLost == nil || *out.XPLost != tt.xp-tt.want {
			t.Errorf("%s of %d: XPLost = %v", tt.reduction, tt.xp, out.XPLost)
		}
	}
}

func TestMoneyFlooredAtZero(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "500"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(120)}

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if !f.bank.accounts[p].balance.IsZero() {
		t.Errorf("balance = %s, want 0", f.bank.accounts[p].balance)
	}
	if !out.MoneyLost.Equal(decimal.NewFromInt(120)) {
		t.Errorf("MoneyLost = %s, want 120", out.MoneyLost)
	}
}

func TestMessageDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.SendMessage = false
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)
	out := f.respawn(t, p)
	if out.Message != "" || len(f.host.messages[p]) != 0 {
		t.Error("message sent while disabled")
	}
}

func TestMessageSentWhenNothingApplied(t *testing.T) {
	f := newFixture(baseConfig())
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}
	f.host.xp[p] = 40

	f.die(t, p, lava)
	out := f.respawn(t, p)

	if out.MoneyLost != nil || out.XPLost != nil || len(out.Effects) != 0 {
		t.Fatalf("no penalty should apply: %+v", out)
	}
	if got := f.host.messages[p]; len(got) != 1 || got[0] != "You died!" {
		t.Errorf("messages = %q, want [\"You died!\"]", got)
	}
	if out.Message != "You died!" {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestBadTemplateStillClears(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	cfg.Message = "{{if}}"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)
	out := f.respawn(t, p)
	if !hasErr(out.Skipped, ErrConfigParse) {
		t.Errorf("Skipped = %v", out.Skipped)
	}
	if f.isPending(p) {
		t.Error("pending record kept")
	}
	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(50)) {
		t.Error("money penalty lost")
	}
}

func TestCrashSafety(t *testing.T) {
	cfg := baseConfig()
	cfg.MoneyReduction = "50%"
	f := newFixture(cfg)
	p := uuid.New()
	f.bank.accounts[p] = &account{balance: decimal.NewFromInt(100)}

	f.die(t, p, lava)

	// Restart: a fresh engine over the same persisted document.
	eng := New(Deps{
		Store:      f.store,
		Experience: f.host,
		Effects:    f.host,
		Registry:   f.host,
		Scheduler:  f.host,
		World:      f.host,
		Renderer:   render.New(),
		Messenger:  f.host,
		Log:        zerolog.Nop(),
	})
	if err := eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	eng.OnServiceChange(types.ServiceChange{Service: ServiceEconomy, Provider: f.bank})

	pending, err := eng.Pending()
	if err != nil || len(pending) != 1 || pending[0] != p {
		t.Fatalf("Pending after restart = %v, %v", pending, err)
	}
	out, err := eng.OnRespawn(context.Background(), respawn(p))
	if err != nil {
		t.Fatalf("OnRespawn: %v", err)
	}
	if !out.Resolved {
		t.Fatal("not resolved after restart")
	}
	if !f.bank.accounts[p].balance.Equal(decimal.NewFromInt(50)) {
		t.Errorf("balance = %s, want 50", f.bank.accounts[p].balance)
	}
}

func TestMessageParams(t *testing.T) {
	money := decimal.RequireFromString("1250.5")
	xp := 1500
	out := types.Outcome{
		MoneyLost: &money,
		Currency:  "coins",
		XPLost:    &xp,
		Effects:   []types.AppliedEffect{{ID: "a", Name: "Blindness"}, {ID: "b", Name: "Nausea"}},
	}
	params := MessageParams("steve", out)
	want := map[string]string{
		ParamPlayer:    "steve",
		ParamMoneyLost: "1,250.50",
		ParamCurrency:  "coins",
		ParamXPLost:    "1,500",
		ParamEffects:   "Blindness, Nausea",
	}
	for k, v := range want {
		if params[k] != v {
			t.Errorf("params[%q] = %q, want %q", k, params[k], v)
		}
	}

	empty := MessageParams("steve", types.Outcome{})
	if len(empty) != 1 {
		t.Errorf("expected only player param, got %v", empty)
	}
}

func hasErr(errs []error, target error) bool {
	for _, err := range errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
