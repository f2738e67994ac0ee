package economy

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/types"
)

var (
	_ engine.Economy = (*Bank)(nil)
	_ engine.Economy = (*Ledger)(nil)
)

var penaltyCause = types.Cause{Plugin: "DeathPenalty", Root: types.CauseSource{Kind: types.CausePlayer, Name: "steve"}}

func TestBank(t *testing.T) {
	ctx := context.Background()
	b := NewBank("coins")
	p := uuid.New()

	acct, err := b.GetOrCreateAccount(ctx, p)
	if err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	bal, _ := acct.Balance(ctx, "coins")
	if !bal.IsZero() {
		t.Errorf("new balance = %s, want 0", bal)
	}
	if err := acct.SetBalance(ctx, "coins", decimal.NewFromInt(75), penaltyCause); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	again, _ := b.GetOrCreateAccount(ctx, p)
	bal, _ = again.Balance(ctx, "coins")
	if !bal.Equal(decimal.NewFromInt(75)) {
		t.Errorf("balance = %s, want 75", bal)
	}
}

func TestBank_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewBank("coins").GetOrCreateAccount(ctx, uuid.New()); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestLedger_BalanceAndHistory(t *testing.T) {
	ctx := context.Background()
	l, err := OpenLedger(":memory:", "coins")
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	defer l.Close()

	p := uuid.New()
	acct, err := l.GetOrCreateAccount(ctx, p)
	if err != nil {
		t.Fatalf("GetOrCreateAccount: %v", err)
	}
	bal, err := acct.Balance(ctx, "coins")
	if err != nil || !bal.IsZero() {
		t.Fatalf("new balance = %s, %v", bal, err)
	}

	if err := acct.SetBalance(ctx, "coins", decimal.RequireFromString("100.25"), types.Cause{Plugin: "admin"}); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if err := acct.SetBalance(ctx, "coins", decimal.RequireFromString("50.125"), penaltyCause); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	bal, _ = acct.Balance(ctx, "coins")
	if !bal.Equal(decimal.RequireFromString("50.125")) {
		t.Errorf("balance = %s, want 50.125", bal)
	}

	hist, err := l.History(ctx, p)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
	if !hist[1].Old.Equal(decimal.RequireFromString("100.25")) || !hist[1].New.Equal(decimal.RequireFromString("50.125")) {
		t.Errorf("history[1] = %+v", hist[1])
	}
	if hist[1].Cause != "DeathPenalty/player:steve" {
		t.Errorf("cause = %q", hist[1].Cause)
	}
	if hist[0].Cause != "admin" {
		t.Errorf("cause = %q", hist[0].Cause)
	}
}

func TestLedger_OtherCurrencyIsZero(t *testing.T) {
	ctx := context.Background()
	l, err := OpenLedger(":memory:", "coins")
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	defer l.Close()

	acct, _ := l.GetOrCreateAccount(ctx, uuid.New())
	bal, err := acct.Balance(ctx, "gems")
	if err != nil || !bal.IsZero() {
		t.Errorf("gems balance = %s, %v", bal, err)
	}
}

func TestLedger_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	p := uuid.New()

	l, err := OpenLedger(path, "coins")
	if err != nil {
		t.Fatalf("OpenLedger: %v", err)
	}
	acct, _ := l.GetOrCreateAccount(ctx, p)
	if err := acct.SetBalance(ctx, "coins", decimal.NewFromInt(42), penaltyCause); err != nil {
		t.Fatalf("SetBalance: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	l2, err := OpenLedger(path, "coins")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l2.Close()
	acct2, _ := l2.GetOrCreateAccount(ctx, p)
	bal, _ := acct2.Balance(ctx, "coins")
	if !bal.Equal(decimal.NewFromInt(42)) {
		t.Errorf("balance after reopen = %s, want 42", bal)
	}
}

func TestOpenLedger_EmptyPath(t *testing.T) {
	if _, err := OpenLedger("  ", "coins"); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		cause types.Cause
		want  string
	}{
		{types.Cause{Plugin: "DeathPenalty"}, "DeathPenalty"},
		{types.Cause{Root: types.CauseSource{Kind: types.CauseEnvironment, Name: "lava"}}, "environment:lava"},
		{penaltyCause, "DeathPenalty/player:steve"},
	}
	for _, tt := range tests {
		if got := describe(tt.cause); got != tt.want {
			t.Errorf("describe(%+v) = %q, want %q", tt.cause, got, tt.want)
		}
	}
}
