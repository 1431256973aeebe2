package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// mockBalanceRepo is an in-memory BalanceRepository for testing.
type mockBalanceRepo struct {
	mu       sync.Mutex
	accounts []*domain.Account
	saves    int
	saveErr  error
	loadErr  error
}

func newMockBalanceRepo(accounts ...*domain.Account) *mockBalanceRepo {
	return &mockBalanceRepo{accounts: accounts}
}

func (r *mockBalanceRepo) Load(ctx context.Context) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]*domain.Account, len(r.accounts))
	for i, a := range r.accounts {
		out[i] = a.Clone()
	}
	return out, nil
}

func (r *mockBalanceRepo) Save(ctx context.Context, accounts []*domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.accounts = accounts
	r.saves++
	return nil
}

func (r *mockBalanceRepo) stored(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func mustAccount(t *testing.T, id, savings, checking string) *domain.Account {
	t.Helper()
	a, err := domain.NewAccount(id, savings, checking)
	if err != nil {
		t.Fatalf("NewAccount(%q) error = %v", id, err)
	}
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestLedger(t *testing.T) (*LedgerService, *mockBalanceRepo) {
	t.Helper()
	repo := newMockBalanceRepo(
		mustAccount(t, "alice", "100", "50"),
		mustAccount(t, "bob", "20", "10"),
		mustAccount(t, "carol", "0", "0"),
	)
	l, err := NewLedgerService(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewLedgerService() error = %v", err)
	}
	return l, repo
}

func assertBalance(t *testing.T, l *LedgerService, id, savings, checking string) {
	t.Helper()
	b, err := l.Balances(context.Background(), id)
	if err != nil {
		t.Fatalf("Balances(%q) error = %v", id, err)
	}
	if !b.Savings.Equal(dec(savings)) || !b.Checking.Equal(dec(checking)) {
		t.Errorf("Balances(%q) = (%s, %s), want (%s, %s)", id, b.Savings, b.Checking, savings, checking)
	}
}

func TestNewLedgerService(t *testing.T) {
	t.Run("load error", func(t *testing.T) {
		repo := newMockBalanceRepo()
		repo.loadErr = errors.New("disk gone")
		if _, err := NewLedgerService(context.Background(), repo); err == nil {
			t.Error("expected load error")
		}
	})

	t.Run("duplicate id", func(t *testing.T) {
		repo := newMockBalanceRepo(
			mustAccount(t, "alice", "1", "1"),
			mustAccount(t, "alice", "2", "2"),
		)
		_, err := NewLedgerService(context.Background(), repo)
		if !errors.Is(err, domain.ErrDuplicateAccount) {
			t.Errorf("error = %v, want ErrDuplicateAccount", err)
		}
	})

	t.Run("negative balance", func(t *testing.T) {
		bad := &domain.Account{ID: "mallory", Balance: domain.Balance{Savings: dec("-5")}}
		_, err := NewLedgerService(context.Background(), newMockBalanceRepo(bad))
		if !errors.Is(err, domain.ErrNegativeBalance) {
			t.Errorf("error = %v, want ErrNegativeBalance", err)
		}
	})
}

func TestLedgerService_Balances(t *testing.T) {
	l, _ := newTestLedger(t)

	assertBalance(t, l, "alice", "100", "50")

	_, err := l.Balances(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Balances(nobody) error = %v, want ErrAccountNotFound", err)
	}

	// Identities are case-sensitive.
	_, err = l.Balances(context.Background(), "Alice")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Balances(Alice) error = %v, want ErrAccountNotFound", err)
	}
}

func TestLedgerService_Transfer_Conservation(t *testing.T) {
	tests := []struct {
		name   string
		class  domain.AccountClass
		amount string
		alice  [2]string
		bob    [2]string
	}{
		{"savings", domain.AccountSavings, "30", [2]string{"70", "50"}, [2]string{"50", "10"}},
		{"checking", domain.AccountChecking, "50", [2]string{"100", "0"}, [2]string{"20", "60"}},
		{"fraction", domain.AccountSavings, "0.01", [2]string{"99.99", "50"}, [2]string{"20.01", "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, repo := newTestLedger(t)
			before := l.Total(context.Background())

			err := l.Transfer(context.Background(), &TransferRequest{
				SenderID:    "alice",
				RecipientID: "bob",
				Class:       tt.class,
				Amount:      dec(tt.amount),
			})
			if err != nil {
				t.Fatalf("Transfer() error = %v", err)
			}

			assertBalance(t, l, "alice", tt.alice[0], tt.alice[1])
			assertBalance(t, l, "bob", tt.bob[0], tt.bob[1])
			assertBalance(t, l, "carol", "0", "0")

			if after := l.Total(context.Background()); !after.Equal(before) {
				t.Errorf("total = %s, want %s", after, before)
			}
			if repo.saves != 1 {
				t.Errorf("saves = %d, want 1", repo.saves)
			}
			if got := repo.stored("alice"); got == nil || !got.Savings.Equal(dec(tt.alice[0])) {
				t.Errorf("persisted alice = %+v", got)
			}
		})
	}
}

func TestLedgerService_Transfer_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     TransferRequest
		wantErr error
	}{
		{
			name:    "invalid class",
			req:     TransferRequest{"alice", "bob", domain.AccountClass("3"), dec("1")},
			wantErr: domain.ErrInvalidAccountClass,
		},
		{
			name:    "invalid class checked before unknown recipient",
			req:     TransferRequest{"alice", "nobody", domain.AccountClass("x"), dec("1")},
			wantErr: domain.ErrInvalidAccountClass,
		},
		{
			name:    "zero amount",
			req:     TransferRequest{"alice", "bob", domain.AccountSavings, dec("0")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			req:     TransferRequest{"alice", "bob", domain.AccountSavings, dec("-10")},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "unknown sender",
			req:     TransferRequest{"nobody", "bob", domain.AccountSavings, dec("1")},
			wantErr: domain.ErrSenderNotFound,
		},
		{
			name:    "unknown recipient",
			req:     TransferRequest{"alice", "nobody", domain.AccountSavings, dec("1")},
			wantErr: domain.ErrRecipientNotFound,
		},
		{
			name:    "insufficient savings",
			req:     TransferRequest{"alice", "bob", domain.AccountSavings, dec("200")},
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "insufficient checking",
			req:     TransferRequest{"alice", "bob", domain.AccountChecking, dec("50.01")},
			wantErr: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, repo := newTestLedger(t)
			req := tt.req

			err := l.Transfer(context.Background(), &req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.wantErr)
			}

			assertBalance(t, l, "alice", "100", "50")
			assertBalance(t, l, "bob", "20", "10")
			if repo.saves != 0 {
				t.Errorf("saves = %d, want 0", repo.saves)
			}
		})
	}
}

func TestLedgerService_Transfer_ExactBalance(t *testing.T) {
	l, _ := newTestLedger(t)

	err := l.Transfer(context.Background(), &TransferRequest{"alice", "carol", domain.AccountChecking, dec("50")})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	assertBalance(t, l, "alice", "100", "0")
	assertBalance(t, l, "carol", "0", "50")
}

func TestLedgerService_Transfer_Self(t *testing.T) {
	l, _ := newTestLedger(t)

	err := l.Transfer(context.Background(), &TransferRequest{"alice", "alice", domain.AccountSavings, dec("40")})
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	assertBalance(t, l, "alice", "100", "50")
}

func TestLedgerService_Transfer_PersistFailureRollsBack(t *testing.T) {
	l, repo := newTestLedger(t)
	repo.saveErr = errors.New("disk full")

	err := l.Transfer(context.Background(), &TransferRequest{"alice", "bob", domain.AccountSavings, dec("30")})
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("Transfer() error = %v, want ErrStorage", err)
	}

	assertBalance(t, l, "alice", "100", "50")
	assertBalance(t, l, "bob", "20", "10")

	// The ledger keeps working once storage recovers.
	repo.saveErr = nil
	if err := l.Transfer(context.Background(), &TransferRequest{"alice", "bob", domain.AccountSavings, dec("30")}); err != nil {
		t.Fatalf("Transfer() after recovery error = %v", err)
	}
	assertBalance(t, l, "alice", "70", "50")
}

func TestLedgerService_Transfer_CanceledContext(t *testing.T) {
	l, repo := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Transfer(ctx, &TransferRequest{"alice", "bob", domain.AccountSavings, dec("1")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Transfer() error = %v, want context.Canceled", err)
	}
	if repo.saves != 0 {
		t.Errorf("saves = %d, want 0", repo.saves)
	}
}

func TestLedgerService_Transfer_ConcurrentSameSender(t *testing.T) {
	l, repo := newTestLedger(t)
	before := l.Total(context.Background())

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failed    int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Transfer(context.Background(), &TransferRequest{"alice", "bob", domain.AccountSavings, dec("7")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrInsufficientFunds):
				failed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	// 100 / 7 = 14 transfers fit; the remaining 6 must be rejected.
	if succeeded != 14 || failed != 6 {
		t.Errorf("succeeded=%d failed=%d, want 14 and 6", succeeded, failed)
	}
	assertBalance(t, l, "alice", "2", "50")
	assertBalance(t, l, "bob", "118", "10")

	if after := l.Total(context.Background()); !after.Equal(before) {
		t.Errorf("total = %s, want %s", after, before)
	}
	if repo.saves != 14 {
		t.Errorf("saves = %d, want 14", repo.saves)
	}
}

func TestLedgerService_Transfer_ConcurrentMixed(t *testing.T) {
	l, _ := newTestLedger(t)
	before := l.Total(context.Background())

	amounts := []string{"33", "12.5", "41", "8", "27", "19.75", "5", "60", "2.25", "14"}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		spent  = decimal.Zero
		failed []decimal.Decimal
	)

	for _, amt := range amounts {
		wg.Add(1)
		go func(amount decimal.Decimal) {
			defer wg.Done()
			err := l.Transfer(context.Background(), &TransferRequest{"alice", "carol", domain.AccountSavings, amount})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				spent = spent.Add(amount)
				return
			}
			if !errors.Is(err, domain.ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
			failed = append(failed, amount)
		}(dec(amt))
	}

	// Background readers must never observe a negative or torn balance.
	stop := make(chan struct{})
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			if total := l.Total(context.Background()); !total.Equal(before) {
				t.Errorf("observed total %s, want %s", total, before)
				return
			}
			b, _ := l.Balances(context.Background(), "alice")
			if b.Savings.IsNegative() {
				t.Errorf("observed negative savings %s", b.Savings)
				return
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	final, _ := l.Balances(context.Background(), "alice")
	if !final.Savings.Equal(dec("100").Sub(spent)) {
		t.Errorf("alice savings = %s, want %s", final.Savings, dec("100").Sub(spent))
	}
	if final.Savings.IsNegative() {
		t.Errorf("alice savings went negative: %s", final.Savings)
	}
	// Balances only decrease, so every rejected amount exceeds the final balance.
	for _, amt := range failed {
		if !amt.GreaterThan(final.Savings) {
			t.Errorf("rejected %s although final balance is %s", amt, final.Savings)
		}
	}
	assertBalance(t, l, "carol", spent.String(), "0")
}

func TestLedgerService_Accounts(t *testing.T) {
	l, _ := newTestLedger(t)

	accounts := l.Accounts(context.Background())
	if len(accounts) != 3 {
		t.Fatalf("len(Accounts()) = %d, want 3", len(accounts))
	}
	want := []string{"alice", "bob", "carol"}
	for i, a := range accounts {
		if a.ID != want[i] {
			t.Errorf("Accounts()[%d] = %q, want %q", i, a.ID, want[i])
		}
	}

	// Mutating the snapshot must not leak into the ledger.
	accounts[0].Savings = decimal.Zero
	assertBalance(t, l, "alice", "100", "50")

	if l.Len() != 3 {
		t.Errorf("Len() = %d, want 3", l.Len())
	}
}
