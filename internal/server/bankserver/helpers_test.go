package bankserver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// memRepo is an in-memory BalanceRepository.
type memRepo struct {
	mu       sync.Mutex
	accounts []*domain.Account
	saves    int
	failSave bool
}

func (r *memRepo) Load(ctx context.Context) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Account, len(r.accounts))
	for i, a := range r.accounts {
		out[i] = a.Clone()
	}
	return out, nil
}

func (r *memRepo) Save(ctx context.Context, accounts []*domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return errors.New("disk full")
	}
	r.accounts = accounts
	r.saves++
	return nil
}

var (
	testKeyOnce sync.Once
	testKey     *keypair.KeyPair
	testKeyErr  error
)

// sharedKey returns one 1024-bit key per test binary; generation is slow.
func sharedKey(t *testing.T) *keypair.KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		testKey, testKeyErr = keypair.Generate(1024)
	})
	if testKeyErr != nil {
		t.Fatalf("Generate() error = %v", testKeyErr)
	}
	return testKey
}

type fixture struct {
	keys    *keypair.KeyPair
	auth    *service.CredentialService
	repo    *memRepo
	ledger  *service.LedgerService
	metrics *metric.Registry
}

// newFixture builds alice (100, 50) and bob (20, 10).
func newFixture(t *testing.T) *fixture {
	t.Helper()

	alice, err := domain.NewAccount("alice", "100", "50")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := domain.NewAccount("bob", "20", "10")
	if err != nil {
		t.Fatal(err)
	}
	repo := &memRepo{accounts: []*domain.Account{alice, bob}}

	ledger, err := service.NewLedgerService(context.Background(), repo)
	if err != nil {
		t.Fatalf("NewLedgerService() error = %v", err)
	}

	return &fixture{
		keys: sharedKey(t),
		auth: service.NewCredentialService([]domain.Credential{
			{ID: "alice", Secret: "wonderland"},
			{ID: "bob", Secret: "builder"},
			{ID: "carol", Secret: "singer"}, // no ledger account
		}),
		repo:    repo,
		ledger:  ledger,
		metrics: metric.NewRegistry(),
	}
}

func (f *fixture) encrypt(t *testing.T, plaintext string) []byte {
	t.Helper()
	ct, err := keypair.Encrypt(f.keys.PublicKeyBytes(), []byte(plaintext))
	if err != nil {
		t.Fatalf("Encrypt(%q) error = %v", plaintext, err)
	}
	return ct
}
