package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// AccountCounts defines the ledger sizes for benchmarking.
var AccountCounts = []int{100, 1000, 10000}

// nopRepo discards saves so benchmarks measure the ledger itself.
type nopRepo struct {
	accounts []*domain.Account
}

func (r *nopRepo) Load(ctx context.Context) ([]*domain.Account, error) {
	return r.accounts, nil
}

func (r *nopRepo) Save(ctx context.Context, accounts []*domain.Account) error {
	return nil
}

func makeAccounts(b *testing.B, count int) []*domain.Account {
	b.Helper()
	accounts := make([]*domain.Account, count)
	for i := range accounts {
		a, err := domain.NewAccount(fmt.Sprintf("user-%d", i), "1000000", "1000000")
		if err != nil {
			b.Fatal(err)
		}
		accounts[i] = a
	}
	return accounts
}

func newLedger(b *testing.B, repo service.BalanceRepository) *service.LedgerService {
	b.Helper()
	ledger, err := service.NewLedgerService(context.Background(), repo)
	if err != nil {
		b.Fatalf("NewLedgerService() error = %v", err)
	}
	return ledger
}

var (
	benchKeyOnce sync.Once
	benchKey     *keypair.KeyPair
)

// sharedKey returns one 2048-bit key, the production default.
func sharedKey(b *testing.B) *keypair.KeyPair {
	b.Helper()
	benchKeyOnce.Do(func() {
		benchKey, _ = keypair.Generate(2048)
	})
	if benchKey == nil {
		b.Fatal("key generation failed")
	}
	return benchKey
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithAccountCounts runs benchFn once per ledger size.
func runWithAccountCounts(b *testing.B, benchFn func(b *testing.B, count int)) {
	for _, count := range AccountCounts {
		b.Run(fmt.Sprintf("accounts_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
