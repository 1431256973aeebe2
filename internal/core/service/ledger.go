package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// BalanceRepository persists the full balance set.
type BalanceRepository interface {
	// Load returns every account in stored order.
	Load(ctx context.Context) ([]*domain.Account, error)

	// Save durably replaces the stored balance set with accounts.
	Save(ctx context.Context, accounts []*domain.Account) error
}

// TransferRequest contains the parameters of one transfer.
type TransferRequest struct {
	SenderID    string
	RecipientID string
	Class       domain.AccountClass
	Amount      decimal.Decimal
}

// LedgerService is the shared, mutable store of per-user balances.
//
// Every transfer runs under the write lock from validation to persist, so
// concurrent transfers never interleave their read-modify-write steps.
// Balance queries take the read lock and see a consistent snapshot.
type LedgerService struct {
	repo BalanceRepository

	mu       sync.RWMutex
	order    []string
	accounts map[string]*domain.Account
}

// NewLedgerService loads the balance set from repo and returns a ledger
// that persists every successful transfer back to it.
func NewLedgerService(ctx context.Context, repo BalanceRepository) (*LedgerService, error) {
	accounts, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	l := &LedgerService{
		repo:     repo,
		order:    make([]string, 0, len(accounts)),
		accounts: make(map[string]*domain.Account, len(accounts)),
	}

	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := l.accounts[a.ID]; dup {
			return nil, domain.ErrDuplicateAccount.WithDetails(a.ID)
		}
		l.order = append(l.order, a.ID)
		l.accounts[a.ID] = a.Clone()
	}

	return l, nil
}

// Balances returns the savings and checking balances of id.
func (l *LedgerService) Balances(ctx context.Context, id string) (domain.Balance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	if !ok {
		return domain.Balance{}, domain.ErrAccountNotFound
	}
	return a.Balance, nil
}

// Transfer moves req.Amount from the sender's to the recipient's balance in
// the same account class.
//
// Checks run in this order: account class, amount, sender, recipient,
// funds. On any error, including a failed persist, the ledger is left
// exactly as it was.
func (l *LedgerService) Transfer(ctx context.Context, req *TransferRequest) error {
	if !req.Class.Valid() {
		return domain.ErrInvalidAccountClass.WithDetails(string(req.Class))
	}
	if !req.Amount.IsPositive() {
		return domain.ErrInvalidAmount.WithDetails(req.Amount.String())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	sender, ok := l.accounts[req.SenderID]
	if !ok {
		return domain.ErrSenderNotFound.WithDetails(req.SenderID)
	}
	recipient, ok := l.accounts[req.RecipientID]
	if !ok {
		return domain.ErrRecipientNotFound.WithDetails(req.RecipientID)
	}

	if sender.Get(req.Class).LessThan(req.Amount) {
		return domain.ErrInsufficientFunds
	}

	senderBefore, recipientBefore := sender.Balance, recipient.Balance

	sender.Balance = sender.With(req.Class, sender.Get(req.Class).Sub(req.Amount))
	recipient.Balance = recipient.With(req.Class, recipient.Get(req.Class).Add(req.Amount))

	if err := l.repo.Save(ctx, l.snapshotLocked()); err != nil {
		recipient.Balance = recipientBefore
		sender.Balance = senderBefore
		return domain.ErrStorage.WithCause(fmt.Errorf("persist balances: %w", err))
	}

	return nil
}

// Accounts returns a copy of every account in stored order.
func (l *LedgerService) Accounts(ctx context.Context) []*domain.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Total returns the sum of every savings and checking balance.
func (l *LedgerService) Total(ctx context.Context) decimal.Decimal {
	return domain.TotalOf(l.Accounts(ctx))
}

// Len returns the number of accounts.
func (l *LedgerService) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

func (l *LedgerService) snapshotLocked() []*domain.Account {
	out := make([]*domain.Account, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.accounts[id].Clone())
	}
	return out
}
