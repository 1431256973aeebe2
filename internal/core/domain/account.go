// Package domain defines the core domain models for bankmesh.
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountClass selects one of a user's two balances. Values are the
// protocol codes used on the wire.
type AccountClass string

const (
	// AccountSavings is the savings balance (protocol code "1").
	AccountSavings AccountClass = "1"
	// AccountChecking is the checking balance (protocol code "2").
	AccountChecking AccountClass = "2"
)

// Valid reports whether c names savings or checking.
func (c AccountClass) Valid() bool {
	return c == AccountSavings || c == AccountChecking
}

// String returns the human-readable class name.
func (c AccountClass) String() string {
	switch c {
	case AccountSavings:
		return "savings"
	case AccountChecking:
		return "checking"
	default:
		return "unknown"
	}
}

// Balance is the (savings, checking) pair held by one user.
type Balance struct {
	Savings  decimal.Decimal
	Checking decimal.Decimal
}

// Get returns the balance for the given class. Invalid classes yield zero.
func (b Balance) Get(class AccountClass) decimal.Decimal {
	switch class {
	case AccountSavings:
		return b.Savings
	case AccountChecking:
		return b.Checking
	default:
		return decimal.Zero
	}
}

// With returns a copy of b with the given class set to v.
func (b Balance) With(class AccountClass, v decimal.Decimal) Balance {
	switch class {
	case AccountSavings:
		b.Savings = v
	case AccountChecking:
		b.Checking = v
	}
	return b
}

// Total returns savings plus checking.
func (b Balance) Total() decimal.Decimal {
	return b.Savings.Add(b.Checking)
}

// Account is one ledger row.
type Account struct {
	ID string
	Balance
}

// NewAccount creates an account from decimal strings such as "100" or "12.5".
func NewAccount(id, savings, checking string) (*Account, error) {
	s, err := decimal.NewFromString(savings)
	if err != nil {
		return nil, ErrDataFile.WithDetails(id + " savings: " + err.Error())
	}
	c, err := decimal.NewFromString(checking)
	if err != nil {
		return nil, ErrDataFile.WithDetails(id + " checking: " + err.Error())
	}
	a := &Account{ID: id, Balance: Balance{Savings: s, Checking: c}}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the account invariants: a usable id and no negative balance.
func (a *Account) Validate() error {
	if !IsValidIdentity(a.ID) {
		return InvalidIdentityError(a.ID)
	}
	if a.Savings.IsNegative() {
		return ErrNegativeBalance.WithDetails(a.ID + " savings")
	}
	if a.Checking.IsNegative() {
		return ErrNegativeBalance.WithDetails(a.ID + " checking")
	}
	return nil
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// Credential is a stored (id, secret) record.
type Credential struct {
	ID     string
	Secret string
}

// IsValidIdentity reports whether id can be stored in the line-oriented
// data files: non-empty and free of whitespace.
func IsValidIdentity(id string) bool {
	return id != "" && !strings.ContainsAny(id, " \t\r\n")
}

// InvalidIdentityError builds the error returned for an unusable identity.
func InvalidIdentityError(id string) *DomainError {
	return ErrDataFile.WithDetails(fmt.Sprintf("invalid identity %q", id))
}

// TotalOf sums every balance across accounts.
func TotalOf(accounts []*Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Total())
	}
	return total
}
