package bankserver

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// RequestKind tags a parsed Request.
type RequestKind int

const (
	KindInvalid RequestKind = iota
	KindLogin
	KindTransfer
	KindBalanceQuery
)

func (k RequestKind) String() string {
	switch k {
	case KindLogin:
		return "login"
	case KindTransfer:
		return "transfer"
	case KindBalanceQuery:
		return "balance"
	default:
		return "invalid"
	}
}

const (
	loginIDPrefix     = "ID: "
	loginSecretMarker = " Password: "
	transferVerb      = "Transfer"
	balanceQuery      = "2"
)

// Request is one decrypted client message. Only the fields of its Kind
// are set.
type Request struct {
	Kind RequestKind

	// Login
	ID     string
	Secret string

	// Transfer. Class is carried as sent so the ledger can reject an
	// unknown code.
	Class     domain.AccountClass
	Recipient string
	Amount    decimal.Decimal
}

// ParseRequest classifies a decrypted message. It never fails: anything
// unrecognised is KindInvalid.
func ParseRequest(text string) Request {
	if text == balanceQuery {
		return Request{Kind: KindBalanceQuery}
	}
	if strings.HasPrefix(text, loginIDPrefix) {
		return parseLogin(text)
	}
	if strings.HasPrefix(text, transferVerb) {
		return parseTransfer(text)
	}
	return Request{Kind: KindInvalid}
}

func parseLogin(text string) Request {
	rest := strings.TrimPrefix(text, loginIDPrefix)
	id, secret, ok := strings.Cut(rest, loginSecretMarker)
	if !ok || id == "" || secret == "" {
		return Request{Kind: KindInvalid}
	}
	return Request{Kind: KindLogin, ID: id, Secret: secret}
}

func parseTransfer(text string) Request {
	fields := strings.Fields(text)
	if len(fields) != 4 || fields[0] != transferVerb {
		return Request{Kind: KindInvalid}
	}
	amount, err := decimal.NewFromString(fields[3])
	if err != nil {
		return Request{Kind: KindInvalid}
	}
	return Request{
		Kind:      KindTransfer,
		Class:     domain.AccountClass(fields[1]),
		Recipient: fields[2],
		Amount:    amount,
	}
}
