package bankserver

import (
	"errors"
	"fmt"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
)

// Response texts. Clients match on these exactly.
const (
	RespLoginOK            = "ID and password are correct"
	RespLoginFailed        = "ID or password is incorrect"
	RespInvalidLogin       = "Invalid login format"
	RespTransferOK         = "Your transaction is successful"
	RespRecipientNotFound  = "The recipient's ID does not exist"
	RespInsufficientFunds  = "Your account does not have enough funds"
	RespInvalidAccountType = "Invalid account type"
	RespInvalidAmount      = "Invalid amount"
	RespTransferFailed     = "Your transaction could not be completed"
	RespAccountNotFound    = "User account not found."
	RespInvalidRequest     = "Invalid request format"
)

// FormatBalance renders a balance query answer.
func FormatBalance(b domain.Balance) string {
	return fmt.Sprintf("Your savings account balance: %s\nYour checking account balance: %s",
		b.Savings.String(), b.Checking.String())
}

// transferOutcome maps a ledger result to its reply and metric label.
func transferOutcome(err error) (resp, result string) {
	switch {
	case err == nil:
		return RespTransferOK, metric.ResultOK
	case errors.Is(err, domain.ErrRecipientNotFound):
		return RespRecipientNotFound, metric.ResultRecipientNotFound
	case errors.Is(err, domain.ErrSenderNotFound):
		return RespAccountNotFound, metric.ResultSenderNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return RespInsufficientFunds, metric.ResultInsufficient
	case errors.Is(err, domain.ErrInvalidAccountClass):
		return RespInvalidAccountType, metric.ResultInvalidClass
	case errors.Is(err, domain.ErrInvalidAmount):
		return RespInvalidAmount, metric.ResultInvalidAmount
	default:
		return RespTransferFailed, metric.ResultStorageError
	}
}
