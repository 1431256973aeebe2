package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bankmesh-go/internal/cli/output"
	"github.com/yndnr/bankmesh-go/pkg/bankclient"
)

// BalanceView is the balance command's result.
type BalanceView struct {
	Account  string `json:"account" yaml:"account"`
	Savings  string `json:"savings" yaml:"savings"`
	Checking string `json:"checking" yaml:"checking"`
}

// Table implements output.Tabular.
func (b BalanceView) Table() *output.Table {
	return &output.Table{
		Headers: []string{"ACCOUNT", "SAVINGS", "CHECKING"},
		Rows:    [][]string{{b.Account, b.Savings, b.Checking}},
	}
}

// TransferView is the transfer command's result.
type TransferView struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Class     string `json:"class" yaml:"class"`
	Amount    string `json:"amount" yaml:"amount"`
	Succeeded bool   `json:"succeeded" yaml:"succeeded"`
	Reply     string `json:"reply" yaml:"reply"`
}

// Table implements output.Tabular.
func (t TransferView) Table() *output.Table {
	return &output.Table{
		Headers: []string{"FROM", "TO", "CLASS", "AMOUNT", "REPLY"},
		Rows:    [][]string{{t.From, t.To, t.Class, t.Amount, t.Reply}},
	}
}

// BalanceCommand returns the balance command.
func BalanceCommand() *cli.Command {
	return &cli.Command{
		Name:   "balance",
		Usage:  "Show the savings and checking balances of an account",
		Flags:  accountFlags(),
		Action: balanceAction,
	}
}

func balanceAction(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	client, err := session(c, flags)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	reply, err := client.Balance(ctx)
	if err != nil {
		return err
	}
	savings, checking, err := bankclient.ParseBalance(reply)
	if err != nil {
		return err
	}
	return render(c, flags, BalanceView{
		Account:  c.String("id"),
		Savings:  savings,
		Checking: checking,
	})
}

// TransferCommand returns the transfer command.
func TransferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Usage:     "Move funds from the logged-in account to another account",
		ArgsUsage: "<savings|checking> <recipient> <amount>",
		Flags:     accountFlags(),
		Action:    transferAction,
	}
}

func transferAction(c *cli.Context) error {
	if c.NArg() != 3 {
		return fmt.Errorf("transfer takes 3 arguments, got %d", c.NArg())
	}
	class, err := parseClass(c.Args().Get(0))
	if err != nil {
		return err
	}
	recipient, amount := c.Args().Get(1), c.Args().Get(2)

	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	client, err := session(c, flags)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(c.Context, flags.Timeout)
	defer cancel()

	reply, err := client.Transfer(ctx, class, recipient, amount)
	if err != nil && !errors.Is(err, bankclient.ErrRejected) {
		return err
	}
	view := TransferView{
		From:      c.String("id"),
		To:        recipient,
		Class:     c.Args().Get(0),
		Amount:    amount,
		Succeeded: err == nil,
		Reply:     reply,
	}
	if rerr := render(c, flags, view); rerr != nil {
		return rerr
	}
	return err
}

// parseClass accepts the account class by name or by wire code.
func parseClass(s string) (string, error) {
	switch strings.ToLower(s) {
	case "savings", bankclient.Savings:
		return bankclient.Savings, nil
	case "checking", bankclient.Checking:
		return bankclient.Checking, nil
	default:
		return "", fmt.Errorf("unknown account class %q (want savings or checking)", s)
	}
}
