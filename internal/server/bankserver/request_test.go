package bankserver

import (
	"testing"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		kind      RequestKind
		id        string
		secret    string
		class     domain.AccountClass
		recipient string
		amount    string
	}{
		{name: "login", text: "ID: alice Password: wonderland", kind: KindLogin, id: "alice", secret: "wonderland"},
		{name: "login secret with spaces", text: "ID: alice Password: two words", kind: KindLogin, id: "alice", secret: "two words"},
		{name: "login empty id", text: "ID:  Password: x", kind: KindInvalid},
		{name: "login empty secret", text: "ID: alice Password: ", kind: KindInvalid},
		{name: "login missing marker", text: "ID: alice wonderland", kind: KindInvalid},
		{name: "login wrong case", text: "id: alice Password: wonderland", kind: KindInvalid},
		{name: "transfer savings", text: "Transfer 1 bob 30", kind: KindTransfer, class: domain.AccountSavings, recipient: "bob", amount: "30"},
		{name: "transfer checking fraction", text: "Transfer 2 bob 12.50", kind: KindTransfer, class: domain.AccountChecking, recipient: "bob", amount: "12.5"},
		{name: "transfer extra spaces", text: "Transfer  1   bob  5", kind: KindTransfer, class: domain.AccountSavings, recipient: "bob", amount: "5"},
		{name: "transfer unknown class kept", text: "Transfer 3 bob 5", kind: KindTransfer, class: "3", recipient: "bob", amount: "5"},
		{name: "transfer negative amount kept", text: "Transfer 1 bob -5", kind: KindTransfer, class: domain.AccountSavings, recipient: "bob", amount: "-5"},
		{name: "transfer bad amount", text: "Transfer 1 bob lots", kind: KindInvalid},
		{name: "transfer nan", text: "Transfer 1 bob NaN", kind: KindInvalid},
		{name: "transfer inf", text: "Transfer 1 bob Inf", kind: KindInvalid},
		{name: "transfer too few fields", text: "Transfer 1 bob", kind: KindInvalid},
		{name: "transfer too many fields", text: "Transfer 1 bob 5 now", kind: KindInvalid},
		{name: "transfer glued verb", text: "Transfers 1 bob 5", kind: KindInvalid},
		{name: "balance", text: "2", kind: KindBalanceQuery},
		{name: "balance with newline", text: "2\n", kind: KindInvalid},
		{name: "empty", text: "", kind: KindInvalid},
		{name: "other", text: "hello", kind: KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := ParseRequest(tt.text)
			if req.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", req.Kind, tt.kind)
			}
			switch tt.kind {
			case KindLogin:
				if req.ID != tt.id || req.Secret != tt.secret {
					t.Errorf("login = (%q, %q), want (%q, %q)", req.ID, req.Secret, tt.id, tt.secret)
				}
			case KindTransfer:
				if req.Class != tt.class || req.Recipient != tt.recipient || req.Amount.String() != tt.amount {
					t.Errorf("transfer = (%q, %q, %s), want (%q, %q, %s)",
						req.Class, req.Recipient, req.Amount, tt.class, tt.recipient, tt.amount)
				}
			}
		})
	}
}

func TestRequestKind_String(t *testing.T) {
	kinds := map[RequestKind]string{
		KindInvalid:      "invalid",
		KindLogin:        "login",
		KindTransfer:     "transfer",
		KindBalanceQuery: "balance",
		RequestKind(42):  "invalid",
	}
	for k, want := range kinds {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}
