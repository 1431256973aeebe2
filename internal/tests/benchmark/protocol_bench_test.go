package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/internal/server/bankserver"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// BenchmarkParseRequest measures plaintext classification.
func BenchmarkParseRequest(b *testing.B) {
	inputs := []string{
		"ID: user-1 Password: secret",
		"Transfer 1 user-2 12.50",
		"2",
		"withdraw everything",
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = bankserver.ParseRequest(inputs[i%len(inputs)])
	}
}

// BenchmarkSessionStep_Balance measures one decrypt plus balance reply.
func BenchmarkSessionStep_Balance(b *testing.B) {
	kp := sharedKey(b)
	ledger := newLedger(b, &nopRepo{accounts: makeAccounts(b, 100)})
	auth := service.NewCredentialService([]domain.Credential{{ID: "user-1", Secret: "secret"}})

	sess := bankserver.NewSession(context.Background(), kp, auth, ledger, metric.NewRegistry())
	login, _ := keypair.Encrypt(kp.PublicKeyBytes(), []byte("ID: user-1 Password: secret"))
	if _, err := sess.Step(login); err != nil {
		b.Fatalf("login failed: %v", err)
	}
	query, err := keypair.Encrypt(kp.PublicKeyBytes(), []byte("2"))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := sess.Step(query); err != nil {
			b.Fatalf("Step failed: %v", err)
		}
	}
}

// BenchmarkCredentialValidate compares plain and argon2id secrets.
func BenchmarkCredentialValidate(b *testing.B) {
	hash, err := service.HashSecret("secret")
	if err != nil {
		b.Fatal(err)
	}

	cases := []struct {
		name   string
		stored string
	}{
		{"plain", "secret"},
		{"argon2id", hash},
	}
	for _, tc := range cases {
		b.Run(tc.name, func(b *testing.B) {
			auth := service.NewCredentialService([]domain.Credential{{ID: "user-1", Secret: tc.stored}})
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if !auth.Validate("user-1", "secret") {
					b.Fatal("Validate failed")
				}
			}
		})
	}
}
