package bankserver

import (
	"context"
	"errors"
	"io"
	"net"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
	"github.com/yndnr/bankmesh-go/internal/core/service"
	"github.com/yndnr/bankmesh-go/internal/telemetry/logger"
	"github.com/yndnr/bankmesh-go/internal/telemetry/metric"
	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// Authenticator validates login credentials.
type Authenticator interface {
	Validate(id, secret string) bool
}

// Ledger is the account store a session operates on.
type Ledger interface {
	Balances(ctx context.Context, id string) (domain.Balance, error)
	Transfer(ctx context.Context, req *service.TransferRequest) error
}

var (
	_ Authenticator = (*service.CredentialService)(nil)
	_ Ledger        = (*service.LedgerService)(nil)
)

// State is a session's position in its lifecycle.
type State int

const (
	StateConnected State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "closed"
	}
}

// Session is the per-connection state machine. It is driven by a single
// goroutine and is not safe for concurrent use.
type Session struct {
	id        string
	decrypter keypair.Decrypter
	auth      Authenticator
	ledger    Ledger
	metrics   *metric.Registry

	state  State
	userID string
	ctx    context.Context
}

// NewSession creates a session in StateConnected. ctx carries the logger
// and is passed to ledger calls.
func NewSession(ctx context.Context, decrypter keypair.Decrypter, auth Authenticator, ledger Ledger, metrics *metric.Registry) *Session {
	if metrics == nil {
		metrics = metric.NewRegistry()
	}
	id := ulid.Make().String()
	return &Session{
		id:        id,
		decrypter: decrypter,
		auth:      auth,
		ledger:    ledger,
		metrics:   metrics,
		state:     StateConnected,
		ctx:       logger.WithSessionID(ctx, id),
	}
}

// ID returns the session's ULID.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// UserID returns the authenticated account, or "".
func (s *Session) UserID() string { return s.userID }

// Logger returns the session's logger. Records carry the remote address,
// session ID and, once logged in, the user ID.
func (s *Session) Logger() logger.Logger { return logger.L(s.ctx) }

// Step consumes one encrypted message and returns the reply. When the
// message cannot be decrypted the session moves to StateClosed and Step
// returns an error and no reply.
func (s *Session) Step(ciphertext []byte) (string, error) {
	if s.state == StateClosed {
		return "", domain.ErrServerClosed
	}
	if len(ciphertext) == 0 {
		s.state = StateClosed
		return "", io.EOF
	}

	plaintext, err := s.decrypter.Decrypt(ciphertext)
	if err != nil {
		s.fail()
		return "", domain.ErrDecryption.WithCause(err)
	}
	if !utf8.Valid(plaintext) {
		s.fail()
		return "", domain.ErrMalformedPlaintext
	}

	req := ParseRequest(string(plaintext))
	start := time.Now()
	resp := s.dispatch(req)
	s.metrics.ObserveRequest(req.Kind.String(), time.Since(start).Seconds())
	return resp, nil
}

func (s *Session) fail() {
	s.state = StateClosed
	s.metrics.IncDecryptFailure()
}

func (s *Session) dispatch(req Request) string {
	if s.state == StateConnected {
		if req.Kind != KindLogin {
			return RespInvalidLogin
		}
		return s.login(req)
	}

	switch req.Kind {
	case KindTransfer:
		return s.transfer(req)
	case KindBalanceQuery:
		return s.balance()
	default:
		return RespInvalidRequest
	}
}

func (s *Session) login(req Request) string {
	ok := s.auth.Validate(req.ID, req.Secret)
	s.metrics.RecordLogin(ok)
	if !ok {
		s.Logger().Info("login rejected", "id", req.ID)
		return RespLoginFailed
	}

	s.userID = req.ID
	s.state = StateAuthenticated
	s.ctx = logger.WithUserID(s.ctx, req.ID)
	s.Logger().Info("login accepted")
	return RespLoginOK
}

func (s *Session) transfer(req Request) string {
	err := s.ledger.Transfer(s.ctx, &service.TransferRequest{
		SenderID:    s.userID,
		RecipientID: req.Recipient,
		Class:       req.Class,
		Amount:      req.Amount,
	})
	resp, result := transferOutcome(err)
	s.metrics.RecordTransfer(result)

	l := s.Logger().With("recipient", req.Recipient, "class", string(req.Class), "amount", req.Amount.String())
	switch {
	case err == nil:
		l.Info("transfer committed")
	case result == metric.ResultStorageError:
		l.Error("transfer failed", "error", err)
	default:
		l.Info("transfer rejected", "reason", result)
	}
	return resp
}

func (s *Session) balance() string {
	b, err := s.ledger.Balances(s.ctx, s.userID)
	if err != nil {
		return RespAccountNotFound
	}
	return FormatBalance(b)
}

// Serve runs the session over conn until the peer disconnects, a message
// fails to decrypt, or a write fails. The handshake must already have
// been sent.
func (s *Session) Serve(conn net.Conn, framer Framer) error {
	defer func() { s.state = StateClosed }()

	l := s.Logger()
	for {
		msg, err := framer.ReadMessage(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		resp, err := s.Step(msg)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			l.Warn("closing session", "error", err)
			return err
		}

		if err := framer.WriteMessage(conn, []byte(resp)); err != nil {
			return err
		}
	}
}
