package bankclient

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/yndnr/bankmesh-go/pkg/crypto/keypair"
)

// Account classes as sent on the wire.
const (
	Savings  = "1"
	Checking = "2"
)

// Framing modes; must match the server.
const (
	FramingRaw    = "raw"
	FramingLength = "length"
)

// Server replies the client interprets.
const (
	ReplyLoginOK      = "ID and password are correct"
	ReplyLoginFailed  = "ID or password is incorrect"
	ReplyTransferOK   = "Your transaction is successful"
	balanceLinePrefix = "Your savings account balance: "
)

var (
	// ErrLoginFailed is returned by Login when the server rejects the
	// credentials.
	ErrLoginFailed = errors.New("bankclient: ID or password is incorrect")
	// ErrUnexpectedReply is returned when a reply does not match the
	// request.
	ErrUnexpectedReply = errors.New("bankclient: unexpected reply")
	// ErrRejected wraps a transfer the server declined; the reply text
	// is in the error message.
	ErrRejected = errors.New("bankclient: request rejected")
)

// Config configures Dial.
type Config struct {
	Address string
	Framing string
	// MaxMessageSize bounds a single read (default: 4096).
	MaxMessageSize int
	// Timeout applies to each exchange when the context has no deadline
	// (default: 10s).
	Timeout time.Duration
}

// Client is a single authenticated-or-not connection. It is not safe for
// concurrent use.
type Client struct {
	conn      net.Conn
	pub       *rsa.PublicKey
	publicPEM []byte
	length    bool
	max       int
	timeout   time.Duration
}

// Dial connects and reads the server's public key.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{
		max:     cfg.MaxMessageSize,
		timeout: cfg.Timeout,
	}
	if c.max <= 0 {
		c.max = 4096
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	switch strings.ToLower(cfg.Framing) {
	case "", FramingRaw:
	case FramingLength:
		c.length = true
	default:
		return nil, fmt.Errorf("bankclient: unknown framing %q", cfg.Framing)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}
	c.conn = conn

	if err := c.setDeadline(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	pemBytes, err := c.read()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, err := keypair.ParsePublicKey(pemBytes)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	c.pub = pub
	c.publicPEM = pemBytes
	return c, nil
}

// PublicKeyPEM returns the key the server presented.
func (c *Client) PublicKeyPEM() []byte {
	return bytes.Clone(c.publicPEM)
}

// Send encrypts one request and returns the server's reply.
func (c *Client) Send(ctx context.Context, request string) (string, error) {
	ct, err := keypair.EncryptWith(c.pub, []byte(request))
	if err != nil {
		return "", err
	}
	if err := c.setDeadline(ctx); err != nil {
		return "", err
	}
	if err := c.write(ct); err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	reply, err := c.read()
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return string(reply), nil
}

// Login authenticates the connection.
func (c *Client) Login(ctx context.Context, id, secret string) error {
	reply, err := c.Send(ctx, "ID: "+id+" Password: "+secret)
	if err != nil {
		return err
	}
	switch reply {
	case ReplyLoginOK:
		return nil
	case ReplyLoginFailed:
		return ErrLoginFailed
	default:
		return fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
}

// Transfer moves amount from the logged-in account to recipient. A
// declined transfer returns the reply text wrapped in ErrRejected.
func (c *Client) Transfer(ctx context.Context, class, recipient, amount string) (string, error) {
	reply, err := c.Send(ctx, fmt.Sprintf("Transfer %s %s %s", class, recipient, amount))
	if err != nil {
		return "", err
	}
	if reply != ReplyTransferOK {
		return reply, fmt.Errorf("%w: %s", ErrRejected, reply)
	}
	return reply, nil
}

// Balance returns the raw two-line balance reply.
func (c *Client) Balance(ctx context.Context) (string, error) {
	reply, err := c.Send(ctx, "2")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(reply, balanceLinePrefix) {
		return reply, fmt.Errorf("%w: %s", ErrRejected, reply)
	}
	return reply, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) setDeadline(ctx context.Context) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Client) write(p []byte) error {
	if !c.length {
		_, err := c.conn.Write(p)
		return err
	}
	buf := make([]byte, 4+len(p))
	binary.BigEndian.PutUint32(buf, uint32(len(p)))
	copy(buf[4:], p)
	_, err := c.conn.Write(buf)
	return err
}

func (c *Client) read() ([]byte, error) {
	if !c.length {
		buf := make([]byte, c.max)
		n, err := c.conn.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	var hdr [4]byte
	if _, err := io.ReadFull(c.conn, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(hdr[:])
	if uint64(size) > uint64(c.max) {
		return nil, fmt.Errorf("bankclient: frame of %d bytes exceeds %d", size, c.max)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(c.conn, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ParseBalance splits a balance reply into its savings and checking
// figures.
func ParseBalance(reply string) (savings, checking string, err error) {
	lines := strings.Split(reply, "\n")
	if len(lines) != 2 {
		return "", "", fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
	s, ok1 := strings.CutPrefix(lines[0], balanceLinePrefix)
	ck, ok2 := strings.CutPrefix(lines[1], "Your checking account balance: ")
	if !ok1 || !ok2 {
		return "", "", fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
	return s, ck, nil
}
