package keypair

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default file names used by WritePEM and the server configuration.
const (
	PrivateKeyFile = "private_key.pem"
	PublicKeyFile  = "public_key.pem"

	// DefaultBits is the modulus size used by Generate when bits is zero.
	DefaultBits = 2048

	// MinBits is the smallest modulus accepted by Generate.
	MinBits = 1024
)

var (
	// ErrDecryption is returned for malformed ciphertext or a padding mismatch.
	ErrDecryption = errors.New("keypair: decryption failed")

	// ErrInvalidKey is returned when PEM data does not hold a usable RSA key.
	ErrInvalidKey = errors.New("keypair: invalid key")

	// ErrKeyMismatch is returned when the public key does not belong to the private key.
	ErrKeyMismatch = errors.New("keypair: public key does not match private key")
)

// Decrypter is the server-side capability: decrypt inbound requests and
// publish the key clients should encrypt with.
type Decrypter interface {
	Decrypt(ciphertext []byte) ([]byte, error)
	PublicKeyBytes() []byte
}

// KeyPair is an RSA private key plus the PEM encoding of its public half.
type KeyPair struct {
	private *rsa.PrivateKey
	public  []byte
}

var _ Decrypter = (*KeyPair)(nil)

// Load reads a PEM private key and, if publicPath is not empty, a PEM
// public key which must match it. With an empty publicPath the public key
// is derived from the private key.
func Load(privatePath, publicPath string) (*KeyPair, error) {
	privPEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	priv, err := ParsePrivateKey(privPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", privatePath, err)
	}

	kp, err := New(priv)
	if err != nil {
		return nil, err
	}

	if publicPath == "" {
		return kp, nil
	}

	pubPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pub, err := ParsePublicKey(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", publicPath, err)
	}
	if !pub.Equal(&priv.PublicKey) {
		return nil, ErrKeyMismatch
	}

	return kp, nil
}

// New wraps an existing private key.
func New(priv *rsa.PrivateKey) (*KeyPair, error) {
	if priv == nil {
		return nil, ErrInvalidKey
	}
	pub, err := EncodePublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}
	return &KeyPair{private: priv, public: pub}, nil
}

// Generate creates a fresh key pair. bits of zero selects DefaultBits.
func Generate(bits int) (*KeyPair, error) {
	if bits == 0 {
		bits = DefaultBits
	}
	if bits < MinBits {
		return nil, fmt.Errorf("keypair: modulus of %d bits is below the minimum of %d", bits, MinBits)
	}
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return New(priv)
}

// Decrypt decrypts an RSA-OAEP (SHA-256) ciphertext. No partial plaintext
// is ever returned on failure.
func (kp *KeyPair) Decrypt(ciphertext []byte) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha256.New(), nil, kp.private, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

// PublicKeyBytes returns the PEM-encoded public key. Callers must not
// modify the returned slice.
func (kp *KeyPair) PublicKeyBytes() []byte {
	return kp.public
}

// MaxPlaintextSize returns the longest message Encrypt accepts for this key.
func (kp *KeyPair) MaxPlaintextSize() int {
	return maxPlaintext(&kp.private.PublicKey)
}

// CiphertextSize returns the size of every ciphertext produced for this key.
func (kp *KeyPair) CiphertextSize() int {
	return kp.private.PublicKey.Size()
}

// WritePEM writes the pair to dir as PrivateKeyFile and PublicKeyFile.
// The private key file is created with mode 0600.
func (kp *KeyPair) WritePEM(dir string) (privatePath, publicPath string, err error) {
	privatePath = filepath.Join(dir, PrivateKeyFile)
	publicPath = filepath.Join(dir, PublicKeyFile)

	der, err := x509.MarshalPKCS8PrivateKey(kp.private)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	if err := os.WriteFile(privatePath, privPEM, 0600); err != nil {
		return "", "", fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(publicPath, kp.public, 0644); err != nil {
		return "", "", fmt.Errorf("write public key: %w", err)
	}
	return privatePath, publicPath, nil
}

// Encrypt encrypts plaintext for the holder of the PEM public key.
func Encrypt(publicPEM, plaintext []byte) ([]byte, error) {
	pub, err := ParsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}
	return EncryptWith(pub, plaintext)
}

// EncryptWith encrypts plaintext with an already parsed public key.
func EncryptWith(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	if len(plaintext) > maxPlaintext(pub) {
		return nil, fmt.Errorf("keypair: message of %d bytes exceeds the %d byte limit", len(plaintext), maxPlaintext(pub))
	}
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
}

// EncodePublicKey encodes pub as PEM SubjectPublicKeyInfo.
func EncodePublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePublicKey parses a PEM SubjectPublicKeyInfo or PKCS#1 RSA public key.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	}

	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		pub, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKey)
		}
		return pub, nil
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKey, block.Type)
	}
}

// ParsePrivateKey parses a PEM PKCS#8 or PKCS#1 RSA private key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	}

	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: not an RSA key", ErrInvalidKey)
		}
		return priv, nil
	case "RSA PRIVATE KEY":
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return priv, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM type %q", ErrInvalidKey, block.Type)
	}
}

// maxPlaintext is the OAEP limit: k - 2*hLen - 2.
func maxPlaintext(pub *rsa.PublicKey) int {
	return pub.Size() - 2*sha256.Size - 2
}
