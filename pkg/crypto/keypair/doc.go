// Package keypair holds the server's RSA key pair.
//
// Clients encrypt each request with the server's public key using
// RSA-OAEP with SHA-256 for both the hash and MGF1. The server decrypts
// with the private key. Responses travel in plaintext, so the pair only
// protects the client-to-server direction.
//
// The public key is handed to clients as PEM-encoded SubjectPublicKeyInfo.
// The encoding is computed once at load time and reused for every
// connection.
//
// Usage:
//
//	kp, err := keypair.Load("private_key.pem", "public_key.pem")
//	plaintext, err := kp.Decrypt(ciphertext)
//
//	ciphertext, err := keypair.Encrypt(kp.PublicKeyBytes(), []byte("2"))
//
// A KeyPair is immutable after Load or Generate and safe for concurrent use.
package keypair
