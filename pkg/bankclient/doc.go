// Package bankclient is a client for the bankmesh wire protocol.
//
//	c, err := bankclient.Dial(ctx, bankclient.Config{Address: "127.0.0.1:8888"})
//	if err != nil { ... }
//	defer c.Close()
//	if err := c.Login(ctx, "alice", "wonderland"); err != nil { ... }
//	reply, err := c.Transfer(ctx, bankclient.Savings, "bob", "30")
//
// Requests are encrypted with the public key the server sends on
// connect. Replies arrive in plaintext. The key is not authenticated, so
// callers that need to detect a spoofed server should compare
// PublicKeyPEM against a key they already trust.
package bankclient
