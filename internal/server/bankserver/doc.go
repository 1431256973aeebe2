// Package bankserver serves the bank protocol over TCP.
//
// On accept the server writes its PEM public key, then a Session reads
// RSA-OAEP encrypted requests one message at a time and answers each in
// plaintext:
//
//	ID: <id> Password: <secret>              login
//	Transfer <class> <recipient> <amount>    class 1 is savings, 2 is checking
//	2                                        balance query
//
// A session starts unauthenticated and only accepts a login. Once the
// login succeeds it accepts transfers and balance queries for the
// logged-in account until the peer disconnects. A message that does not
// decrypt to valid UTF-8 ends the session without a reply.
//
// Message boundaries come from a Framer: "raw" treats one read as one
// message, "length" prefixes every message (the handshake included) with
// a 4-byte big-endian length.
package bankserver
