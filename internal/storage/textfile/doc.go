// Package textfile stores credentials and balances in line-oriented text
// files.
//
// Credential file, one record per line:
//
//	<id> <secret>
//
// Balance file, one account per line:
//
//	<id> <savings> <checking>
//
// Fields are separated by whitespace. The balance file is rewritten in
// full on every Save through a temporary file that is synced and renamed
// over the original, so readers never see a half-written ledger.
package textfile
