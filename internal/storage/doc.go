// Package storage provides the persistence backends for the bankmesh ledger.
//
// Two backends implement service.BalanceRepository:
//
//   - textfile.BalanceFile: the line-oriented balance file, rewritten in
//     full on every transfer
//   - BadgerBalanceStore: an embedded Badger database, with the full
//     balance set written in a single transaction
//
// Credentials are always read from the text credential file.
//
// Open selects the backend from the server configuration.
package storage
