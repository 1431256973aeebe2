// Package command defines the bankmesh-cli commands.
//
// Account commands (balance, transfer) open one connection, log in, send
// a single request and print the reply. Operator commands (keygen, hash)
// run locally and never touch the network.
package command
