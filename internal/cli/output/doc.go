// Package output renders bankmesh-cli results as a table, JSON or YAML.
package output
