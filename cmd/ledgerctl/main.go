// Command ledgerctl runs ledger maintenance against the configured database.
package main

func main() {
	Execute()
}
