// Package receivable models invoices, payments and the allocation ledger
// linking them, together with the pure engines that derive invoice status,
// aging, customer health and match suggestions from that ledger.
//
// Invoice.PaidAmount, Invoice.Status and Payment.IsMatched are caches. They
// are only written by recomputing from the ledger, never incremented.
package receivable
