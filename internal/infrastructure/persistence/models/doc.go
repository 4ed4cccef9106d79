// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM tags; every model converts with ToDomain and FromDomain.
//
// Structure:
// - receivable.go: customers, invoices, payments, the allocation ledger and invoice sequences
// - layaway.go: layaway plans and installments
// - registry.go: AllModels for schema setup in tests and local tooling
package models
