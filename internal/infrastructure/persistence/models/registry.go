package models

// AllModels returns every persistence model in dependency order
func AllModels() []any {
	return []any{
		&CustomerModel{},
		&InvoiceModel{},
		&PaymentModel{},
		&AllocationModel{},
		&InvoiceSequenceModel{},
		&LayawayPlanModel{},
		&LayawayInstallmentModel{},
	}
}
