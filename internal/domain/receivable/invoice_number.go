package receivable

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ledgerline/backend/internal/domain/shared"
)

// InvoiceNumberPrefix starts every invoice number
const InvoiceNumberPrefix = "INV"

// FormatInvoiceNumber renders INV-<year>-<seq> with the sequence padded to 4 digits
func FormatInvoiceNumber(year, seq int) string {
	return fmt.Sprintf("%s-%d-%04d", InvoiceNumberPrefix, year, seq)
}

// ParseInvoiceNumber splits an invoice number into year and sequence
func ParseInvoiceNumber(number string) (year, seq int, err error) {
	malformed := shared.NewDomainErrorf(shared.CodeInvalidInput, "Malformed invoice number %q", number)

	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != InvoiceNumberPrefix || len(parts[1]) != 4 || len(parts[2]) < 4 {
		return 0, 0, malformed
	}
	if year, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, malformed
	}
	if seq, err = strconv.Atoi(parts[2]); err != nil || seq < 1 {
		return 0, 0, malformed
	}
	return year, seq, nil
}
