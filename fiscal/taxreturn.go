package fiscal

import (
	"fmt"
	"time"
)

const (
	taxReturnMonth    = time.May
	taxReturnRank     = 2
	taxReturnLegalRef = "Art. 223 du CGI"
)

// AnnualTaxReturn emits the liasse fiscale for the fiscal year closed in
// year-1. It tracks the CA12 deadline since both follow a December close.
func AnnualTaxReturn(year int, cfg Config, warnings *Warnings) []Obligation {
	priorYear := year - 1
	if priorYear < cfg.CreationYear() {
		return nil
	}

	first := priorYear == cfg.FirstFiscalYear()
	period := cfg.FiscalPeriod(priorYear)

	description := fmt.Sprintf("Dépôt de la liasse fiscale et du relevé de solde d'impôt sur les sociétés "+
		"de l'exercice du %s au %s (%s).", formatDate(period.Start), formatDate(period.End), taxReturnLegalRef)
	if first {
		description += " Premier exercice de l'entreprise."
	}

	return []Obligation{stamp(Obligation{
		Key:            fmt.Sprintf("LIASSE_%d", year),
		Type:           TypeTaxReturn,
		Label:          fmt.Sprintf("Liasse fiscale %d", priorYear),
		Description:    description,
		DueDate:        mustNthBusinessDay(year, taxReturnMonth, taxReturnRank),
		FiscalYear:     priorYear,
		CalendarYear:   year,
		Recurring:      true,
		IsFirstYear:    first,
		Tags:           []string{"impots", "liasse", "annuelle"},
		LegalReference: taxReturnLegalRef,
	})}
}
