package fiscal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TVA - Régime réel simplifié
// =============================================================================
//
// One annual return (CA12) settles the previous fiscal year in May. Two
// installments, computed on the previous year's net VAT, are paid in July
// and December of the current year. The remaining 5% is settled by the next
// CA12.

const (
	tvaAnnualMonth = time.May
	tvaAnnualRank  = 2 // 2nd business day of May

	tvaInstallmentDay = 15

	tvaAnnualLegalRef      = "Art. 287, 3 du CGI"
	tvaInstallmentLegalRef = "Art. 1693 bis du CGI"
)

var (
	tvaJulyRate     = decimal.RequireFromString("0.55")
	tvaDecemberRate = decimal.RequireFromString("0.40")
)

// SimplifiedRealTVA emits the CA12 return and the two installments due in year.
func SimplifiedRealTVA(year int, cfg Config, warnings *Warnings) []Obligation {
	var out []Obligation
	out = append(out, tvaAnnualReturn(year, cfg)...)
	out = append(out, tvaInstallments(year, cfg, warnings)...)
	return out
}

// NormalRealTVA has no generator yet; the gap is reported, not hidden.
func NormalRealTVA(year int, cfg Config, warnings *Warnings) []Obligation {
	warnings.Addf("Régime de TVA réel normal non implémenté : aucune échéance de TVA générée pour %d.", year)
	return nil
}

// ExemptTVA emits nothing: entities under franchise en base file no VAT return.
func ExemptTVA(year int, cfg Config, warnings *Warnings) []Obligation {
	return nil
}

func tvaAnnualReturn(year int, cfg Config) []Obligation {
	priorYear := year - 1
	if priorYear < cfg.CreationYear() {
		return nil
	}

	first := priorYear == cfg.FirstFiscalYear()
	var rationale string
	if first {
		rationale = "Première déclaration de l'entreprise : aucun acompte n'a été versé, " +
			"la totalité de la TVA nette de l'exercice est due."
	} else {
		rationale = "Déclaration de régularisation : TVA nette de l'exercice, " +
			"déduction faite des deux acomptes versés en juillet et décembre."
	}

	return []Obligation{stamp(Obligation{
		Key:   fmt.Sprintf("TVA_CA12_%d", year),
		Type:  TypeTVAAnnual,
		Label: fmt.Sprintf("Déclaration annuelle de TVA (CA12) %d", priorYear),
		Description: fmt.Sprintf("Déclaration CA12 de l'exercice %d, à déposer le %de jour ouvré de mai (%s). %s",
			priorYear, tvaAnnualRank, tvaAnnualLegalRef, rationale),
		DueDate:        mustNthBusinessDay(year, tvaAnnualMonth, tvaAnnualRank),
		FiscalYear:     priorYear,
		CalendarYear:   year,
		Recurring:      true,
		IsFirstYear:    first,
		Tags:           []string{"tva", "declaration", "annuelle"},
		LegalReference: tvaAnnualLegalRef,
	})}
}

func tvaInstallments(year int, cfg Config, warnings *Warnings) []Obligation {
	// No installment in the first fiscal year: there is no prior net VAT to
	// base them on.
	if year == cfg.FirstFiscalYear() || year < cfg.CreationYear() {
		return nil
	}

	refYear := year - 1
	ref, ok := cfg.TVAReference(refYear)
	if !ok {
		warnings.Addf("TVA nette de l'exercice %d non renseignée : les acomptes de TVA %d sont générés sans montant.",
			refYear, year)
	}

	installment := func(month time.Month, monthName string, rate decimal.Decimal, rank string) Obligation {
		o := Obligation{
			Key:            fmt.Sprintf("TVA_ACOMPTE_%s_%d", monthName, year),
			Type:           TypeTVAInstallment,
			Label:          fmt.Sprintf("Acompte de TVA de %s %d", frenchMonth(month), year),
			DueDate:        adjustedDate(year, month, tvaInstallmentDay),
			FiscalYear:     year,
			CalendarYear:   year,
			Recurring:      true,
			IsFirstYear:    false,
			Tags:           []string{"tva", "acompte"},
			LegalReference: tvaInstallmentLegalRef,
		}
		basis := fmt.Sprintf("%s acompte : %s %% de la TVA nette de l'exercice %d", rank, rate.Shift(2).String(), refYear)
		if ok {
			amount := ref.Percent(rate)
			o.Amount = &amount
			o.Description = fmt.Sprintf("%s (%s), soit %s (%s).", basis, ref, amount, tvaInstallmentLegalRef)
		} else {
			o.Description = fmt.Sprintf("%s, montant de référence non renseigné (%s).", basis, tvaInstallmentLegalRef)
		}
		return stamp(o)
	}

	return []Obligation{
		installment(time.July, "JUILLET", tvaJulyRate, "Premier"),
		installment(time.December, "DECEMBRE", tvaDecemberRate, "Second"),
	}
}
