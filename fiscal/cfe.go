package fiscal

import (
	"fmt"
	"time"

	"github.com/warp/fiscal-engine/generic"
)

const (
	cfeMonth    = time.December
	cfeDay      = 15
	cfeLegalRef = "Art. 1447 et 1478 du CGI"
)

// LocalBusinessTax emits the CFE due every December 15th, except in the
// creation year which is always exempt.
func LocalBusinessTax(year int, cfg Config, warnings *Warnings) []Obligation {
	if year <= cfg.CreationYear() {
		return nil
	}

	first := year == cfg.CreationYear()+1
	o := Obligation{
		Key:            fmt.Sprintf("CFE_%d", year),
		Type:           TypeCFE,
		Label:          fmt.Sprintf("Cotisation foncière des entreprises %d", year),
		DueDate:        adjustedDate(year, cfeMonth, cfeDay),
		FiscalYear:     year,
		CalendarYear:   year,
		Recurring:      true,
		IsFirstYear:    first,
		Tags:           []string{"impots", "cfe", "local"},
		LegalReference: cfeLegalRef,
	}

	description := fmt.Sprintf("Paiement de la CFE %d (%s).", year, cfeLegalRef)
	if first {
		description += fmt.Sprintf(" Première année d'imposition : l'année de création (%d) est exonérée.", cfg.CreationYear())
	}
	if cfg.CFEEstimatedAmount != nil {
		amount := generic.NewAmount(*cfg.CFEEstimatedAmount, generic.EUR)
		o.Amount = &amount
		description += fmt.Sprintf(" Montant estimé : %s.", amount)
	} else {
		description += " Montant non renseigné : se reporter à l'avis d'imposition."
	}
	o.Description = description

	return []Obligation{stamp(o)}
}

// SocialContributions stands in for the URSSAF module, which is not built.
// Enabling it must be visible to the caller.
func SocialContributions(year int, cfg Config, warnings *Warnings) []Obligation {
	if cfg.URSSAFEnabled {
		warnings.Addf("Module URSSAF non implémenté : aucune cotisation sociale générée pour %d.", year)
	}
	return nil
}
