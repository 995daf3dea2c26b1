package fiscal

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/generic"
)

// Override is what the user changed on an obligation, keyed by obligation
// key. Generated IDs change on every call and are never used here.
type Override struct {
	Key       string
	Status    Status
	Amount    *decimal.Decimal
	Notes     string
	PaidAt    *time.Time
	UpdatedAt time.Time
}

// WithStatus sets the status. Paid stamps PaidAt with now; any other status
// clears it.
func (o Override) WithStatus(status Status, now time.Time) Override {
	o.Status = status
	if status == StatusPaid {
		paid := now
		o.PaidAt = &paid
	} else {
		o.PaidAt = nil
	}
	o.UpdatedAt = now
	return o
}

// ObligationUpdate is a partial update; nil fields are left untouched.
type ObligationUpdate struct {
	Status      *Status
	Amount      *decimal.Decimal
	ClearAmount bool
	Notes       *string
}

// Apply merges the update into o.
func (u ObligationUpdate) Apply(o Override, now time.Time) Override {
	if u.Status != nil {
		o = o.WithStatus(*u.Status, now)
	}
	if u.ClearAmount {
		o.Amount = nil
	} else if u.Amount != nil {
		v := *u.Amount
		o.Amount = &v
	}
	if u.Notes != nil {
		o.Notes = *u.Notes
	}
	o.UpdatedAt = now
	return o
}

// ApplyOverrides returns a copy of obligations with stored status and
// amount laid over the matching keys. Everything else stays as generated.
func ApplyOverrides(obligations []Obligation, overrides map[string]Override) []Obligation {
	out := make([]Obligation, len(obligations))
	for i, o := range obligations {
		ov, ok := overrides[o.Key]
		if ok {
			if ov.Status != "" {
				o.Status = ov.Status
			}
			if ov.Amount != nil {
				amount := generic.NewAmount(*ov.Amount, generic.EUR)
				o.Amount = &amount
			}
		}
		out[i] = o
	}
	return out
}
