// Package currency normalizes the three monetary denominations used in
// quotations (USD, ARS, ARS with VAT included) into USD.
package currency

// Currency identifies one of the supported denominations.
type Currency string

const (
	USD        Currency = "USD"
	ARS        Currency = "ARS"
	ARSWithVAT Currency = "ARS_IVA"
)

// vatDivisor removes the standard VAT markup from ARS amounts entered with tax
// included.
const vatDivisor = 1.105

// Valid reports whether c is one of the supported denominations.
func (c Currency) Valid() bool {
	switch c {
	case USD, ARS, ARSWithVAT:
		return true
	}
	return false
}

// ToUSD converts amount in the given denomination to USD using rate (ARS per
// USD). A rate of 0 means "no rate loaded yet"; ARS conversions then yield 0
// rather than failing, so callers can keep operating in a degraded state.
func ToUSD(amount float64, c Currency, rate float64) float64 {
	switch c {
	case USD:
		return amount
	case ARS:
		if rate <= 0 {
			return 0
		}
		return amount / rate
	case ARSWithVAT:
		if rate <= 0 {
			return 0
		}
		return amount / vatDivisor / rate
	}
	return 0
}

// PriceSet holds one amount slot per denomination. The invariant is that at
// most one slot is non-zero: the slot matching the owner's active currency.
type PriceSet struct {
	USD        float64 `json:"usd"`
	ARS        float64 `json:"ars"`
	ARSWithVAT float64 `json:"ars_iva"`
}

// Get returns the amount stored under denomination c.
func (p PriceSet) Get(c Currency) float64 {
	switch c {
	case USD:
		return p.USD
	case ARS:
		return p.ARS
	case ARSWithVAT:
		return p.ARSWithVAT
	}
	return 0
}

// Only returns a PriceSet with amount in the slot for c and every other slot
// zeroed, preserving the single-active-slot invariant.
func Only(c Currency, amount float64) PriceSet {
	var p PriceSet
	switch c {
	case USD:
		p.USD = amount
	case ARS:
		p.ARS = amount
	case ARSWithVAT:
		p.ARSWithVAT = amount
	}
	return p
}
