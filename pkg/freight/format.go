package freight

import (
	"fmt"
	"math"
	"strings"
)

// serviceCodePrefix namespaces checkout service codes to this system
// so merchant-side automation can tell our rates from other carriers'.
const serviceCodePrefix = "freightgate"

// friendlyLabels maps distributor carrier abbreviations to names fit
// for a checkout page. Unknown labels pass through title-cased.
var friendlyLabels = map[string]string{
	"UPSG":  "UPS Ground",
	"UPS2D": "UPS 2nd Day Air",
	"UPSN":  "UPS Next Day Air",
	"FDXG":  "FedEx Ground",
	"FDX2D": "FedEx 2Day",
	"LTL":   "Freight (LTL)",
	"SAIA":  "SAIA Freight",
	"ODFL":  "Old Dominion Freight",
}

// FormatCheckoutRate maps a combined rate to the checkout display
// shape. displayName, when non-empty, is the merchant-configured label
// override. Price is converted to minor units, rounded half-up and
// floored at zero.
func FormatCheckoutRate(rate CombinedRate, displayName, currency string) CheckoutRate {
	label := displayName
	if label == "" {
		label = cleanLabel(rate.DisplayLabel, rate.CarrierCode)
	}
	return CheckoutRate{
		ServiceName: label,
		ServiceCode: fmt.Sprintf("%s:%s", serviceCodePrefix, rate.CarrierCode),
		Price:       MinorUnits(rate.TotalCharge),
		Currency:    currency,
		Description: describe(rate),
	}
}

// MinorUnits converts a charge in major units to integer cents,
// rounding half-up and never going below zero.
func MinorUnits(charge float64) int64 {
	cents := int64(math.Floor(charge*100 + 0.5))
	if cents < 0 {
		return 0
	}
	return cents
}

func cleanLabel(label, code string) string {
	s := strings.TrimSpace(label)
	if s == "" {
		s = code
	}
	if friendly, ok := friendlyLabels[strings.ToUpper(s)]; ok {
		return friendly
	}
	// Raw distributor labels tend to arrive ALL CAPS.
	if s == strings.ToUpper(s) && len(s) > 4 {
		s = titleCase(s)
	}
	return s
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func describe(rate CombinedRate) string {
	var b strings.Builder
	switch {
	case rate.MaxTransitDays == 1:
		b.WriteString("Estimated 1 business day in transit")
	case rate.MaxTransitDays > 1:
		fmt.Fprintf(&b, "Estimated %d business days in transit", rate.MaxTransitDays)
	default:
		b.WriteString("Transit time varies")
	}
	if len(rate.Breakdown) > 1 {
		fmt.Fprintf(&b, "; ships from %d locations", len(rate.Breakdown))
	}
	return b.String()
}
