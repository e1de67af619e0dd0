package freight_test

import (
	"testing"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		charge float64
		want   int64
	}{
		{19.995, 2000}, // round half-up
		{10.0, 1000},
		{10.004, 1000},
		{10.005, 1001},
		{0, 0},
		{-3.50, 0}, // floored at zero
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, freight.MinorUnits(tt.charge), "charge %v", tt.charge)
	}
}

func TestFormatCheckoutRate_MultiLocationNote(t *testing.T) {
	rate := freight.CombinedRate{
		CarrierCode:    "UPS",
		DisplayLabel:   "UPSG",
		TotalCharge:    18,
		MaxTransitDays: 4,
		Breakdown: []freight.DistributionCharge{
			{OriginBranchID: "A", Charge: 10, TransitDays: 2},
			{OriginBranchID: "B", Charge: 8, TransitDays: 4},
		},
		Complete: true,
	}

	got := freight.FormatCheckoutRate(rate, "", "USD")
	assert.Contains(t, got.Description, "ships from 2 locations")
	assert.Contains(t, got.Description, "4 business days")
	assert.Equal(t, int64(1800), got.Price)
	assert.Equal(t, "freightgate:UPS", got.ServiceCode)
	assert.Equal(t, "UPS Ground", got.ServiceName, "known abbreviation replaced")
}

func TestFormatCheckoutRate_SingleLocationNoNote(t *testing.T) {
	rate := freight.CombinedRate{
		CarrierCode:    "FDX",
		DisplayLabel:   "FedEx Ground",
		TotalCharge:    25.50,
		MaxTransitDays: 1,
		Breakdown: []freight.DistributionCharge{
			{OriginBranchID: "A", Charge: 25.50, TransitDays: 1},
		},
		Complete: true,
	}

	got := freight.FormatCheckoutRate(rate, "", "USD")
	assert.NotContains(t, got.Description, "locations")
	assert.Contains(t, got.Description, "1 business day")
}

func TestFormatCheckoutRate_DisplayNameOverride(t *testing.T) {
	rate := freight.CombinedRate{CarrierCode: "UPS", DisplayLabel: "UPSG", TotalCharge: 10}

	got := freight.FormatCheckoutRate(rate, "Standard Shipping", "USD")
	assert.Equal(t, "Standard Shipping", got.ServiceName)
}

func TestFormatCheckoutRate_RawCapsLabelCleaned(t *testing.T) {
	rate := freight.CombinedRate{CarrierCode: "XPO", DisplayLabel: "XPO LOGISTICS FREIGHT", TotalCharge: 99}

	got := freight.FormatCheckoutRate(rate, "", "USD")
	assert.Equal(t, "Xpo Logistics Freight", got.ServiceName)
}
