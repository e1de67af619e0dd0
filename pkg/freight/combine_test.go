package freight_test

import (
	"testing"

	"github.com/stockbridge/freightgate/pkg/freight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombine_Empty(t *testing.T) {
	assert.Empty(t, freight.Combine(nil))
	assert.Empty(t, freight.Combine([]freight.Distribution{}))
}

func TestCombine_SingleDistribution(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{{
		OriginBranchID: "A",
		Carriers: []freight.CarrierQuote{
			{CarrierCode: "UPS", Charge: 10, TransitDays: 2},
			{CarrierCode: "FDX", Charge: 0, TransitDays: 1}, // non-positive charge, dropped
		},
	}})

	require.Len(t, rates, 1)
	assert.Equal(t, "UPS", rates[0].CarrierCode)
	assert.Equal(t, 10.0, rates[0].TotalCharge)
	assert.Equal(t, 2, rates[0].MaxTransitDays)
	assert.True(t, rates[0].Complete)
	require.Len(t, rates[0].Breakdown, 1)
	assert.Equal(t, "A", rates[0].Breakdown[0].OriginBranchID)
}

func TestCombine_DropsEmptyCarrierCode(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{{
		OriginBranchID: "A",
		Carriers: []freight.CarrierQuote{
			{CarrierCode: "", Charge: 10, TransitDays: 2},
		},
	}})
	assert.Empty(t, rates)
}

func TestCombine_MultiDistribution_PartialCoverageExcluded(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{
		{
			OriginBranchID: "A",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "UPS", Charge: 10, TransitDays: 2},
				{CarrierCode: "FDX", Charge: 5, TransitDays: 3},
			},
		},
		{
			OriginBranchID: "B",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "UPS", Charge: 8, TransitDays: 4},
			},
		},
	})

	require.Len(t, rates, 1, "FDX covers only 1 of 2 distributions and must be excluded")
	ups := rates[0]
	assert.Equal(t, "UPS", ups.CarrierCode)
	assert.Equal(t, 18.0, ups.TotalCharge)
	assert.Equal(t, 4, ups.MaxTransitDays, "worst-case leg wins")
	assert.True(t, ups.Complete)
	assert.Len(t, ups.Breakdown, 2)
}

func TestCombine_DuplicateCarrierWithinDistribution(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{
		{
			OriginBranchID: "A",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "UPS", Charge: 12, TransitDays: 2},
				{CarrierCode: "UPS", Charge: 9, TransitDays: 3},
			},
		},
		{
			OriginBranchID: "B",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "UPS", Charge: 4, TransitDays: 1},
			},
		},
	})

	require.Len(t, rates, 1)
	assert.Equal(t, 13.0, rates[0].TotalCharge, "cheaper duplicate (9) contributes for branch A")
}

func TestCombine_DuplicateCarrierSingleDistribution(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{{
		OriginBranchID: "A",
		Carriers: []freight.CarrierQuote{
			{CarrierCode: "UPS", Charge: 12, TransitDays: 2},
			{CarrierCode: "UPS", Charge: 9, TransitDays: 3},
		},
	}})

	require.Len(t, rates, 1)
	assert.Equal(t, 9.0, rates[0].TotalCharge)
}

func TestCombine_SortedByTotalChargeAscending(t *testing.T) {
	rates := freight.Combine([]freight.Distribution{
		{
			OriginBranchID: "A",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "ODFL", Charge: 40, TransitDays: 5},
				{CarrierCode: "UPS", Charge: 25, TransitDays: 2},
				{CarrierCode: "FDX", Charge: 30, TransitDays: 2},
			},
		},
		{
			OriginBranchID: "B",
			Carriers: []freight.CarrierQuote{
				{CarrierCode: "ODFL", Charge: 10, TransitDays: 6},
				{CarrierCode: "UPS", Charge: 35, TransitDays: 3},
				{CarrierCode: "FDX", Charge: 20, TransitDays: 4},
			},
		},
	})

	require.Len(t, rates, 3)
	for i := 1; i < len(rates); i++ {
		assert.LessOrEqual(t, rates[i-1].TotalCharge, rates[i].TotalCharge)
	}
}
