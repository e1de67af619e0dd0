package freight

import (
	"sort"
)

// Combine merges per-warehouse carrier quotes into one rate per
// carrier code. Pure function, no I/O.
//
// A carrier contributes at most one quote per distribution (the
// cheaper one wins if a distribution lists it twice). Its total is the
// sum of per-distribution charges and its transit time the maximum
// across them: an order shipping from several warehouses cannot arrive
// faster than its slowest leg.
//
// Carriers not quoted by every distribution are excluded: a
// partial-coverage rate cannot fulfill the full cart. This is
// intentional, not a bug.
func Combine(distributions []Distribution) []CombinedRate {
	if len(distributions) == 0 {
		return nil
	}
	if len(distributions) == 1 {
		return combineSingle(distributions[0])
	}

	type aggregate struct {
		rate  CombinedRate
		seen  map[string]int // branch -> index into Breakdown
		order int
	}
	byCode := make(map[string]*aggregate)
	codeOrder := make([]string, 0)

	for _, dist := range distributions {
		for _, q := range dist.Carriers {
			if q.CarrierCode == "" || q.Charge <= 0 {
				continue
			}
			agg, ok := byCode[q.CarrierCode]
			if !ok {
				agg = &aggregate{
					rate: CombinedRate{
						CarrierCode:  q.CarrierCode,
						DisplayLabel: q.DisplayLabel,
						Mode:         q.Mode,
					},
					seen: make(map[string]int),
				}
				byCode[q.CarrierCode] = agg
				codeOrder = append(codeOrder, q.CarrierCode)
			}
			if i, dup := agg.seen[dist.OriginBranchID]; dup {
				// Same carrier listed twice in one distribution: keep the
				// lower charge for that distribution's contribution.
				if q.Charge < agg.rate.Breakdown[i].Charge {
					agg.rate.Breakdown[i].Charge = q.Charge
					agg.rate.Breakdown[i].TransitDays = q.TransitDays
				}
				continue
			}
			agg.seen[dist.OriginBranchID] = len(agg.rate.Breakdown)
			agg.rate.Breakdown = append(agg.rate.Breakdown, DistributionCharge{
				OriginBranchID: dist.OriginBranchID,
				Charge:         q.Charge,
				TransitDays:    q.TransitDays,
			})
		}
	}

	rates := make([]CombinedRate, 0, len(byCode))
	for _, code := range codeOrder {
		agg := byCode[code]
		agg.rate.Complete = len(agg.rate.Breakdown) == len(distributions)
		if !agg.rate.Complete {
			continue
		}
		for _, b := range agg.rate.Breakdown {
			agg.rate.TotalCharge += b.Charge
			if b.TransitDays > agg.rate.MaxTransitDays {
				agg.rate.MaxTransitDays = b.TransitDays
			}
		}
		rates = append(rates, agg.rate)
	}

	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].TotalCharge < rates[j].TotalCharge
	})
	return rates
}

// combineSingle is the single-distribution fast path: every valid
// carrier becomes a complete rate directly.
func combineSingle(dist Distribution) []CombinedRate {
	rates := make([]CombinedRate, 0, len(dist.Carriers))
	seen := make(map[string]int)
	for _, q := range dist.Carriers {
		if q.CarrierCode == "" || q.Charge <= 0 {
			continue
		}
		if i, dup := seen[q.CarrierCode]; dup {
			if q.Charge < rates[i].TotalCharge {
				rates[i].TotalCharge = q.Charge
				rates[i].MaxTransitDays = q.TransitDays
				rates[i].Breakdown[0].Charge = q.Charge
				rates[i].Breakdown[0].TransitDays = q.TransitDays
			}
			continue
		}
		seen[q.CarrierCode] = len(rates)
		rates = append(rates, CombinedRate{
			CarrierCode:    q.CarrierCode,
			DisplayLabel:   q.DisplayLabel,
			Mode:           q.Mode,
			TotalCharge:    q.Charge,
			MaxTransitDays: q.TransitDays,
			Breakdown: []DistributionCharge{{
				OriginBranchID: dist.OriginBranchID,
				Charge:         q.Charge,
				TransitDays:    q.TransitDays,
			}},
			Complete: true,
		})
	}
	sort.SliceStable(rates, func(i, j int) bool {
		return rates[i].TotalCharge < rates[j].TotalCharge
	})
	return rates
}
