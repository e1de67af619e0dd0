package estimate

import (
	"sort"
	"strconv"
	"strings"

	"github.com/stockbridge/freightgate/pkg/freight"
)

// Field and line separators; unit/record separator control characters
// cannot appear in address or part-number data.
const (
	fieldSep = "\x1f"
	lineSep  = "\x1e"
	qtySep   = "*"
)

// CacheKey builds a deterministic key for a freight request. Line
// items are reduced to identifier*quantity tokens and sorted, so two
// carts that are permutations of each other produce the same key:
// cart order carries no meaning for rate lookup.
func CacheKey(req *freight.EstimateRequest) string {
	lines := make([]string, 0, len(req.Items))
	for _, li := range req.Items {
		id := li.Identifier()
		if id == "" {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		lines = append(lines, id+qtySep+strconv.Itoa(qty))
	}
	sort.Strings(lines)

	parts := []string{
		strings.ToLower(req.ShopID),
		strings.ToUpper(req.Destination.CountryCode),
		strings.ToUpper(req.Destination.ProvinceCode),
		req.Destination.PostalCode,
		strings.ToLower(req.Destination.City),
		strings.ToLower(req.Destination.Line1),
		req.BillToID,
		req.ShipToID,
		strings.Join(lines, lineSep),
	}
	return strings.Join(parts, fieldSep)
}
