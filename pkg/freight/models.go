package freight

// ShipMode represents how a carrier moves the goods.
type ShipMode string

const (
	ModeGround  ShipMode = "ground"
	ModeAir     ShipMode = "air"
	ModeLTL     ShipMode = "ltl"
	ModeParcel  ShipMode = "parcel"
	ModeUnknown ShipMode = ""
)

// Address represents a ship-to destination.
type Address struct {
	Line1        string
	Line2        string
	City         string
	ProvinceCode string // e.g., "ON", "TX"
	PostalCode   string
	CountryCode  string // ISO 3166-1 alpha-2, e.g., "CA", "US"
	Company      string
	Phone        string
}

// LineItem is one cart line in distributor terms. At least one of the
// identifying fields must be set; Quantity defaults to 1 when invalid.
type LineItem struct {
	PartNumber string // distributor part number, preferred identifier
	ItemNumber string // distributor item number
	LineNumber string // caller-assigned line number
	SKU        string // storefront SKU
	Quantity   int
}

// Identifier returns the first non-empty identifying field, in
// priority order: part number, item number, line number, SKU.
func (l LineItem) Identifier() string {
	for _, s := range []string{l.PartNumber, l.ItemNumber, l.LineNumber, l.SKU} {
		if s != "" {
			return s
		}
	}
	return ""
}

// EstimateRequest is the normalized freight-estimate request passed to
// a Provider.
type EstimateRequest struct {
	ShopID        string
	Destination   Address
	Items         []LineItem
	BillToID      string // optional bill-to override
	ShipToID      string // optional ship-to override
	ServiceLevel  string // optional provider-specific hint
	CorrelationID string
}

// CarrierQuote is one carrier's offer within a single distribution.
type CarrierQuote struct {
	CarrierCode  string   `json:"carrier_code"`
	DisplayLabel string   `json:"display_label"`
	Mode         ShipMode `json:"mode"`
	Charge       float64  `json:"charge"`
	TransitDays  int      `json:"transit_days"`
}

// Distribution is one warehouse's independent rate quote set. It is
// constructed fresh per upstream response and never persisted.
type Distribution struct {
	OriginBranchID string         `json:"origin_branch_id"`
	Carriers       []CarrierQuote `json:"carriers"`
}

// EstimateResponse is what a Provider returns: one distribution per
// shipping warehouse.
type EstimateResponse struct {
	Distributions []Distribution
	CorrelationID string
}

// DistributionCharge is one warehouse's contribution to a combined rate.
type DistributionCharge struct {
	OriginBranchID string  `json:"origin_branch_id"`
	Charge         float64 `json:"charge"`
	TransitDays    int     `json:"transit_days"`
}

// CombinedRate is a carrier's total across every distribution in one
// request. Complete means the carrier was quoted by all of them; only
// complete rates reach checkout.
type CombinedRate struct {
	CarrierCode    string               `json:"carrier_code"`
	DisplayLabel   string               `json:"display_label"`
	Mode           ShipMode             `json:"mode"`
	TotalCharge    float64              `json:"total_charge"`
	MaxTransitDays int                  `json:"max_transit_days"`
	Breakdown      []DistributionCharge `json:"breakdown"`
	Complete       bool                 `json:"complete"`
}

// CarrierConfig is a shop-scoped carrier preference record, consumed
// by the core to filter and relabel combined rates.
type CarrierConfig struct {
	CarrierCode string `json:"carrier_code"`
	DisplayName string `json:"display_name,omitempty"`
	Enabled     bool   `json:"enabled"`
	SortOrder   int    `json:"sort_order"`
}

// CheckoutRate is the shape served back to the storefront checkout.
// Price is in minor currency units (cents).
type CheckoutRate struct {
	ServiceName string `json:"service_name"`
	ServiceCode string `json:"service_code"`
	Price       int64  `json:"total_price"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}
