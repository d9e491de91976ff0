package models

import "time"

// Dataset column names as they appear in the historical IPO file
const (
	ColumnTicker           = "Ticker Code"
	ColumnCompanyName      = "Company Name"
	ColumnSector           = "Sector"
	ColumnFinalPrice       = "Final Price (Rp)"
	ColumnSharesOffered    = "Number of shares offered"
	ColumnReturnD1         = "Return D1"
	ColumnLowPrice         = "Lowest Book Building Price (Rp)"
	ColumnHighPrice        = "Highest Book Building Price (Rp)"
	ColumnBookBuildingOpen = "Book Building Opening"
	ColumnListingDate      = "Listing Date"
	ColumnDistributionDate = "Distribution Date"
	ColumnWarrantRatio     = "Warrant per share ratio"
	ColumnUnderwriters     = "Underwriter(s)"
)

// IPORecord is one historical IPO event. Nil pointers mark missing values.
type IPORecord struct {
	Ticker       string `json:"ticker"`
	CompanyName  string `json:"company_name"`
	Sector       string `json:"sector"`
	Underwriters string `json:"underwriters"`

	FinalPrice    *float64 `json:"final_price"`
	SharesOffered *float64 `json:"shares_offered"`
	LowPrice      *float64 `json:"low_price"`
	HighPrice     *float64 `json:"high_price"`
	ReturnD1      *float64 `json:"return_d1"`
	WarrantRatio  *float64 `json:"warrant_ratio"`

	BookBuildingOpening *time.Time `json:"book_building_opening"`
	ListingDate         *time.Time `json:"listing_date"`
	DistributionDate    *time.Time `json:"distribution_date"`

	// present tracks which source columns existed in the file
	present map[string]bool
}

// MarkColumns records the set of columns the record was loaded from
func (r *IPORecord) MarkColumns(columns map[string]bool) {
	r.present = columns
}

// HasColumn reports whether the source file carried the column.
// Records built in code (no column set) are treated as complete.
func (r *IPORecord) HasColumn(name string) bool {
	if r.present == nil {
		return true
	}
	return r.present[name]
}

// FeatureRow holds the engineered features for one record
type FeatureRow struct {
	OfferingSizeBillion *float64 `json:"offering_size_billion"`
	PriceRangePos       *float64 `json:"price_range_pos"`
	HasWarrant          *float64 `json:"has_warrant"`
	LeadUnderwriter     string   `json:"lead_underwriter"`
	IsTopUnderwriter    *float64 `json:"is_top_underwriter"`
	ListingMonth        *float64 `json:"listing_month"`
	Sector              string   `json:"sector"`
}

// ReturnClass is the first-day return category
type ReturnClass int

const (
	ClassLoss ReturnClass = iota
	ClassProfit
	ClassHighGain
)

// NumClasses is the number of return categories
const NumClasses = 3

// Label returns the display string of the class
func (c ReturnClass) Label() string {
	switch c {
	case ClassLoss:
		return "Loss / Stagnant"
	case ClassProfit:
		return "Positive Profit"
	case ClassHighGain:
		return "High Gain / ARA"
	default:
		return "Unknown"
	}
}

// Feature column names
const (
	FeatureOfferingSize     = "Offering_Size_Billion"
	FeaturePriceRangePos    = "Price_Range_Pos"
	FeatureHasWarrant       = "Has_Warrant"
	FeatureIsTopUnderwriter = "Is_Top_Underwriter"
	FeatureListingMonth     = "Listing_Month"
	SectorFeaturePrefix     = "Sector_"
)
