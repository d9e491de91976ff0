package services

import (
	"math"
	"sort"

	"github.com/fenilmodi00/ipo-analytics/models"
)

// TopUnderwriterCount is the size of the top lead underwriter set
const TopUnderwriterCount = 10

// FeatureSet is the output of feature engineering over the whole dataset
type FeatureSet struct {
	Rows            []models.FeatureRow
	TopUnderwriters []string
	topLookup       map[string]struct{}
}

// IsTopUnderwriter reports whether lead is in the top underwriter set
func (fs *FeatureSet) IsTopUnderwriter(lead string) bool {
	_, ok := fs.topLookup[lead]
	return ok
}

// FeatureEngineer derives model features from loaded records
type FeatureEngineer struct {
	utility *UtilityService
}

// NewFeatureEngineer creates a feature engineer
func NewFeatureEngineer(utility *UtilityService) *FeatureEngineer {
	return &FeatureEngineer{utility: utility}
}

// OfferingSizeBillion is price × shares scaled to billions
func OfferingSizeBillion(finalPrice, sharesOffered float64) float64 {
	return finalPrice * sharesOffered / 1e9
}

// PriceRangePosition places the final price inside the book-building band.
// An empty or undefined band yields 1.0; the result is clipped to [0,1].
func PriceRangePosition(finalPrice, lowPrice, highPrice float64) float64 {
	pos := (finalPrice - lowPrice) / (highPrice - lowPrice)
	if math.IsNaN(pos) || math.IsInf(pos, 0) {
		pos = 1.0
	}
	return math.Min(math.Max(pos, 0.0), 1.0)
}

// Transform computes the feature rows and the top underwriter set
func (fe *FeatureEngineer) Transform(records []models.IPORecord) *FeatureSet {
	rows := make([]models.FeatureRow, len(records))

	for i := range records {
		r := &records[i]
		row := models.FeatureRow{Sector: r.Sector}

		if r.HasColumn(models.ColumnFinalPrice) && r.HasColumn(models.ColumnSharesOffered) &&
			r.FinalPrice != nil && r.SharesOffered != nil {
			row.OfferingSizeBillion = ptr(OfferingSizeBillion(*r.FinalPrice, *r.SharesOffered))
		}

		if r.HasColumn(models.ColumnFinalPrice) && r.HasColumn(models.ColumnLowPrice) && r.HasColumn(models.ColumnHighPrice) {
			row.PriceRangePos = ptr(PriceRangePosition(valueOrNaN(r.FinalPrice), valueOrNaN(r.LowPrice), valueOrNaN(r.HighPrice)))
		}

		if r.HasColumn(models.ColumnWarrantRatio) {
			row.HasWarrant = ptr(boolToFloat(r.WarrantRatio != nil && *r.WarrantRatio > 0))
		}

		if r.HasColumn(models.ColumnUnderwriters) {
			row.LeadUnderwriter = fe.utility.LeadUnderwriter(r.Underwriters)
		}

		if r.ListingDate != nil {
			row.ListingMonth = ptr(float64(r.ListingDate.Month()))
		}

		rows[i] = row
	}

	top := topUnderwriters(rows, TopUnderwriterCount)
	lookup := make(map[string]struct{}, len(top))
	for _, uw := range top {
		lookup[uw] = struct{}{}
	}

	for i := range rows {
		if records[i].HasColumn(models.ColumnUnderwriters) {
			_, ok := lookup[rows[i].LeadUnderwriter]
			rows[i].IsTopUnderwriter = ptr(boolToFloat(ok))
		}
	}

	return &FeatureSet{Rows: rows, TopUnderwriters: top, topLookup: lookup}
}

// topUnderwriters ranks lead underwriters by frequency; ties keep first appearance
func topUnderwriters(rows []models.FeatureRow, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, row := range rows {
		if row.LeadUnderwriter == "" {
			continue
		}
		if counts[row.LeadUnderwriter] == 0 {
			order = append(order, row.LeadUnderwriter)
		}
		counts[row.LeadUnderwriter]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	return order
}

func ptr(v float64) *float64 {
	return &v
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
