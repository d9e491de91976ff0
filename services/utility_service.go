package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// UtilityService provides the cell coercion and text helpers shared by the
// loader, the feature engineer and the prediction path
type UtilityService struct{}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{}
}

// NormalizeTextContent trims and collapses internal whitespace
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// IsNotAvailable checks if a cell holds a missing-value placeholder
func (s *UtilityService) IsNotAvailable(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "nan", "nat", "null", "none", "n/a", "na", "-", "--":
		return true
	}
	return false
}

// ParseNumeric coerces a cell to a number. Anything that is not a plain
// number becomes nil, matching a coerce-on-error conversion.
func (s *UtilityService) ParseNumeric(text string) *float64 {
	text = strings.TrimSpace(text)
	if s.IsNotAvailable(text) {
		return nil
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

// ParseDate coerces a cell to a date; unparseable values become nil.
// Slash dates are read month first.
func (s *UtilityService) ParseDate(text string) *time.Time {
	text = s.NormalizeTextContent(text)
	if s.IsNotAvailable(text) {
		return nil
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006/01/02",
		"1/2/2006",
		"01/02/2006",
		"1/2/2006 15:04",
		"1/2/06",
		"2 Jan 2006",
		"02 Jan 2006",
		"2 January 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"02-Jan-2006",
		"2-Jan-06",
	}

	for _, format := range formats {
		if parsed, err := time.Parse(format, text); err == nil {
			return &parsed
		}
	}

	return nil
}

// LeadUnderwriter returns the first entry of a comma separated underwriter list
func (s *UtilityService) LeadUnderwriter(underwriters string) string {
	lead, _, _ := strings.Cut(underwriters, ",")
	return strings.TrimSpace(lead)
}

// FormatDate renders the date part only
func (s *UtilityService) FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
