package models

// NumericFeatures are the engineered columns in training order
var NumericFeatures = []string{
	FeatureOfferingSize,
	FeaturePriceRangePos,
	FeatureHasWarrant,
	FeatureIsTopUnderwriter,
	FeatureListingMonth,
}

// FeatureSchema is the ordered list of feature names a model was trained on.
// Inference vectors are built against it so both sides share one column layout.
type FeatureSchema struct {
	names []string
	index map[string]int
}

// NewFeatureSchema creates a schema; later duplicates of a name are ignored
func NewFeatureSchema(names []string) *FeatureSchema {
	s := &FeatureSchema{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, dup := s.index[name]; dup {
			continue
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
	}
	return s
}

// Names returns a copy of the column names in order
func (s *FeatureSchema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of columns
func (s *FeatureSchema) Len() int {
	return len(s.names)
}

// Index returns the position of a column
func (s *FeatureSchema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// NewVector returns an all-zero vector with one slot per column
func (s *FeatureSchema) NewVector() []float64 {
	return make([]float64, len(s.names))
}

// Set writes value into the named column of vec. Unknown names are ignored
// and reported as false.
func (s *FeatureSchema) Set(vec []float64, name string, value float64) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	vec[i] = value
	return true
}

// SectorFeature returns the one-hot column name of a sector
func SectorFeature(sector string) string {
	return SectorFeaturePrefix + sector
}
