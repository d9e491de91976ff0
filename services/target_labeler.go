package services

import "github.com/fenilmodi00/ipo-analytics/models"

// High gain threshold on first-day return
const highGainThreshold = 0.20

// ClassifyReturn maps a first-day return to its class. A missing return has no label.
func ClassifyReturn(ret *float64) (models.ReturnClass, bool) {
	if ret == nil {
		return 0, false
	}
	switch {
	case *ret >= highGainThreshold:
		return models.ClassHighGain, true
	case *ret > 0:
		return models.ClassProfit, true
	default:
		return models.ClassLoss, true
	}
}

// LabeledRow pairs a feature row with its target class
type LabeledRow struct {
	Features models.FeatureRow
	Class    models.ReturnClass
}

// LabelTrainingSet keeps the rows whose record has a defined label
func LabelTrainingSet(records []models.IPORecord, features []models.FeatureRow) []LabeledRow {
	labeled := make([]LabeledRow, 0, len(records))
	for i := range records {
		class, ok := ClassifyReturn(records[i].ReturnD1)
		if !ok {
			continue
		}
		labeled = append(labeled, LabeledRow{Features: features[i], Class: class})
	}
	return labeled
}
