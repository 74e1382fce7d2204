package domain

import (
	"fmt"
	"math"
)

// Category thresholds.
const (
	HighMissKM     = 750_000.0
	HighEnergyKT   = 1000.0
	MediumMissKM   = 5_000_000.0
	MediumEnergyKT = 100.0
	ktPerMegaton   = 1000.0
)

// PalermoProxy returns log10((energyKT/1000) / (missKM/AU)). Both inputs must
// be positive and finite.
func PalermoProxy(energyKT, missKM float64) (float64, error) {
	if !positive(energyKT) {
		return 0, fmt.Errorf("palermo proxy: energy %g kt: %w", energyKT, ErrNonPositiveInput)
	}
	if !positive(missKM) {
		return 0, fmt.Errorf("palermo proxy: miss distance %g km: %w", missKM, ErrNonPositiveInput)
	}
	return math.Log10((energyKT / ktPerMegaton) / (missKM / KilometersPerAU)), nil
}

// Categorize applies the fixed thresholds; comparisons are strict.
func Categorize(missKM, energyKT float64) RiskCategory {
	switch {
	case missKM < HighMissKM && energyKT > HighEnergyKT:
		return RiskHigh
	case missKM < MediumMissKM && energyKT > MediumEnergyKT:
		return RiskMedium
	default:
		return RiskLow
	}
}

// EnrichRisk returns a copy of rec with PalermoProxy and RiskCategory set.
// Existing analytic values are overwritten, so enriching twice is a no-op.
func EnrichRisk(rec ObjectApproachRecord) (ObjectApproachRecord, error) {
	proxy, err := PalermoProxy(rec.KineticEnergyKT, rec.MissDistanceKM)
	if err != nil {
		return ObjectApproachRecord{}, fmt.Errorf("neo %s: %w", rec.ID, err)
	}
	category := Categorize(rec.MissDistanceKM, rec.KineticEnergyKT)
	rec.PalermoProxy = &proxy
	rec.RiskCategory = &category
	return rec, nil
}

// RiskSummary counts records per category.
type RiskSummary map[RiskCategory]int

// Total is the number of records counted.
func (s RiskSummary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// Summarize counts the categorized records; untagged ones are skipped.
func Summarize(records []ObjectApproachRecord) RiskSummary {
	summary := RiskSummary{}
	for _, rec := range records {
		if rec.RiskCategory != nil {
			summary[*rec.RiskCategory]++
		}
	}
	return summary
}

// EnrichAll enriches every record, preserving order. The input slice is not
// modified. A single bad record fails the batch.
func EnrichAll(records []ObjectApproachRecord) ([]ObjectApproachRecord, RiskSummary, error) {
	out := make([]ObjectApproachRecord, 0, len(records))
	for i, rec := range records {
		enriched, err := EnrichRisk(rec)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, enriched)
	}
	return out, Summarize(out), nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
