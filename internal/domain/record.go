package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-date format of NeoWs date keys and the table file.
const DateLayout = "2006-01-02"

// RiskCategory is the three-level tag assigned by the risk step.
type RiskCategory string

const (
	RiskLow    RiskCategory = "Low"
	RiskMedium RiskCategory = "Medium"
	RiskHigh   RiskCategory = "High"
)

// RiskCategories lists every category from most to least severe.
var RiskCategories = []RiskCategory{RiskHigh, RiskMedium, RiskLow}

// ParseRiskCategory converts a stored tag back into a RiskCategory.
func ParseRiskCategory(s string) (RiskCategory, error) {
	switch c := RiskCategory(s); c {
	case RiskLow, RiskMedium, RiskHigh:
		return c, nil
	default:
		return "", fmt.Errorf("unknown risk category %q", s)
	}
}

// ObjectApproachRecord is one object's single close approach to Earth on a
// given date, with derived physical quantities.
type ObjectApproachRecord struct {
	ID                  string    `json:"neo_id"`
	Name                string    `json:"name"`
	ApproachDate        time.Time `json:"-"`
	MissDistanceKM      float64   `json:"miss_distance_km"`
	RelativeVelocityKMS float64   `json:"relative_velocity_km_s"`
	DiameterM           float64   `json:"diameter_m"`
	MassKG              float64   `json:"mass_kg"`
	KineticEnergyKT     float64   `json:"kinetic_energy_kt_TNT"`

	// Analytic fields, absent until the risk step runs.
	PalermoProxy *float64      `json:"palermo_proxy"`
	RiskCategory *RiskCategory `json:"risk_cluster"`
}

// Key identifies a record by object and approach date.
func (r ObjectApproachRecord) Key() string {
	return r.ID + "|" + r.ApproachDate.Format(DateLayout)
}

// MarshalJSON renders ApproachDate as a calendar date.
func (r ObjectApproachRecord) MarshalJSON() ([]byte, error) {
	type alias ObjectApproachRecord
	return json.Marshal(struct {
		alias
		ApproachDate string `json:"close_approach_date"`
	}{
		alias:        alias(r),
		ApproachDate: r.ApproachDate.Format(DateLayout),
	})
}

// UnmarshalJSON parses the calendar-date form written by MarshalJSON.
func (r *ObjectApproachRecord) UnmarshalJSON(data []byte) error {
	type alias ObjectApproachRecord
	aux := struct {
		*alias
		ApproachDate string `json:"close_approach_date"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ApproachDate == "" {
		r.ApproachDate = time.Time{}
		return nil
	}
	date, err := time.Parse(DateLayout, aux.ApproachDate)
	if err != nil {
		return fmt.Errorf("close_approach_date: %w", err)
	}
	r.ApproachDate = date
	return nil
}
