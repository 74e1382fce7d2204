package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// EarthBody is the orbiting_body value of the close approach we keep.
const EarthBody = "Earth"

// Feed is a decoded NeoWs /feed response. Days keep the order in which the
// response lists its date keys.
type Feed struct {
	ElementCount int
	Days         []FeedDay
}

// FeedDay holds the objects listed under one date key.
type FeedDay struct {
	Date    string
	Objects []NearEarthObject
}

// NearEarthObject is the subset of a NeoWs object we read.
type NearEarthObject struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	EstimatedDiameter *EstimatedDiameter `json:"estimated_diameter"`
	CloseApproachData []CloseApproach    `json:"close_approach_data"`
}

type EstimatedDiameter struct {
	Meters *DiameterRange `json:"meters"`
}

type DiameterRange struct {
	Min *Number `json:"estimated_diameter_min"`
	Max *Number `json:"estimated_diameter_max"`
}

type CloseApproach struct {
	Date             string    `json:"close_approach_date"`
	OrbitingBody     string    `json:"orbiting_body"`
	RelativeVelocity *Velocity `json:"relative_velocity"`
	MissDistance     *Distance `json:"miss_distance"`
}

type Velocity struct {
	KilometersPerSecond *Number `json:"kilometers_per_second"`
}

type Distance struct {
	Kilometers *Number `json:"kilometers"`
}

// Number is a float that NeoWs encodes either as a JSON number or as a
// numeric string.
type Number float64

// UnmarshalJSON accepts 12.5 and "12.5" alike.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: bad numeric string %s", ErrUnexpectedShape, s)
		}
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrUnexpectedShape, s)
	}
	*n = Number(v)
	return nil
}

// ParseFeed decodes a raw /feed body. Date keys are walked with gjson so the
// response order survives; each day's objects are decoded into typed structs.
func ParseFeed(data []byte) (Feed, error) {
	if !gjson.ValidBytes(data) {
		return Feed{}, ErrMalformedFeed
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Feed{}, shapeError("response", "is not an object")
	}

	neos := root.Get("near_earth_objects")
	if !neos.Exists() {
		return Feed{}, shapeError("near_earth_objects", "is missing")
	}
	if !neos.IsObject() {
		return Feed{}, shapeError("near_earth_objects", "is not an object")
	}

	feed := Feed{ElementCount: int(root.Get("element_count").Int())}
	var parseErr error
	neos.ForEach(func(key, value gjson.Result) bool {
		path := "near_earth_objects." + key.String()
		if !value.IsArray() {
			parseErr = shapeError(path, "is not an array")
			return false
		}
		day := FeedDay{Date: key.String()}
		if err := json.Unmarshal([]byte(value.Raw), &day.Objects); err != nil {
			parseErr = fmt.Errorf("%w: %s: %v", ErrUnexpectedShape, path, err)
			return false
		}
		feed.Days = append(feed.Days, day)
		return true
	})
	if parseErr != nil {
		return Feed{}, parseErr
	}
	return feed, nil
}

// Flatten turns a feed into one record per (object, date key), in feed order.
// Each record carries the object's first Earth close approach and the derived
// mass and kinetic energy. Any structural problem fails the whole feed.
func Flatten(feed Feed) ([]ObjectApproachRecord, error) {
	n := 0
	for _, day := range feed.Days {
		n += len(day.Objects)
	}
	records := make([]ObjectApproachRecord, 0, n)

	for _, day := range feed.Days {
		date, err := time.Parse(DateLayout, day.Date)
		if err != nil {
			return nil, shapeError("date key "+strconv.Quote(day.Date), "is not a calendar date")
		}
		for i, neo := range day.Objects {
			rec, err := flattenObject(date, neo)
			if err != nil {
				return nil, fmt.Errorf("flatten %s[%d]: %w", day.Date, i, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

func flattenObject(date time.Time, neo NearEarthObject) (ObjectApproachRecord, error) {
	if neo.ID == "" {
		return ObjectApproachRecord{}, shapeError("id", "is missing")
	}

	diameter, err := neo.meanDiameterMeters()
	if err != nil {
		return ObjectApproachRecord{}, fmt.Errorf("neo %s: %w", neo.ID, err)
	}
	approach, err := neo.earthApproach()
	if err != nil {
		return ObjectApproachRecord{}, fmt.Errorf("neo %s: %w", neo.ID, err)
	}

	var velocity, miss *Number
	if approach.RelativeVelocity != nil {
		velocity = approach.RelativeVelocity.KilometersPerSecond
	}
	if approach.MissDistance != nil {
		miss = approach.MissDistance.Kilometers
	}
	if err := requireValue("relative_velocity.kilometers_per_second", velocity, false); err != nil {
		return ObjectApproachRecord{}, fmt.Errorf("neo %s: %w", neo.ID, err)
	}
	if err := requireValue("miss_distance.kilometers", miss, true); err != nil {
		return ObjectApproachRecord{}, fmt.Errorf("neo %s: %w", neo.ID, err)
	}

	mass := SphereMass(diameter, DensityKGM3)
	return ObjectApproachRecord{
		ID:                  neo.ID,
		Name:                neo.Name,
		ApproachDate:        date,
		MissDistanceKM:      float64(*miss),
		RelativeVelocityKMS: float64(*velocity),
		DiameterM:           diameter,
		MassKG:              mass,
		KineticEnergyKT:     KineticEnergyKT(mass, float64(*velocity)),
	}, nil
}

func (neo NearEarthObject) meanDiameterMeters() (float64, error) {
	var lo, hi *Number
	if neo.EstimatedDiameter != nil && neo.EstimatedDiameter.Meters != nil {
		lo = neo.EstimatedDiameter.Meters.Min
		hi = neo.EstimatedDiameter.Meters.Max
	}
	if err := requireValue("estimated_diameter.meters.estimated_diameter_min", lo, false); err != nil {
		return 0, err
	}
	if err := requireValue("estimated_diameter.meters.estimated_diameter_max", hi, false); err != nil {
		return 0, err
	}
	return MeanDiameter(float64(*lo), float64(*hi)), nil
}

// earthApproach returns the first close approach whose orbiting body is Earth.
func (neo NearEarthObject) earthApproach() (CloseApproach, error) {
	for _, ca := range neo.CloseApproachData {
		if ca.OrbitingBody == EarthBody {
			return ca, nil
		}
	}
	return CloseApproach{}, ErrNoEarthApproach
}

func requireValue(path string, n *Number, allowZero bool) error {
	if n == nil {
		return shapeError(path, "is missing")
	}
	v := float64(*n)
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return shapeError(path, "is not finite")
	case v < 0, v == 0 && !allowZero:
		return shapeError(path, fmt.Sprintf("is out of range (%g)", v))
	}
	return nil
}
