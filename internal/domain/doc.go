// Package domain models near-Earth-object (NEO) close-approach data.
//
// # Data Source
//
// Close approaches come from the NASA NeoWs /feed endpoint
// (https://api.nasa.gov/neo/rest/v1/feed). One call covers at most seven
// calendar days. The response maps each date to the objects that pass near a
// body on that date:
//
//	{"near_earth_objects": {"2025-05-30": [{"id": "...", "close_approach_data": [...]}]}}
//
// Each object carries zero or more close-approach entries, one per orbiting
// body ("Earth", "Mars", "Venus", ...). Only the Earth entry is used. Date keys
// are not sorted in the response; [ParseFeed] keeps them in document order.
//
// # NeoWs Data Conventions
//
// Units:
//
//	estimated_diameter.meters.{estimated_diameter_min,estimated_diameter_max}   JSON numbers, meters
//	relative_velocity.kilometers_per_second                                     numeric string, km/s
//	miss_distance.kilometers                                                    numeric string, km
//
// Both encodings are accepted for every numeric field (see [Number]).
//
// # Physics
//
// Objects are modelled as uniform stony spheres:
//
//	diameter = (min + max) / 2
//	mass     = 4/3 · π · (diameter/2)³ · 3000 kg/m³
//	energy   = ½ · mass · (velocity · 1000)² / 4.184e12   (kilotons TNT)
//
// # Risk Classification
//
// The "Palermo proxy" is an informal score, not the Palermo Technical Impact
// Hazard Scale:
//
//	proxy = log10( (energy_kt / 1000) / (miss_km / 149,597,870.7) )
//
// Categories use fixed thresholds, first match wins:
//
//	High:   miss < 750,000 km   and energy > 1000 kt
//	Medium: miss < 5,000,000 km and energy > 100 kt
//	Low:    everything else
package domain
