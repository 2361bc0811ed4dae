package graph

import (
	"strconv"
	"strings"
)

type RoadClass uint8

const (
	ClassOther RoadClass = iota
	ClassMotorway
	ClassPrimary
	ClassSecondary
	ClassUnclassified
	ClassService
	ClassCycleway
	ClassFootway
)

var roadClassNames = [...]string{
	ClassOther:        "other",
	ClassMotorway:     "motorway",
	ClassPrimary:      "primary",
	ClassSecondary:    "secondary",
	ClassUnclassified: "unclassified",
	ClassService:      "service",
	ClassCycleway:     "cycleway",
	ClassFootway:      "footway",
}

func (c RoadClass) String() string {
	if int(c) < len(roadClassNames) {
		return roadClassNames[c]
	}
	return "other"
}

// equivalentHighway folds near-identical highway values together.
var equivalentHighway = map[string]string{
	"motorway_link":  "motorway",
	"primary_link":   "primary",
	"trunk":          "primary",
	"trunk_link":     "primary",
	"secondary_link": "secondary",
	"tertiary":       "secondary",
	"tertiary_link":  "secondary",
	"residential":    "unclassified",
	"minor":          "unclassified",
	"living_street":  "unclassified",
	"road":           "unclassified",
	"steps":          "footway",
	"driveway":       "service",
	"pedestrian":     "footway",
	"path":           "footway",
	"bridleway":      "cycleway",
	"track":          "cycleway",
	"arcade":         "footway",
}

var roadClassByName = map[string]RoadClass{
	"motorway":     ClassMotorway,
	"primary":      ClassPrimary,
	"secondary":    ClassSecondary,
	"unclassified": ClassUnclassified,
	"service":      ClassService,
	"cycleway":     ClassCycleway,
	"footway":      ClassFootway,
}

// classAccess is the default access per folded road class.
var classAccess = map[RoadClass]AccessMask{
	ClassMotorway:     AccessCar,
	ClassPrimary:      AccessAll,
	ClassSecondary:    AccessAll,
	ClassUnclassified: AccessAll,
	ClassService:      AccessAll,
	ClassCycleway:     AccessBike | AccessFoot,
	ClassFootway:      AccessFoot,
}

// roadTypeMaxSpeed is the default speed in km/h per raw highway value.
var roadTypeMaxSpeed = map[string]float64{
	"motorway":       100,
	"motorroad":      90,
	"trunk":          70,
	"motorway_link":  70,
	"trunk_link":     65,
	"primary":        65,
	"primary_link":   60,
	"secondary":      60,
	"secondary_link": 50,
	"tertiary":       50,
	"tertiary_link":  40,
	"unclassified":   40,
	"residential":    30,
	"road":           20,
	"service":        20,
	"track":          15,
	"living_street":  5,
}

const DefaultSpeed = 30.0

func ClassifyHighway(highway string) RoadClass {
	if eq, ok := equivalentHighway[highway]; ok {
		highway = eq
	}
	return roadClassByName[highway]
}

// Direction says which way a road may be travelled by vehicles.
type Direction uint8

const (
	BothWays Direction = iota
	Forward
	Backward
)

// WayAttributes is the routing view of an OSM way's tags.
type WayAttributes struct {
	Class     RoadClass
	Access    AccessMask
	Direction Direction
	MaxSpeed  float64
}

func InterpretTags(tags map[string]string) WayAttributes {
	highway := tags["highway"]
	class := ClassifyHighway(highway)

	return WayAttributes{
		Class:     class,
		Access:    accessOf(class, tags),
		Direction: directionOf(highway, tags),
		MaxSpeed:  speedOf(highway, tags),
	}
}

func accessOf(class RoadClass, tags map[string]string) AccessMask {
	access := classAccess[class]
	if tags["highway"] == "" && tags["junction"] != "" {
		access = AccessAll
	}

	access = applyAccessTag(access, AccessAll, tags["access"])
	access = applyAccessTag(access, AccessCar, tags["motor_vehicle"])
	access = applyAccessTag(access, AccessCar, tags["motorcar"])
	access = applyAccessTag(access, AccessBike, tags["bicycle"])
	access = applyAccessTag(access, AccessFoot, tags["foot"])
	return access
}

func applyAccessTag(access, bits AccessMask, value string) AccessMask {
	switch value {
	case "no", "private":
		return access &^ bits
	case "yes", "designated", "permissive":
		return access | bits
	}
	return access
}

func directionOf(highway string, tags map[string]string) Direction {
	switch tags["oneway"] {
	case "yes", "true", "1":
		return Forward
	case "-1", "reverse":
		return Backward
	case "no", "false", "0":
		return BothWays
	}

	switch tags["junction"] {
	case "roundabout", "circular":
		return Forward
	}
	if highway == "motorway" {
		return Forward
	}
	if tags["vehicle:backward"] == "no" {
		return Forward
	}
	if tags["vehicle:forward"] == "no" {
		return Backward
	}
	return BothWays
}

func speedOf(highway string, tags map[string]string) float64 {
	if speed, ok := ParseMaxSpeed(tags["maxspeed"]); ok {
		return speed
	}
	if speed, ok := roadTypeMaxSpeed[highway]; ok {
		return speed
	}
	return DefaultSpeed
}

// ParseMaxSpeed reads an OSM maxspeed value into km/h. Only the first of
// several semicolon separated values is used.
func ParseMaxSpeed(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = strings.TrimSpace(value[:i])
	}
	if value == "" {
		return 0, false
	}
	if value == "walk" {
		return 5, true
	}

	factor := 1.0
	lower := strings.ToLower(value)
	for _, unit := range []struct {
		suffix string
		factor float64
	}{
		{"km/h", 1},
		{"kmh", 1},
		{"kph", 1},
		{"mph", 1.609344},
		{"knots", 1.852},
	} {
		if strings.HasSuffix(lower, unit.suffix) {
			factor = unit.factor
			lower = strings.TrimSpace(strings.TrimSuffix(lower, unit.suffix))
			break
		}
	}

	speed, err := strconv.ParseFloat(lower, 64)
	if err != nil || speed <= 0 {
		return 0, false
	}
	return speed * factor, true
}
