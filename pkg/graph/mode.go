package graph

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMode = errors.New("unknown travel mode")

type Mode uint8

const (
	Car Mode = iota
	Bike
	Foot
)

var Modes = []Mode{Car, Bike, Foot}

func (m Mode) String() string {
	switch m {
	case Car:
		return "car"
	case Bike:
		return "bike"
	case Foot:
		return "foot"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode accepts car, bike (or cycle) and foot, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "car":
		return Car, nil
	case "bike", "cycle", "bicycle":
		return Bike, nil
	case "foot", "walk":
		return Foot, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MaxSpeed is the top speed of the mode in km/h.
func (m Mode) MaxSpeed() float64 {
	switch m {
	case Car:
		return 130
	case Bike:
		return 18
	default:
		return 5
	}
}

// AccessMask holds one bit per Mode.
type AccessMask uint8

const (
	AccessCar  AccessMask = 1 << Car
	AccessBike AccessMask = 1 << Bike
	AccessFoot AccessMask = 1 << Foot
	AccessAll             = AccessCar | AccessBike | AccessFoot
)

func MaskOf(m Mode) AccessMask {
	return 1 << m
}

func (a AccessMask) Allows(m Mode) bool {
	return a&MaskOf(m) != 0
}

func (a AccessMask) String() string {
	if a == 0 {
		return "none"
	}
	parts := make([]string, 0, 3)
	for _, m := range Modes {
		if a.Allows(m) {
			parts = append(parts, m.String())
		}
	}
	return strings.Join(parts, "|")
}
