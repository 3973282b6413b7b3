package risk

import (
	"fmt"

	"fxsim/internal/ports"
)

// Profile describes a trading risk posture. The thresholds gate behavioral
// warnings in the presentation layer; MaxLots caps the size of any single
// simulated order before it reaches the ledger.
type Profile struct {
	Name           string
	Description    string
	WarnThreshold  int
	BlockThreshold int
	MaxLots        float64
}

// DefaultProfileName is used when no profile is configured.
const DefaultProfileName = "COPILOT"

var profiles = map[string]Profile{
	"GUARDIAN": {
		Name:           "Guardian",
		Description:    "Conservative approach with strict limits",
		WarnThreshold:  30,
		BlockThreshold: 50,
		MaxLots:        0.2,
	},
	"COPILOT": {
		Name:           "Copilot",
		Description:    "Balanced risk management (default)",
		WarnThreshold:  50,
		BlockThreshold: 70,
		MaxLots:        0.5,
	},
	"MAVERICK": {
		Name:           "Maverick",
		Description:    "Aggressive trading with higher limits",
		WarnThreshold:  70,
		BlockThreshold: 85,
		MaxLots:        10,
	},
}

// ProfileByName returns the named profile; an empty name selects the
// default.
func ProfileByName(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown risk profile %q", ports.ErrInvalidRequest, name)
	}
	return p, nil
}

// ValidateOrder rejects order sizes above the profile's lot cap. The ledger
// itself stays profile-agnostic; this check belongs to its callers.
func (p Profile) ValidateOrder(lots float64) error {
	if lots > p.MaxLots {
		return fmt.Errorf("%w: %.2f lots exceeds the %s profile limit of %.2f", ports.ErrInvalidRequest, lots, p.Name, p.MaxLots)
	}
	return nil
}
