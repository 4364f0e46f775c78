package task

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Profile is the prompt-construction metadata attached to each Kind. It
// replaces free-form agent objects with a side table keyed by the enum.
type Profile struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
}

//go:embed profiles.yaml
var profilesYAML []byte

var profiles = mustLoadProfiles()

func mustLoadProfiles() map[Kind]Profile {
	var raw map[Kind]Profile
	if err := yaml.Unmarshal(profilesYAML, &raw); err != nil {
		panic(fmt.Sprintf("task: embedded profiles are malformed: %v", err))
	}
	for _, k := range []Kind{
		KindDestinationSelector, KindWeather, KindEvents, KindSafety,
		KindFlights, KindHotels, KindTraffic, KindBudget,
		KindLocalExpert, KindItinerarySynthesizer,
	} {
		if _, ok := raw[k]; !ok {
			panic(fmt.Sprintf("task: embedded profiles are missing %q", k))
		}
	}
	return raw
}

// ProfileFor returns the prompt metadata for a kind.
func ProfileFor(k Kind) (Profile, error) {
	p, ok := profiles[k]
	if !ok {
		return Profile{}, fmt.Errorf("no profile for kind %q", k)
	}
	return p, nil
}
