package task

import "fmt"

// Kind identifies which specialized reasoning task a unit performs. Dispatch
// anywhere in the engine switches on this enum, never on object identity.
type Kind string

const (
	KindDestinationSelector  Kind = "destination_selector"
	KindWeather              Kind = "weather"
	KindEvents               Kind = "events"
	KindSafety               Kind = "safety"
	KindFlights              Kind = "flights"
	KindHotels               Kind = "hotels"
	KindTraffic              Kind = "traffic"
	KindBudget               Kind = "budget"
	KindLocalExpert          Kind = "local_expert"
	KindItinerarySynthesizer Kind = "itinerary_synthesizer"
)

// SpecializeKinds lists every kind that runs in the parallel specialize
// stage, in the fixed order used when assembling prompts and result reports.
var SpecializeKinds = []Kind{
	KindWeather,
	KindEvents,
	KindSafety,
	KindFlights,
	KindHotels,
	KindTraffic,
	KindBudget,
	KindLocalExpert,
}

// ToggleableKinds are the kinds a TripRequest may enable or disable.
// The local expert always runs; selection and synthesis bracket every run.
var ToggleableKinds = []Kind{
	KindWeather,
	KindEvents,
	KindSafety,
	KindBudget,
	KindFlights,
	KindHotels,
	KindTraffic,
}

func (k Kind) String() string { return string(k) }

func (k Kind) Valid() bool {
	switch k {
	case KindDestinationSelector, KindWeather, KindEvents, KindSafety,
		KindFlights, KindHotels, KindTraffic, KindBudget,
		KindLocalExpert, KindItinerarySynthesizer:
		return true
	}
	return false
}

// ParseKind converts a user-supplied name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown work unit kind %q", s)
	}
	return k, nil
}

// Descriptor is the immutable (kind, description) pair: both the input to a
// reasoning call and the memoization key for its result.
type Descriptor struct {
	Kind        Kind
	Description string
}
