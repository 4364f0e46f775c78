package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Params carries everything a description template may reference. Rendering
// is a pure function of (Kind, Params): identical inputs always produce the
// identical string, because the string is the memoization key downstream.
type Params struct {
	Origin      string
	Candidates  []string
	Destination string
	StartDate   string // ISO date, YYYY-MM-DD
	EndDate     string // ISO date, YYYY-MM-DD
	Interests   string
	Budget      int
	Country     string
	Diet        string
	Risk        string
	Prefetched  string // serialized prefetch payload, optional
}

// Describe renders the task description for a kind. The itinerary
// synthesizer is rendered by DescribeSynthesis because it embeds the
// specialize-stage findings.
func Describe(kind Kind, p Params) (string, error) {
	profile, err := ProfileFor(kind)
	if err != nil {
		return "", err
	}
	header := fmt.Sprintf("You are the %s. %s. Background: %s.\n\n",
		profile.Role, profile.Goal, profile.Backstory)

	var body string
	switch kind {
	case KindDestinationSelector:
		body = fmt.Sprintf(
			"Analyze candidate destinations: %s. Consider traveler interests: %s. "+
				"Select the single best destination. "+
				"Respond with the destination name only, no punctuation or commentary.",
			strings.Join(p.Candidates, ", "), p.Interests)
	case KindWeather:
		body = fmt.Sprintf(
			"Analyze weather for %s from %s to %s. Provide a forecast, temperature ranges, and packing recommendations.",
			p.Destination, p.StartDate, p.EndDate)
	case KindEvents:
		body = fmt.Sprintf(
			"Find events in %s between %sT00:00:00Z and %sT23:59:59Z. List the most relevant events with details.",
			p.Destination, p.StartDate, p.EndDate)
	case KindSafety:
		body = fmt.Sprintf(
			"Research health and safety for %s, %s. Provide safety advisories and health recommendations.",
			p.Destination, p.Country)
	case KindFlights:
		body = fmt.Sprintf(
			"Find flights from %s to %s. Depart: %s, Return: %s.",
			p.Origin, p.Destination, p.StartDate, p.EndDate)
	case KindHotels:
		body = fmt.Sprintf(
			"Find hotels in %s from %s to %s. Budget: $%d.",
			p.Destination, p.StartDate, p.EndDate, p.Budget)
	case KindTraffic:
		body = fmt.Sprintf(
			"Analyze transportation options in %s. Provide a navigation guide and the best times to travel.",
			p.Destination)
	case KindBudget:
		body = fmt.Sprintf(
			"Create a budget breakdown for a trip from %s to %s. Budget: $%d.",
			p.Origin, p.Destination, p.Budget)
	case KindLocalExpert:
		body = fmt.Sprintf(
			"Provide local insights for %s. Interests: %s. Cover cuisine, customs, and hidden gems.",
			p.Destination, p.Interests)
	case KindItinerarySynthesizer:
		return "", fmt.Errorf("kind %q is rendered by DescribeSynthesis", kind)
	default:
		return "", fmt.Errorf("no description template for kind %q", kind)
	}

	if p.Prefetched != "" && (kind == KindFlights || kind == KindHotels) {
		body += " Prefetched data: " + p.Prefetched
	}
	return header + body, nil
}

// synthesisConstraints is marshaled instead of a map so the rendered JSON is
// stable across runs.
type synthesisConstraints struct {
	Diet   string `json:"diet"`
	Risk   string `json:"risk_tolerance"`
	Origin string `json:"origin"`
	Budget int    `json:"budget"`
}

// DescribeSynthesis renders the final itinerary prompt. Every specialize
// kind appears in the findings block in a fixed order; kinds that did not
// run are reported as N/A and failed kinds keep their error text, so the
// synthesizer always sees a complete report.
func DescribeSynthesis(p Params, findings map[Kind]string) (string, error) {
	profile, err := ProfileFor(KindItinerarySynthesizer)
	if err != nil {
		return "", err
	}

	constraints, err := json.Marshal(synthesisConstraints{
		Diet:   p.Diet,
		Risk:   p.Risk,
		Origin: p.Origin,
		Budget: p.Budget,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode constraints: %w", err)
	}

	var report strings.Builder
	report.WriteString("Previous findings:\n")
	for _, k := range SpecializeKinds {
		text, ok := findings[k]
		if !ok || text == "" {
			text = "N/A"
		}
		fmt.Fprintf(&report, "- %s: %s\n", k, text)
	}

	body := fmt.Sprintf(
		"Synthesize all information into a day-by-day itinerary for %s from %s to %s, "+
			"formatted as markdown with headings. Constraints: %s.\n\n%s",
		p.Destination, p.StartDate, p.EndDate, constraints, report.String())

	header := fmt.Sprintf("You are the %s. %s. Background: %s.\n\n",
		profile.Role, profile.Goal, profile.Backstory)
	return header + body, nil
}

// NewDescriptor renders a description and pairs it with its kind.
func NewDescriptor(kind Kind, p Params) (Descriptor, error) {
	desc, err := Describe(kind, p)
	if err != nil {
		return Descriptor{}, err
	}
	return Descriptor{Kind: kind, Description: desc}, nil
}
