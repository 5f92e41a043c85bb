package models

import (
	"fmt"
	"strings"
)

// FormatYear renders a game year as "N BCE" or "N CE".
func FormatYear(year int) string {
	if year < 0 {
		return fmt.Sprintf("%d BCE", -year)
	}
	return fmt.Sprintf("%d CE", year)
}

// CivilizationName returns the display adjective for a civilization.
func CivilizationName(civ CivilizationID) string {
	switch civ {
	case CivIndia:
		return "Ancient Indian"
	case CivEgypt:
		return "Ancient Egyptian"
	default:
		return "Ancient Roman"
	}
}

// BuildCityDescription synthesizes an image prompt from the current state.
// It is the fallback used when a choice or event carries no explicit visual
// change: size tier from population, notable traits from high stats, the
// just-made choice if any, and up to the three most recent decisions.
func BuildCityDescription(state *GameState, choiceLabel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A %s city settlement in %s with approximately %d inhabitants.",
		CivilizationName(state.Civilization), FormatYear(state.Year), state.Stats.Population)

	switch {
	case state.Stats.Population < 500:
		b.WriteString(" A small humble village with basic huts and farmland.")
	case state.Stats.Population < 2000:
		b.WriteString(" A growing town with stone buildings, a marketplace, and surrounding farms.")
	case state.Stats.Population < 10000:
		b.WriteString(" A thriving city with temples, walls, and bustling streets.")
	default:
		b.WriteString(" A grand metropolis with monumental architecture, large walls, and sprawling districts.")
	}

	if state.Stats.Defense >= 4 {
		b.WriteString(" Strong fortifications and watchtowers surround the city.")
	}
	if state.Stats.Culture >= 4 {
		b.WriteString(" Beautiful temples and monuments adorn the skyline.")
	}
	if state.Stats.Gold >= 4 {
		b.WriteString(" A wealthy trading hub with ornate buildings and a large marketplace.")
	}
	if state.Stats.Food >= 4 {
		b.WriteString(" Lush farmlands and granaries surround the settlement.")
	}

	if choiceLabel != "" {
		fmt.Fprintf(&b, " The city has recently undergone changes: %s.", choiceLabel)
	}

	recent := state.History
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	if len(recent) > 0 {
		labels := make([]string, len(recent))
		for i, h := range recent {
			labels[i] = h.ChoiceLabel
		}
		fmt.Fprintf(&b, " Recent history: %s.", strings.Join(labels, "; "))
	}

	return b.String()
}
