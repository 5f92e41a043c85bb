package models

import "math"

// CivilizationID identifies one of the playable civilizations.
type CivilizationID string

const (
	CivRome  CivilizationID = "rome"
	CivIndia CivilizationID = "india"
	CivEgypt CivilizationID = "egypt"
)

// Civilizations lists the playable civilizations in display order.
var Civilizations = []CivilizationID{CivRome, CivIndia, CivEgypt}

// ParseCivilization returns the matching civilization, falling back to Rome
// for anything unrecognized (e.g. from an old or hand-edited save).
func ParseCivilization(s string) CivilizationID {
	switch CivilizationID(s) {
	case CivRome, CivIndia, CivEgypt:
		return CivilizationID(s)
	}
	return CivRome
}

// Phase is the current stage of the turn state machine.
type Phase string

const (
	PhaseLoading    Phase = "loading"
	PhaseEvent      Phase = "event"
	PhaseProcessing Phase = "processing"
	PhaseOutcome    Phase = "outcome"
	PhaseIdle       Phase = "idle"
)

// ValidPhase reports whether p is one of the five known phases.
func ValidPhase(p Phase) bool {
	switch p {
	case PhaseLoading, PhaseEvent, PhaseProcessing, PhaseOutcome, PhaseIdle:
		return true
	}
	return false
}

// Stats are the city's five resources. Gold, food, defense and culture are
// clamped to [0,5]; population is only bounded below by zero.
type Stats struct {
	Population int `yaml:"population" json:"population"`
	Gold       int `yaml:"gold" json:"gold"`
	Food       int `yaml:"food" json:"food"`
	Defense    int `yaml:"defense" json:"defense"`
	Culture    int `yaml:"culture" json:"culture"`
}

// Effects is a sparse set of stat deltas; a zero field means "no change".
type Effects struct {
	Population int `yaml:"population,omitempty" json:"population,omitempty"`
	Gold       int `yaml:"gold,omitempty" json:"gold,omitempty"`
	Food       int `yaml:"food,omitempty" json:"food,omitempty"`
	Defense    int `yaml:"defense,omitempty" json:"defense,omitempty"`
	Culture    int `yaml:"culture,omitempty" json:"culture,omitempty"`
}

// IsZero reports whether no stat changes at all.
func (e Effects) IsZero() bool {
	return e == Effects{}
}

// Choice is one option offered by an event. Immutable once generated.
type Choice struct {
	ID           string  `yaml:"id" json:"id"`
	Label        string  `yaml:"label" json:"label"`
	Effects      Effects `yaml:"effects" json:"effects"`
	VisualChange string  `yaml:"visual_change" json:"visualChange"`
	Outcome      string  `yaml:"outcome" json:"outcome"`
}

// GameEvent is one turn's event as produced by the event generator. It is
// consumed exactly once: selecting a choice clears it.
type GameEvent struct {
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	VisualChange string   `yaml:"visual_change" json:"visualChange"`
	Choices      []Choice `yaml:"choices" json:"choices"`
	YearAdvance  int      `yaml:"year_advance" json:"yearAdvance"`
}

// HistoryEntry is an immutable snapshot of one resolved turn, captured with
// the pre-resolution turn, year and city image.
type HistoryEntry struct {
	Turn          int    `yaml:"turn" json:"turn"`
	Year          int    `yaml:"year" json:"year"`
	EventTitle    string `yaml:"event_title" json:"eventTitle"`
	ChoiceLabel   string `yaml:"choice_label" json:"choiceLabel"`
	Image         []byte `yaml:"image,omitempty" json:"image,omitempty"`
	ImageMimeType string `yaml:"image_mime_type" json:"imageMimeType"`
}

// Image is a generated or static city picture.
type Image struct {
	Data     []byte
	MimeType string
}

// GameState is the aggregate root owned by the turn state machine.
type GameState struct {
	Civilization         CivilizationID `yaml:"civilization"`
	Turn                 int            `yaml:"turn"`
	Year                 int            `yaml:"year"`
	Stats                Stats          `yaml:"stats"`
	CurrentImage         []byte         `yaml:"current_image,omitempty"`
	PreviousImage        []byte         `yaml:"previous_image,omitempty"`
	CurrentImageMimeType string         `yaml:"current_image_mime_type"`
	History              []HistoryEntry `yaml:"history"`
	CurrentEvent         *GameEvent     `yaml:"current_event,omitempty"`
	Phase                Phase          `yaml:"phase"`
	OutcomeText          string         `yaml:"outcome_text,omitempty"`
	GameOver             bool           `yaml:"game_over"`

	// Deltas from the last choice, for the outcome UI only. Not persisted.
	LastChoiceDeltas *Effects `yaml:"-"`
}

// MaxTurns is the fixed turn limit; reaching it ends the game.
const MaxTurns = 25

// InitialStats is the founding state of every new settlement.
var InitialStats = Stats{
	Population: 1500,
	Gold:       3,
	Food:       3,
	Defense:    1,
	Culture:    1,
}

// NewGameState returns a brand-new game: turn 0, 1000 BCE, founding stats,
// waiting in the loading phase for the base image and first event.
func NewGameState(civ CivilizationID) *GameState {
	return &GameState{
		Civilization:         civ,
		Year:                 -1000,
		Stats:                InitialStats,
		CurrentImageMimeType: "image/png",
		History:              []HistoryEntry{},
		Phase:                PhaseLoading,
	}
}

// Normalize repairs a state loaded from storage: an unknown civilization
// falls back to Rome, and a phase that was mid-flight when the session ended
// (loading or processing) becomes idle, since no in-flight request survives
// a restart.
func (s *GameState) Normalize() {
	s.Civilization = ParseCivilization(string(s.Civilization))
	if s.Phase == PhaseLoading || s.Phase == PhaseProcessing {
		s.Phase = PhaseIdle
	}
	s.LastChoiceDeltas = nil
}

// maxPopulationLossFraction caps how much of the population a single choice
// can remove; the floor of 50 keeps small settlements volatile.
const maxPopulationLossFraction = 0.15

// ApplyEffects returns stats with a choice's deltas applied. Resource stats
// clamp to [0,5]. Population gains are unbounded; a loss is capped at
// max(50, ceil(population*0.15)) and the result is floored at zero.
func ApplyEffects(stats Stats, effects Effects) Stats {
	pop := stats.Population
	if effects.Population >= 0 {
		pop += effects.Population
	} else {
		loss := -effects.Population
		maxLoss := int(math.Ceil(float64(stats.Population) * maxPopulationLossFraction))
		if maxLoss < 50 {
			maxLoss = 50
		}
		if loss > maxLoss {
			loss = maxLoss
		}
		pop -= loss
		if pop < 0 {
			pop = 0
		}
	}
	return Stats{
		Population: pop,
		Gold:       clampResource(stats.Gold + effects.Gold),
		Food:       clampResource(stats.Food + effects.Food),
		Defense:    clampResource(stats.Defense + effects.Defense),
		Culture:    clampResource(stats.Culture + effects.Culture),
	}
}

func clampResource(v int) int {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

// Deltas returns the per-stat differences from old to next, or nil when
// nothing changed.
func Deltas(old, next Stats) *Effects {
	d := Effects{
		Population: next.Population - old.Population,
		Gold:       next.Gold - old.Gold,
		Food:       next.Food - old.Food,
		Defense:    next.Defense - old.Defense,
		Culture:    next.Culture - old.Culture,
	}
	if d.IsZero() {
		return nil
	}
	return &d
}

// HistoryAt returns the entry at index i for timeline scrubbing. The index
// len(history) is the sentinel for the present, live state; present is true
// in that case and entry is the zero value. Out-of-range indexes clamp.
func HistoryAt(history []HistoryEntry, i int) (entry HistoryEntry, present bool) {
	if i < 0 {
		i = 0
	}
	if i >= len(history) {
		return HistoryEntry{}, true
	}
	return history[i], false
}

// ScrubIndex maps a continuous drag position frac in [0,1] proportionally
// onto the n+1 scrub positions (n history entries plus the present).
func ScrubIndex(frac float64, n int) int {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return int(math.Round(frac * float64(n)))
}
