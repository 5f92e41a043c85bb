// Package game owns the turn state machine: it sequences event generation,
// player choices, stat mutation, image regeneration and outcome display, and
// commits every transition to the state store.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tatianab/ancient-cities/internal/models"
)

// EventGenerator produces the next turn's event from the current state.
type EventGenerator interface {
	GenerateEvent(ctx context.Context, state *models.GameState) (*models.GameEvent, error)
}

// ImageGenerator renders the city. previous, when non-empty, is the prior
// image sent for visual continuity; population selects framing.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, previous []byte, previousMime string, population int) (*models.Image, error)
}

// MessageGenerator produces short ambient loading messages. Purely a side
// channel: failures are ignored and never block a transition.
type MessageGenerator interface {
	LoadingMessages(ctx context.Context, phase models.Phase, eventTitle, choiceLabel string, year int) ([]string, error)
}

// BaseImageProvider supplies the static starting image for a civilization.
type BaseImageProvider interface {
	BaseImage(civ models.CivilizationID) (*models.Image, error)
}

// ErrBusy is returned when a player action arrives while a transition is
// still in flight.
var ErrBusy = errors.New("a turn transition is already in progress")

// FallbackLoadingMessages is shown when the message generator has nothing.
var FallbackLoadingMessages = []string{
	"The seasons turn over your city",
	"Messengers carry word through the streets",
	"Smoke curls from the evening hearths",
	"The council debates late into the night",
	"Farmers watch the sky for rain",
}

// Machine drives one game. All mutating methods are safe to call from
// separate goroutines (the TUI runs them as async commands), but only one
// transition may be in flight at a time.
type Machine struct {
	mu    sync.Mutex
	busy  bool
	id    string
	state *models.GameState

	events   EventGenerator
	images   ImageGenerator
	messages MessageGenerator
	base     BaseImageProvider
	store    models.StateStore

	msgCh chan []string
}

// New wires a machine to its collaborators. store saves are best effort:
// failures never interrupt play.
func New(id string, events EventGenerator, images ImageGenerator, messages MessageGenerator, base BaseImageProvider, store models.StateStore) *Machine {
	return &Machine{
		id:       id,
		events:   events,
		images:   images,
		messages: messages,
		base:     base,
		store:    store,
		msgCh:    make(chan []string, 1),
	}
}

// ID returns the game identifier this machine persists under.
func (m *Machine) ID() string { return m.id }

// Messages delivers ambient loading messages as they arrive.
func (m *Machine) Messages() <-chan []string { return m.msgCh }

// State returns the current snapshot. Callers must not read it while a
// transition they started is still running.
func (m *Machine) State() *models.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Load restores a saved game, normalizing any mid-flight phase back to idle.
// It reports whether a usable save existed; when it did not, the caller
// starts a fresh game instead.
func (m *Machine) Load() (bool, error) {
	saved, err := m.store.Load(m.id)
	if err != nil {
		return false, err
	}
	if saved == nil || len(saved.CurrentImage) == 0 {
		return false, nil
	}
	saved.Normalize()
	m.mu.Lock()
	m.state = saved
	m.mu.Unlock()
	return true, nil
}

// NewGame resets the machine to a fresh state for civ.
func (m *Machine) NewGame(civ models.CivilizationID) {
	m.mu.Lock()
	m.state = models.NewGameState(civ)
	m.mu.Unlock()
}

// Delete removes the persisted game.
func (m *Machine) Delete() error {
	return m.store.Delete(m.id)
}

func (m *Machine) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrBusy
	}
	m.busy = true
	return nil
}

func (m *Machine) release() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// commit installs next as the live state and persists it. Persistence
// failures are swallowed: play continues in memory for the session.
func (m *Machine) commit(next *models.GameState) {
	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	_ = m.store.Save(m.id, next)
}

// Start runs the loading -> event transition of a brand-new game: fetch the
// civilization's base image, then the first event. A failed base-image fetch
// is fatal (the game cannot start); a failed event fetch is retried once
// before the error surfaces.
func (m *Machine) Start(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	state := m.State()
	if state == nil || state.Phase != models.PhaseLoading || state.Turn != 0 {
		return fmt.Errorf("game is not in a startable state")
	}

	img, err := m.base.BaseImage(state.Civilization)
	if err != nil {
		return fmt.Errorf("load base image: %w", err)
	}

	withImage := *state
	withImage.CurrentImage = img.Data
	withImage.CurrentImageMimeType = img.MimeType
	m.commit(&withImage)

	event, err := m.events.GenerateEvent(ctx, &withImage)
	if err != nil {
		// One silent retry with the same inputs.
		event, err = m.events.GenerateEvent(ctx, &withImage)
	}
	if err != nil {
		// Settle on idle so the player can retry via the next-turn path.
		idle := withImage
		idle.Phase = models.PhaseIdle
		m.commit(&idle)
		return fmt.Errorf("generate first event: %w", err)
	}

	next := withImage
	next.CurrentEvent = event
	next.Phase = models.PhaseEvent
	m.commit(&next)
	return nil
}

// Choose resolves the pending event with the choice identified by choiceID:
// apply effects, append history, commit the processing phase, check game
// over, then regenerate the city image and land on the outcome phase. An
// image failure degrades gracefully; the narrative and stat change survive.
func (m *Machine) Choose(ctx context.Context, choiceID string) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	state := m.State()
	if state == nil || state.Phase != models.PhaseEvent || state.CurrentEvent == nil || state.GameOver {
		return fmt.Errorf("no event is awaiting a choice")
	}

	var choice *models.Choice
	for i := range state.CurrentEvent.Choices {
		if state.CurrentEvent.Choices[i].ID == choiceID {
			choice = &state.CurrentEvent.Choices[i]
			break
		}
	}
	if choice == nil {
		return fmt.Errorf("unknown choice %q", choiceID)
	}

	newStats := models.ApplyEffects(state.Stats, choice.Effects)
	yearAdvance := state.CurrentEvent.YearAdvance
	if yearAdvance <= 0 {
		yearAdvance = 5
	}

	entry := models.HistoryEntry{
		Turn:          state.Turn,
		Year:          state.Year,
		EventTitle:    state.CurrentEvent.Title,
		ChoiceLabel:   choice.Label,
		Image:         state.CurrentImage,
		ImageMimeType: state.CurrentImageMimeType,
	}

	processing := *state
	processing.Stats = newStats
	processing.Year = state.Year + yearAdvance
	processing.Turn = state.Turn + 1
	processing.History = append(append([]models.HistoryEntry{}, state.History...), entry)
	processing.CurrentEvent = nil
	processing.Phase = models.PhaseProcessing
	m.commit(&processing)

	m.fetchMessages(models.PhaseProcessing, entry.EventTitle, choice.Label, state.Year)

	if processing.Turn >= models.MaxTurns || newStats.Population <= 0 {
		over := processing
		over.Phase = models.PhaseIdle
		over.GameOver = true
		m.commit(&over)
		return nil
	}

	outcome := processing
	outcome.OutcomeText = choice.Outcome
	if outcome.OutcomeText == "" {
		outcome.OutcomeText = fmt.Sprintf("You chose: %s", choice.Label)
	}
	outcome.Phase = models.PhaseOutcome
	outcome.LastChoiceDeltas = models.Deltas(state.Stats, newStats)

	prompt := choice.VisualChange
	if prompt == "" {
		prompt = models.BuildCityDescription(&processing, choice.Label)
	}
	img, err := m.images.GenerateImage(ctx, prompt, state.CurrentImage, state.CurrentImageMimeType, newStats.Population)
	if err == nil {
		outcome.PreviousImage = state.CurrentImage
		outcome.CurrentImage = img.Data
		outcome.CurrentImageMimeType = img.MimeType
	}
	m.commit(&outcome)
	return nil
}

// NextTurn runs the outcome/idle -> loading -> event transition: fetch the
// next event and, when it carries a visual change, an updated city image
// (non-fatal on failure). An event failure rolls the phase back to idle with
// no partial commit.
func (m *Machine) NextTurn(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	state := m.State()
	if state == nil || state.GameOver {
		return fmt.Errorf("game is over")
	}
	if state.Phase != models.PhaseOutcome && state.Phase != models.PhaseIdle {
		return fmt.Errorf("cannot advance from phase %q", state.Phase)
	}

	loading := *state
	loading.Phase = models.PhaseLoading
	loading.LastChoiceDeltas = nil
	m.commit(&loading)

	var lastTitle, lastLabel string
	if n := len(state.History); n > 0 {
		lastTitle = state.History[n-1].EventTitle
		lastLabel = state.History[n-1].ChoiceLabel
	}
	m.fetchMessages(models.PhaseLoading, lastTitle, lastLabel, state.Year)

	event, err := m.events.GenerateEvent(ctx, state)
	if err != nil {
		idle := *state
		idle.Phase = models.PhaseIdle
		m.commit(&idle)
		return fmt.Errorf("generate event: %w", err)
	}

	next := *state
	next.CurrentEvent = event
	next.Phase = models.PhaseEvent
	next.PreviousImage = nil
	next.LastChoiceDeltas = nil

	if event.VisualChange != "" && len(state.CurrentImage) > 0 {
		img, err := m.images.GenerateImage(ctx, event.VisualChange, state.CurrentImage, state.CurrentImageMimeType, state.Stats.Population)
		if err == nil {
			next.PreviousImage = state.CurrentImage
			next.CurrentImage = img.Data
			next.CurrentImageMimeType = img.MimeType
		}
	}

	m.commit(&next)
	return nil
}

// fetchMessages kicks off the fire-and-forget ambient message request. The
// result, if any, lands on the message channel; failure means the UI keeps
// its fallback list.
func (m *Machine) fetchMessages(phase models.Phase, eventTitle, choiceLabel string, year int) {
	if m.messages == nil {
		return
	}
	go func() {
		msgs, err := m.messages.LoadingMessages(context.Background(), phase, eventTitle, choiceLabel, year)
		if err != nil || len(msgs) == 0 {
			return
		}
		select {
		case m.msgCh <- msgs:
		default:
		}
	}()
}
