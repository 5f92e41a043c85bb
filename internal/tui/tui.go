package tui

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/ancient-cities/internal/dither"
	"github.com/tatianab/ancient-cities/internal/engine"
	"github.com/tatianab/ancient-cities/internal/game"
	"github.com/tatianab/ancient-cities/internal/models"
)

type sessionState int

const (
	statePicker sessionState = iota
	stateStarting
	statePlaying
	stateError
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)

	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#66CC66"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC6666"))
)

type pickerItem struct {
	gameID string                // non-empty for a resumable save
	civ    models.CivilizationID // set for "new game" rows
}

type model struct {
	state   sessionState
	engine  *engine.Engine
	store   models.StateStore
	base    game.BaseImageProvider
	saveDir string

	machine *game.Machine

	items  []pickerItem
	cursor int

	spinner  spinner.Model
	ambient  []string
	ambientI int

	scrubIdx int // len(history) == live view
	cityArt  string
	scrubArt string

	width  int
	height int
	err    error
	notice string
}

func newModel(eng *engine.Engine, store models.StateStore, base game.BaseImageProvider, saveDir string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	items := []pickerItem{}
	if ids, err := store.ListIDs(); err == nil {
		for _, id := range ids {
			items = append(items, pickerItem{gameID: id})
		}
	}
	for _, civ := range models.Civilizations {
		items = append(items, pickerItem{civ: civ})
	}

	return model{
		state:   statePicker,
		engine:  eng,
		store:   store,
		base:    base,
		saveDir: saveDir,
		items:   items,
		spinner: sp,
		ambient: game.FallbackLoadingMessages,
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

type startedMsg struct{ err error }
type choseMsg struct{ err error }
type advancedMsg struct{ err error }
type ambientMsg struct{ messages []string }
type cycleMsg struct{}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refreshArt()
		return m, nil

	case startedMsg:
		if msg.err != nil {
			state := m.machine.State()
			if state == nil || len(state.CurrentImage) == 0 {
				// No base image: the game cannot start at all.
				m.state = stateError
				m.err = msg.err
				return m, nil
			}
			// The machine settled on idle; let the player retry from there.
			m.state = statePlaying
			m.notice = "Something went wrong starting the game"
			m.syncFromMachine()
			return m, m.listenAmbient()
		}
		m.state = statePlaying
		m.notice = ""
		m.syncFromMachine()
		return m, m.listenAmbient()

	case choseMsg:
		if msg.err != nil && msg.err != game.ErrBusy {
			m.notice = "Something went wrong"
		}
		m.syncFromMachine()
		return m, nil

	case advancedMsg:
		if msg.err != nil && msg.err != game.ErrBusy {
			m.notice = "Something went wrong"
		}
		m.syncFromMachine()
		return m, nil

	case ambientMsg:
		m.ambient = msg.messages
		m.ambientI = 0
		return m, m.listenAmbient()

	case cycleMsg:
		if len(m.ambient) > 0 {
			m.ambientI = (m.ambientI + 1) % len(m.ambient)
		}
		return m, cycle()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.state {
	case statePicker:
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown:
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case tea.KeyEnter:
			return m.pickItem()
		}
		return m, nil

	case statePlaying:
		return m.handleGameKey(msg)

	case stateError:
		if msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) pickItem() (tea.Model, tea.Cmd) {
	item := m.items[m.cursor]
	if item.gameID != "" {
		m.machine = game.New(item.gameID, m.engine, m.engine, m.engine, m.base, m.store)
		found, err := m.machine.Load()
		if err == nil && found {
			m.state = statePlaying
			m.syncFromMachine()
			return m, tea.Batch(m.listenAmbient(), cycle())
		}
		// Corrupt or vanished save: fall through to a fresh Rome game.
		m.machine.NewGame(models.CivRome)
	} else {
		m.machine = game.New(models.NewGameID(), m.engine, m.engine, m.engine, m.base, m.store)
		m.machine.NewGame(item.civ)
	}
	m.state = stateStarting
	return m, tea.Batch(m.startGame(), m.spinner.Tick, cycle())
}

func (m model) handleGameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.machine.State()
	if state == nil {
		return m, nil
	}

	// Timeline scrubbing works in any settled phase.
	switch msg.Type {
	case tea.KeyLeft:
		if m.scrubIdx > 0 && settled(state.Phase) {
			m.scrubIdx--
			m.refreshArt()
		}
		return m, nil
	case tea.KeyRight:
		if m.scrubIdx < len(state.History) {
			m.scrubIdx++
			m.refreshArt()
		}
		return m, nil
	case tea.KeyEsc:
		if m.scrubIdx != len(state.History) {
			m.scrubIdx = len(state.History)
			m.refreshArt()
			return m, nil
		}
		return m, tea.Quit
	}

	key := msg.String()

	// Digit keys jump proportionally through the timeline, like dragging a
	// scrubber: 0 is the founding, 9 is the present.
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' && settled(state.Phase) && state.CurrentEvent == nil {
		frac := float64(key[0]-'0') / 9
		m.scrubIdx = models.ScrubIndex(frac, len(state.History))
		m.refreshArt()
		return m, nil
	}

	if state.GameOver {
		if key == "n" {
			_ = m.machine.Delete()
			fresh := newModel(m.engine, m.store, m.base, m.saveDir)
			fresh.width = m.width
			fresh.height = m.height
			return fresh, fresh.spinner.Tick
		}
		return m, nil
	}

	switch state.Phase {
	case models.PhaseEvent:
		if state.CurrentEvent != nil && len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			idx := int(key[0] - '1')
			if idx < len(state.CurrentEvent.Choices) {
				m.notice = ""
				m.ambient = game.FallbackLoadingMessages
				m.ambientI = 0
				return m, m.choose(state.CurrentEvent.Choices[idx].ID)
			}
		}
	case models.PhaseOutcome, models.PhaseIdle:
		if msg.Type == tea.KeyEnter {
			m.notice = ""
			m.ambient = game.FallbackLoadingMessages
			m.ambientI = 0
			return m, m.nextTurn()
		}
	}
	return m, nil
}

func settled(p models.Phase) bool {
	return p == models.PhaseEvent || p == models.PhaseOutcome || p == models.PhaseIdle
}

func (m *model) syncFromMachine() {
	state := m.machine.State()
	if state == nil {
		return
	}
	m.scrubIdx = len(state.History)
	m.refreshArt()
	m.exportImage(state)
}

// exportImage writes the current city image next to the saves so the player
// can open the real picture; the terminal only shows the dithered version.
func (m *model) exportImage(state *models.GameState) {
	if len(state.CurrentImage) == 0 || m.saveDir == "" {
		return
	}
	ext := ".png"
	if state.CurrentImageMimeType == "image/jpeg" {
		ext = ".jpg"
	}
	path := filepath.Join(m.saveDir, m.machine.ID()+"-city"+ext)
	_ = os.WriteFile(path, state.CurrentImage, 0644)
}

// refreshArt re-renders the dithered city view for the live state and, when
// scrubbing, for the selected history entry.
func (m *model) refreshArt() {
	if m.machine == nil {
		return
	}
	state := m.machine.State()
	if state == nil || m.width == 0 {
		return
	}
	w := m.width - 4
	h := m.height - 12
	if w < 16 || h < 4 {
		m.cityArt, m.scrubArt = "", ""
		return
	}
	m.cityArt = renderCity(state.CurrentImage, w, h)
	m.scrubArt = ""
	if entry, present := models.HistoryAt(state.History, m.scrubIdx); !present {
		m.scrubArt = renderCity(entry.Image, w, h)
	}
}

// renderCity draws image bytes as halftone text: the image is scaled to the
// cell grid, dithered, and each lit cell becomes a shade block.
func renderCity(data []byte, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	scaled := dither.Scale(img, width, height)
	opts := dither.DefaultOptions()
	opts.Spacing = 1
	opts.Gradient = dither.Gradient{
		Angle: 90,
		Points: []dither.GradientPoint{
			{Position: 0, Opacity: 100, Density: 100},
			{Position: 100, Opacity: 60, Density: 80},
		},
	}
	halftone := dither.Dither(scaled, opts)

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			_, _, _, a := halftone.RGBAAt(x, y).RGBA()
			switch {
			case a == 0:
				b.WriteByte(' ')
			case a < 0x6000:
				b.WriteRune('░')
			case a < 0xC000:
				b.WriteRune('▒')
			default:
				b.WriteRune('▓')
			}
		}
		if y < height-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m model) View() string {
	switch m.state {
	case statePicker:
		return m.viewPicker()
	case stateStarting:
		return fmt.Sprintf("\n  %s Founding your settlement... first decree incoming.\n\n  %s\n",
			m.spinner.View(), dimStyle.Render(m.currentAmbient()))
	case statePlaying:
		return m.viewGame()
	case stateError:
		return fmt.Sprintf("\n  Error: %v\n\nPress Esc to quit.\n", m.err)
	}
	return ""
}

func (m model) viewPicker() string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render("ANCIENT CITIES") + "\n\n")
	b.WriteString("Guide a settlement through a thousand years of fortune and ruin.\n\n")

	for i, item := range m.items {
		label := ""
		if item.gameID != "" {
			short := item.gameID
			if len(short) > 8 {
				short = short[:8]
			}
			label = "Resume game " + short
		} else {
			label = "New game — " + models.CivilizationName(item.civ)
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString("  " + label + "\n")
		}
	}

	b.WriteString("\n" + helpStyle.Render("up/down to select, enter to play, esc to quit") + "\n")
	return b.String()
}

func (m model) viewGame() string {
	state := m.machine.State()
	if state == nil {
		return ""
	}

	scrubbing := m.scrubIdx != len(state.History)
	art := m.cityArt
	if scrubbing && m.scrubArt != "" {
		art = m.scrubArt
	}

	var b strings.Builder
	if art != "" {
		b.WriteString(art + "\n")
	}
	b.WriteString(m.viewStatsBar(state, scrubbing) + "\n")

	switch {
	case scrubbing:
		entry, _ := models.HistoryAt(state.History, m.scrubIdx)
		b.WriteString(cardStyle.Render(fmt.Sprintf("Turn %d · %s\n%s\nYou chose: %s",
			entry.Turn, models.FormatYear(entry.Year), entry.EventTitle, entry.ChoiceLabel)) + "\n")
		b.WriteString(helpStyle.Render("left/right to scrub, esc to return to the present") + "\n")

	case state.GameOver:
		b.WriteString(m.viewGameOver(state) + "\n")

	case state.Phase == models.PhaseLoading || state.Phase == models.PhaseProcessing:
		b.WriteString(fmt.Sprintf("%s %s\n", m.spinner.View(), dimStyle.Render(m.currentAmbient())))

	case state.Phase == models.PhaseEvent && state.CurrentEvent != nil:
		b.WriteString(m.viewEvent(state.CurrentEvent) + "\n")

	case state.Phase == models.PhaseOutcome:
		b.WriteString(m.viewOutcome(state) + "\n")

	case state.Phase == models.PhaseIdle:
		b.WriteString(helpStyle.Render("enter to continue") + "\n")
	}

	if m.notice != "" {
		b.WriteString(badStyle.Render(m.notice) + "\n")
	}
	return b.String()
}

func (m model) viewStatsBar(state *models.GameState, scrubbing bool) string {
	year := state.Year
	if scrubbing {
		if entry, present := models.HistoryAt(state.History, m.scrubIdx); !present {
			year = entry.Year
		}
	}
	pips := func(v int) string {
		return strings.Repeat("●", v) + strings.Repeat("○", 5-v)
	}
	bar := fmt.Sprintf("%s · Pop %d · Gold %s Food %s Def %s Cul %s · Turn %d/%d",
		models.FormatYear(year), state.Stats.Population,
		pips(state.Stats.Gold), pips(state.Stats.Food),
		pips(state.Stats.Defense), pips(state.Stats.Culture),
		state.Turn, models.MaxTurns)
	return dimStyle.Render(bar)
}

func (m model) viewEvent(event *models.GameEvent) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(event.Title) + "\n\n")
	b.WriteString(event.Description + "\n\n")
	for i, choice := range event.Choices {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, choice.Label))
	}
	return cardStyle.Render(b.String()) + "\n" + helpStyle.Render("press a number to decide")
}

func (m model) viewOutcome(state *models.GameState) string {
	var b strings.Builder
	b.WriteString(state.OutcomeText)
	if d := state.LastChoiceDeltas; d != nil {
		b.WriteString("\n\n" + formatDeltas(*d))
	}
	return cardStyle.Render(b.String()) + "\n" + helpStyle.Render("enter for the next turn")
}

func formatDeltas(d models.Effects) string {
	parts := []string{}
	add := func(name string, v int) {
		if v == 0 {
			return
		}
		s := fmt.Sprintf("%s %+d", name, v)
		if v > 0 {
			parts = append(parts, goodStyle.Render(s))
		} else {
			parts = append(parts, badStyle.Render(s))
		}
	}
	add("Population", d.Population)
	add("Gold", d.Gold)
	add("Food", d.Food)
	add("Defense", d.Defense)
	add("Culture", d.Culture)
	return strings.Join(parts, "  ")
}

func (m model) viewGameOver(state *models.GameState) string {
	fallen := state.Stats.Population <= 0
	heading := "Your Civilization Has Reached Its Destiny"
	if fallen {
		heading = "Your Civilization Has Fallen"
	}
	body := fmt.Sprintf("%s\n\n%s · %d turns\nPopulation: %d\nDecisions made: %d",
		titleStyle.Render(heading),
		models.FormatYear(state.Year), state.Turn,
		state.Stats.Population, len(state.History))
	return cardStyle.Render(body) + "\n" + helpStyle.Render("n for a new game, esc to quit")
}

func (m model) currentAmbient() string {
	if len(m.ambient) == 0 {
		return game.FallbackLoadingMessages[0]
	}
	return m.ambient[m.ambientI%len(m.ambient)]
}

func (m model) startGame() tea.Cmd {
	machine := m.machine
	return func() tea.Msg {
		return startedMsg{err: machine.Start(context.Background())}
	}
}

func (m model) choose(choiceID string) tea.Cmd {
	machine := m.machine
	return func() tea.Msg {
		return choseMsg{err: machine.Choose(context.Background(), choiceID)}
	}
}

func (m model) nextTurn() tea.Cmd {
	machine := m.machine
	return func() tea.Msg {
		return advancedMsg{err: machine.NextTurn(context.Background())}
	}
}

// listenAmbient waits for the machine's fire-and-forget loading messages.
func (m model) listenAmbient() tea.Cmd {
	machine := m.machine
	return func() tea.Msg {
		msgs, ok := <-machine.Messages()
		if !ok {
			return nil
		}
		return ambientMsg{messages: msgs}
	}
}

func cycle() tea.Cmd {
	return tea.Tick(2500*time.Millisecond, func(time.Time) tea.Msg {
		return cycleMsg{}
	})
}

// Run starts the TUI.
func Run(eng *engine.Engine, store models.StateStore, base game.BaseImageProvider, saveDir string) error {
	p := tea.NewProgram(newModel(eng, store, base, saveDir), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
