// Simulation harness: plays a full game against the real generators with an
// LLM standing in for the player. Useful for exercising the prompts and the
// turn machine end to end without the TUI.
package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/ancient-cities/internal/assets"
	"github.com/tatianab/ancient-cities/internal/config"
	"github.com/tatianab/ancient-cities/internal/engine"
	"github.com/tatianab/ancient-cities/internal/game"
	"github.com/tatianab/ancient-cities/internal/models"
)

const maxSimTurns = 10

// placeholderBase stands in for real civilization art when the assets
// directory is absent, so the harness runs anywhere.
type placeholderBase struct {
	real assets.Dir
}

func (p placeholderBase) BaseImage(civ models.CivilizationID) (*models.Image, error) {
	if img, err := p.real.BaseImage(civ); err == nil {
		return img, nil
	}
	canvas := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			canvas.SetRGBA(x, y, color.RGBA{R: 180, G: 150, B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return &models.Image{Data: buf.Bytes(), MimeType: "image/png"}, nil
}

// memStore keeps the simulated game in memory only.
type memStore struct {
	saves map[string]*models.GameState
}

func (s *memStore) Save(id string, state *models.GameState) error {
	copied := *state
	s.saves[id] = &copied
	return nil
}

func (s *memStore) Load(id string) (*models.GameState, error) { return s.saves[id], nil }
func (s *memStore) Delete(id string) error                    { delete(s.saves, id); return nil }
func (s *memStore) ListIDs() ([]string, error)                { return nil, nil }

func main() {
	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	eng, err := engine.NewEngine(ctx, cfg.GeminiAPIKey, cfg.TextModel, cfg.ImageModel)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer eng.Close()

	playerClient, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		log.Fatalf("Failed to create player client: %v", err)
	}
	defer playerClient.Close()
	playerModel := playerClient.GenerativeModel(cfg.TextModel)

	store := &memStore{saves: map[string]*models.GameState{}}
	machine := game.New(models.NewGameID(), eng, eng, eng,
		placeholderBase{real: assets.Dir(cfg.AssetsDir)}, store)
	machine.NewGame(models.CivRome)

	fmt.Println("--- Founding the settlement ---")
	if err := machine.Start(ctx); err != nil {
		log.Fatalf("Failed to start game: %v", err)
	}

	for turn := 1; turn <= maxSimTurns; turn++ {
		state := machine.State()
		if state.GameOver {
			break
		}
		if state.CurrentEvent == nil {
			if err := machine.NextTurn(ctx); err != nil {
				fmt.Printf("Error advancing turn: %v\n", err)
				break
			}
			state = machine.State()
		}

		event := state.CurrentEvent
		fmt.Printf("--- Turn %d (%s) ---\n", state.Turn, models.FormatYear(state.Year))
		fmt.Printf("Event: %s\n%s\n", event.Title, event.Description)

		choice := pickChoice(ctx, playerModel, state)
		fmt.Printf("Player chose: %s\n", choice.Label)

		if err := machine.Choose(ctx, choice.ID); err != nil {
			fmt.Printf("Error processing choice: %v\n", err)
			break
		}

		state = machine.State()
		fmt.Printf("Outcome: %s\n", state.OutcomeText)
		fmt.Printf("Stats: Pop=%d Gold=%d Food=%d Def=%d Cul=%d\n\n",
			state.Stats.Population, state.Stats.Gold, state.Stats.Food,
			state.Stats.Defense, state.Stats.Culture)
	}

	final := machine.State()
	if final.GameOver {
		if final.Stats.Population <= 0 {
			fmt.Println("Game Ended: the civilization has fallen.")
		} else {
			fmt.Println("Game Ended: the civilization reached its destiny.")
		}
	}
	fmt.Printf("Final: turn %d, %s, population %d, %d decisions\n",
		final.Turn, models.FormatYear(final.Year), final.Stats.Population, len(final.History))
}

// pickChoice asks the player LLM to select one of the event's choices,
// falling back to the first choice if the answer is unusable.
func pickChoice(ctx context.Context, model *genai.GenerativeModel, state *models.GameState) models.Choice {
	event := state.CurrentEvent
	var options strings.Builder
	for i, c := range event.Choices {
		fmt.Fprintf(&options, "%d. %s\n", i+1, c.Label)
	}

	prompt := fmt.Sprintf(`You are playing an ancient city builder game as a shrewd ruler.

Your city: population %d, gold %d/5, food %d/5, defense %d/5, culture %d/5.
Event: %s
%s

Choices:
%s
Reply with ONLY the number of the choice you pick.`,
		state.Stats.Population, state.Stats.Gold, state.Stats.Food,
		state.Stats.Defense, state.Stats.Culture,
		event.Title, event.Description, options.String())

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err == nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		answer := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
		for i := range event.Choices {
			if strings.HasPrefix(answer, fmt.Sprintf("%d", i+1)) {
				return event.Choices[i]
			}
		}
	}
	return event.Choices[0]
}
