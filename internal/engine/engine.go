package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tatianab/ancient-cities/internal/models"
)

//go:embed prompts/generate_event.txt
var generateEventPrompt string

//go:embed prompts/generate_image.txt
var generateImagePrompt string

//go:embed prompts/loading_messages.txt
var loadingMessagesPrompt string

// Engine talks to Gemini on behalf of the game: one text model for events and
// loading messages, one image-capable model for city illustrations.
type Engine struct {
	client     *genai.Client
	textModel  *genai.GenerativeModel
	imageModel *genai.GenerativeModel
}

// NewEngine creates the Gemini client. Model names are configurable so the
// image model can be swapped without a rebuild.
func NewEngine(ctx context.Context, apiKey, textModelName, imageModelName string) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	textModel := client.GenerativeModel(textModelName)
	imageModel := client.GenerativeModel(imageModelName)
	return &Engine{
		client:     client,
		textModel:  textModel,
		imageModel: imageModel,
	}, nil
}

func (e *Engine) Close() {
	e.client.Close()
}

// GenerateEvent asks the model for the next turn's event. The response is
// untrusted text: it is accepted only if it decodes to an event with a title,
// a description and at least two choices.
func (e *Engine) GenerateEvent(ctx context.Context, state *models.GameState) (*models.GameEvent, error) {
	tmpl, err := template.New("generate_event").Parse(generateEventPrompt)
	if err != nil {
		return nil, err
	}

	recent := state.History
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	historyText := "No history yet - this is the founding of the settlement."
	if len(recent) > 0 {
		lines := make([]string, len(recent))
		for i, h := range recent {
			lines[i] = fmt.Sprintf("Turn %d (%s): %s -> Player chose: %s",
				h.Turn, models.FormatYear(h.Year), h.EventTitle, h.ChoiceLabel)
		}
		historyText = strings.Join(lines, "\n")
	}

	var buf bytes.Buffer
	data := struct {
		Civilization string
		Turn         int
		Year         string
		Population   int
		Gold         int
		Food         int
		Defense      int
		Culture      int
		History      string
		FirstTurn    bool
		LowFood      bool
		LowDefense   bool
	}{
		Civilization: models.CivilizationName(state.Civilization),
		Turn:         state.Turn,
		Year:         models.FormatYear(state.Year),
		Population:   state.Stats.Population,
		Gold:         state.Stats.Gold,
		Food:         state.Stats.Food,
		Defense:      state.Stats.Defense,
		Culture:      state.Stats.Culture,
		History:      historyText,
		FirstTurn:    state.Turn == 0,
		LowFood:      state.Turn > 0 && state.Stats.Food <= 1,
		LowDefense:   state.Turn > 0 && state.Stats.Defense <= 1,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	resp, err := e.textModel.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return nil, err
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	return parseEvent(text)
}

// parseEvent decodes and validates generator output. Anything malformed is
// rejected outright; partial events are never accepted.
func parseEvent(raw string) (*models.GameEvent, error) {
	clean := stripFences(raw)

	var event models.GameEvent
	if err := json.Unmarshal([]byte(clean), &event); err != nil {
		return nil, fmt.Errorf("failed to parse event JSON: %v\nOutput was: %s", err, clean)
	}
	if event.Title == "" || event.Description == "" || len(event.Choices) < 2 {
		return nil, fmt.Errorf("invalid event structure: %q with %d choices", event.Title, len(event.Choices))
	}
	return &event, nil
}

// GenerateImage produces a city illustration. When a previous image is given
// it is sent along so the model evolves the same city rather than inventing a
// new one; population picks the aerial zoom tier.
func (e *Engine) GenerateImage(ctx context.Context, prompt string, previous []byte, previousMime string, population int) (*models.Image, error) {
	tmpl, err := template.New("generate_image").Parse(generateImagePrompt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	data := struct {
		ZoomLevel   string
		HasPrevious bool
		Prompt      string
	}{
		ZoomLevel:   zoomLevel(population),
		HasPrevious: len(previous) > 0,
		Prompt:      prompt,
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	parts := []genai.Part{}
	if len(previous) > 0 {
		format := strings.TrimPrefix(previousMime, "image/")
		if format == "" || format == previousMime {
			format = "png"
		}
		parts = append(parts, genai.ImageData(format, previous))
	}
	parts = append(parts, genai.Text(buf.String()))

	resp, err := e.imageModel.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 {
				mime := blob.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return &models.Image{Data: blob.Data, MimeType: mime}, nil
			}
		}
	}
	return nil, fmt.Errorf("no image was generated")
}

func zoomLevel(population int) string {
	switch {
	case population < 500:
		return "Close aerial view showing individual huts and people. The settlement is small and intimate."
	case population < 2000:
		return "Medium aerial view. The town is growing -- zoom out slightly to show the expanding borders, surrounding farms, and new districts."
	case population < 5000:
		return "Wide aerial view. The city is substantial -- zoom out to show the full city walls, multiple districts, and surrounding countryside. Keep the city centered."
	case population < 15000:
		return "High aerial view. This is a major city -- zoom out further to show the sprawling metropolis, outer settlements, trade routes, and surrounding landscape. City stays centered."
	default:
		return "Very high aerial/satellite view. This is a grand civilization -- zoom out significantly to show the massive city, satellite towns, harbors, roads, and vast territory. City centered in frame."
	}
}

// LoadingMessages fetches up to five short ambient lines shown while slower
// requests run. Best effort: callers treat an error like an empty result.
func (e *Engine) LoadingMessages(ctx context.Context, phase models.Phase, eventTitle, choiceLabel string, year int) ([]string, error) {
	tmpl, err := template.New("loading_messages").Parse(loadingMessagesPrompt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	data := struct {
		Processing  bool
		EventTitle  string
		ChoiceLabel string
		Year        string
	}{
		Processing:  phase == models.PhaseProcessing && eventTitle != "" && choiceLabel != "",
		EventTitle:  eventTitle,
		ChoiceLabel: choiceLabel,
		Year:        models.FormatYear(year),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	model := *e.textModel
	model.SetTemperature(0.9)
	resp, err := model.GenerateContent(ctx, genai.Text(buf.String()))
	if err != nil {
		return nil, err
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}
	return cleanMessageLines(text), nil
}

// cleanMessageLines strips list markers and quotes and keeps at most five
// plausibly short lines.
func cleanMessageLines(text string) []string {
	var messages []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789-.*• \t")
		line = strings.Trim(line, `"“”`)
		line = strings.TrimSpace(line)
		if len(line) > 0 && len(line) < 60 {
			messages = append(messages, line)
		}
		if len(messages) == 5 {
			break
		}
	}
	return messages
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			return string(text), nil
		}
	}
	return "", fmt.Errorf("unexpected response type from Gemini")
}

func stripFences(s string) string {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
