// Package assets loads the static per-civilization base images that seed a
// new game before any generation happens.
package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tatianab/ancient-cities/internal/models"
)

// Dir serves base images out of a directory holding rome.jpg, india.jpg,
// egypt.jpg (or .png fallbacks).
type Dir string

// BaseImage returns the starting image for civ, preferring jpg over png.
// A missing asset is fatal to game start, so the error names the fix.
func (d Dir) BaseImage(civ models.CivilizationID) (*models.Image, error) {
	candidates := []struct {
		ext  string
		mime string
	}{
		{".jpg", "image/jpeg"},
		{".png", "image/png"},
	}
	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(string(d), string(civ)+c.ext))
		if err == nil && len(data) > 0 {
			return &models.Image{Data: data, MimeType: c.mime}, nil
		}
	}
	return nil, fmt.Errorf("base image not found for %s: add %s.jpg or %s.png to %s", civ, civ, civ, string(d))
}
