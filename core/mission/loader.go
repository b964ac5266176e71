package mission

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// profileFile is the on-disk shape of a user-defined mission.
type profileFile struct {
	Name     string    `json:"name" yaml:"name"`
	Segments []Segment `json:"segments" yaml:"segments"`
}

// Load reads a mission profile from a JSON or YAML file.
func Load(path string) (Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	var f profileFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	default:
		return Profile{}, fmt.Errorf("mission: unsupported profile format: %s", ext)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("mission: parse %s: %w", path, err)
	}
	return New(f.Name, f.Segments)
}

// Decode reads a profile from r in the given format ("yaml" or "json").
func Decode(r io.Reader, format string) (Profile, error) {
	var f profileFile
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&f); err != nil {
			return Profile{}, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&f); err != nil {
			return Profile{}, err
		}
	default:
		return Profile{}, fmt.Errorf("mission: unsupported profile format: %s", format)
	}
	return New(f.Name, f.Segments)
}
