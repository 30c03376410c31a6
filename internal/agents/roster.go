package agents

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidRoster is returned when a roster file fails validation.
var ErrInvalidRoster = errors.New("invalid roster")

// Seed is one roster entry, consumed once when the farm is populated.
type Seed struct {
	ID          string  `toml:"id" json:"id"`
	Name        string  `toml:"name" json:"name"`
	BaseAttack  int     `toml:"base_attack" json:"base_attack"`
	BaseSpeed   float64 `toml:"base_speed" json:"base_speed"`
	Disposition Emotion `toml:"disposition" json:"disposition"`
}

type rosterFile struct {
	Pets []Seed `toml:"pet"`
}

const rosterSchemaJSON = `{
  "type": "object",
  "required": ["pet"],
  "properties": {
    "pet": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "base_speed", "disposition"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "base_attack": {"type": "integer", "minimum": 0},
          "base_speed": {"type": "number", "exclusiveMinimum": 0},
          "disposition": {"enum": ["Happiness", "Excitement", "Sadness", "Fear", "Disgust", "Hate"]}
        }
      }
    }
  }
}`

var rosterSchema = jsonschema.MustCompileString("roster.schema.json", rosterSchemaJSON)

// DefaultRoster returns the founding pets of the farm.
func DefaultRoster() []Seed {
	return []Seed{
		{ID: "1", Name: "Chester", BaseAttack: 5, BaseSpeed: 4.0, Disposition: Happiness},
		{ID: "2", Name: "Jakobo", BaseAttack: 5, BaseSpeed: 3.0, Disposition: Hate},
		{ID: "3", Name: "Marcy", BaseAttack: 5, BaseSpeed: 3.5, Disposition: Disgust},
		{ID: "4", Name: "Kitty", BaseAttack: 10, BaseSpeed: 2.5, Disposition: Fear},
		{ID: "5", Name: "Nimbus", BaseAttack: 3, BaseSpeed: 2.0, Disposition: Hate},
		{ID: "6", Name: "Andrea", BaseAttack: 2, BaseSpeed: 4.0, Disposition: Sadness},
		{ID: "7", Name: "Salem", BaseAttack: 20, BaseSpeed: 5.0, Disposition: Excitement},
	}
}

// ParseRoster decodes a TOML roster of [[pet]] tables and validates it.
func ParseRoster(data []byte) ([]Seed, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}
	if err := validateRoster(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	var f rosterFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	seen := make(map[string]bool, len(f.Pets))
	for _, s := range f.Pets {
		if seen[s.ID] {
			return nil, fmt.Errorf("%w: duplicate pet id %q", ErrInvalidRoster, s.ID)
		}
		seen[s.ID] = true
	}
	return f.Pets, nil
}

// LoadRoster reads a roster file from disk.
func LoadRoster(path string) ([]Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(data)
}

// MarshalRoster encodes seeds in the roster file format.
func MarshalRoster(seeds []Seed) ([]byte, error) {
	return toml.Marshal(rosterFile{Pets: seeds})
}

// validateRoster checks the decoded document against the roster schema. The
// document is re-read as plain JSON values first so the validator sees
// numbers and arrays in the shapes it expects.
func validateRoster(raw map[string]any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return rosterSchema.Validate(doc)
}
