package scene

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/sceneplay/sceneplay/filesystem"
)

// ErrNoID is returned for a scene file without an identifier.
var ErrNoID = errors.New("scene has no id")

// Load reads a scene description from a JSON file on the active filesystem.
func Load(path string) (*Scene, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}

	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scene file %s: %w", path, err)
	}

	if s.ID == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoID)
	}

	return &s, nil
}

// Schema describes the scene file format for editors and validators.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	return r.Reflect(&Scene{})
}
