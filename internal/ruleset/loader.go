package ruleset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a rules YAML file. Unknown fields fail fast so a typo in the
// strategy file cannot silently fall back to defaults.
func Load(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rules Rules
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rules); err != nil {
		return nil, err
	}

	if err := Validate(&rules); err != nil {
		return nil, err
	}

	return &rules, nil
}

// LoadOrDefault loads rules from path, falling back to the built-in
// strategy when path is empty or missing.
func LoadOrDefault(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Hash generates a SHA256 hash from Rules (canonical JSON). Structs rather
// than maps keep the hash reproducible.
func Hash(r *Rules) (string, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
