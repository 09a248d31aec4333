package backend

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the initial data set of the backend services.
type Seed struct {
	Rooms  []Room     `yaml:"rooms"`
	Menu   []MenuItem `yaml:"menu"`
	Tables []string   `yaml:"tables"`
}

// DefaultSeed returns the built-in seed: five rooms, five menu items and five restaurant tables.
func DefaultSeed() Seed {
	seed, err := decodeSeed(defaultSeed)
	if err != nil {
		panic(err)
	}
	return seed
}

// LoadSeed reads a seed from a YAML file.
func LoadSeed(name string) (Seed, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file %s: %v", name, err)
	}

	seed, err := decodeSeed(b)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to decode seed file %s: %v", name, err)
	}
	return seed, nil
}

func decodeSeed(b []byte) (Seed, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(b))
	decoder.KnownFields(true)

	var seed Seed
	if err := decoder.Decode(&seed); err != nil {
		return Seed{}, err
	}

	for i, room := range seed.Rooms {
		if room.Id == "" {
			return Seed{}, fmt.Errorf("room #%d: ID is empty", i)
		}
		if room.Status == "" {
			seed.Rooms[i].Status = RoomAvailable
		}
	}
	for i, item := range seed.Menu {
		if item.Id == "" {
			return Seed{}, fmt.Errorf("menu item #%d: ID is empty", i)
		}
	}

	return seed, nil
}
