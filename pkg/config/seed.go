package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Seed declares the resource and crew directories loaded at startup.
//
//	[[resources]]
//	id = "R1"
//	name = "Sea Breeze"
//	kind = "boat"
//	capacity = 12
//
//	[[crew]]
//	id = "C1"
//	name = "Dana"
//	qualifications = ["skipper"]
//
//	[[maintenance]]
//	resource_id = "R1"
//	date = "2025-09-21"
//	start = "08:00"
//	end = "12:00"
//	note = "engine service"
type Seed struct {
	Resources   []SeedResource    `toml:"resources"`
	Crew        []SeedCrewMember  `toml:"crew"`
	Maintenance []SeedMaintenance `toml:"maintenance"`
}

type SeedResource struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Capacity int    `toml:"capacity"`
}

type SeedCrewMember struct {
	ID             string   `toml:"id"`
	Name           string   `toml:"name"`
	Qualifications []string `toml:"qualifications"`
}

type SeedMaintenance struct {
	ResourceID string `toml:"resource_id"`
	Date       string `toml:"date"`
	Start      string `toml:"start"`
	End        string `toml:"end"`
	Note       string `toml:"note"`
}

func LoadSeed(path string) (*Seed, error) {
	var seed Seed
	md, err := toml.DecodeFile(path, &seed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode seed file %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("seed file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return &seed, nil
}
