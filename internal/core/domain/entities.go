package domain

import (
	"time"
)

// MapItem is a named marker placed on the map. Items are never mutated.
type MapItem struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Coordinate Coordinate `json:"coordinate"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Resource is a named PokeAPI resource reference.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pokemon is the PokeAPI entity returned by /pokemon/{name-or-id}.
type Pokemon struct {
	ID                     int           `json:"id"`
	Name                   string        `json:"name"`
	BaseExperience         int           `json:"base_experience"`
	Height                 int           `json:"height"`
	IsDefault              bool          `json:"is_default"`
	Order                  int           `json:"order"`
	Weight                 int           `json:"weight"`
	Abilities              []AbilityInfo `json:"abilities"`
	Forms                  []Resource    `json:"forms"`
	LocationAreaEncounters string        `json:"location_area_encounters"`
	Species                Resource      `json:"species"`
	Sprites                Sprites       `json:"sprites"`
	Stats                  []StatInfo    `json:"stats"`
	Types                  []TypeInfo    `json:"types"`
}

type AbilityInfo struct {
	IsHidden bool     `json:"is_hidden"`
	Slot     int      `json:"slot"`
	Ability  Resource `json:"ability"`
}

type StatInfo struct {
	BaseStat int      `json:"base_stat"`
	Effort   int      `json:"effort"`
	Stat     Resource `json:"stat"`
}

type TypeInfo struct {
	Slot int      `json:"slot"`
	Type Resource `json:"type"`
}

// Sprites holds image URLs. Female variants are absent for most species.
type Sprites struct {
	BackDefault      string  `json:"back_default"`
	BackFemale       *string `json:"back_female"`
	BackShiny        string  `json:"back_shiny"`
	BackShinyFemale  *string `json:"back_shiny_female"`
	FrontDefault     string  `json:"front_default"`
	FrontFemale      *string `json:"front_female"`
	FrontShiny       string  `json:"front_shiny"`
	FrontShinyFemale *string `json:"front_shiny_female"`
}

// NamedPage is one page of the catalog name list.
type NamedPage struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []Resource `json:"results"`
}

// Names returns the resource names in page order.
func (p NamedPage) Names() []string {
	names := make([]string, 0, len(p.Results))
	for _, r := range p.Results {
		names = append(names, r.Name)
	}
	return names
}

// ItemsCleared is published when an instance clears the map. Origin
// identifies the publishing MapService so it can skip its own event.
type ItemsCleared struct {
	Origin    string    `json:"origin"`
	ClearedAt time.Time `json:"cleared_at"`
}

// FavoriteChange is published whenever the favorite selection changes.
type FavoriteChange struct {
	Name      *string   `json:"name"`
	ChangedAt time.Time `json:"changed_at"`
}
