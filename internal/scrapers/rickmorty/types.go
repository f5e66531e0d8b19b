package rickmorty

import (
	"bytes"
	"encoding/json"
)

// Endpoint is one of the upstream resource collections.
type Endpoint string

const (
	EndpointCharacter Endpoint = "character"
	EndpointEpisode   Endpoint = "episode"
	EndpointLocation  Endpoint = "location"
)

// LocationRef is the location a character was last seen at, it is either
// absent or present with a name.
type LocationRef struct {
	name    string
	present bool
}

// LocationAt returns a present LocationRef.
func LocationAt(name string) LocationRef {
	return LocationRef{name: name, present: true}
}

// NoLocation returns an absent LocationRef.
func NoLocation() LocationRef {
	return LocationRef{}
}

func (l LocationRef) Name() (string, bool) {
	return l.name, l.present
}

func (l LocationRef) IsPresent() bool {
	return l.present
}

// UnmarshalJSON accepts null or an object carrying a string `name`, anything
// without a name decodes as absent.
func (l *LocationRef) UnmarshalJSON(data []byte) error {
	*l = LocationRef{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var ref struct {
		Name *string `json:"name"`
	}
	err := json.Unmarshal(data, &ref)
	if err != nil {
		return err
	}
	if ref.Name != nil {
		*l = LocationAt(*ref.Name)
	}
	return nil
}

func (l LocationRef) MarshalJSON() ([]byte, error) {
	if !l.present {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: l.name})
}

type Character struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Species  string      `json:"species"`
	Gender   string      `json:"gender"`
	Location LocationRef `json:"location"`
	// episode resource urls, ex. https://rickandmortyapi.com/api/episode/28
	Episode []string `json:"episode"`
}

type Episode struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	// free-form, ex. "December 2, 2013"
	AirDate string `json:"air_date"`
	// SxxExx
	Code string `json:"episode"`
}

type Location struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Dimension string `json:"dimension"`
}
