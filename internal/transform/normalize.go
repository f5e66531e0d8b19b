package transform

import (
	"errors"
	"fmt"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"strconv"
	"strings"
)

var (
	errNoTrailingID  = errors.New("no trailing integer segment")
	errNotEpisodeRef = errors.New("not an episode resource")
)

const episodeResource = "episode"

// ParseError is returned when an episode reference of a character is not a url
// ending in an integer id.
type ParseError struct {
	CharacterID int
	Ref         string
	Err         error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("transform: character %d: episode ref %q: %v", e.CharacterID, e.Ref, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CharacterRow is a character paired with one episode it appears in.
type CharacterRow struct {
	ID       int
	Name     string
	Status   string
	Species  string
	Gender   string
	Location rickmorty.LocationRef
	Episode  int
}

// ParseEpisodeID returns the trailing path segment of an episode resource url as
// an integer, ex. `https://rickandmortyapi.com/api/episode/28` -> 28.
// Signs, empty segments and anything but decimal digits are rejected, and so is
// a url of another resource such as `.../api/character/5`.
func ParseEpisodeID(ref string) (int, error) {
	trimmed := strings.TrimSuffix(ref, "/")
	slash := strings.LastIndex(trimmed, "/")
	segment := trimmed[slash+1:]
	if slash < 0 || segment == "" {
		return 0, errNoTrailingID
	}
	parent := trimmed[:slash]
	if parent[strings.LastIndex(parent, "/")+1:] != episodeResource {
		return 0, fmt.Errorf("%w: %s", errNotEpisodeRef, parent)
	}
	id, err := strconv.ParseUint(segment, 10, strconv.IntSize-1)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errNoTrailingID, err)
	}
	return int(id), nil
}

// NormalizeCharacters explodes every character into one row per episode reference,
// in input order. A character without episodes contributes no rows, a reference that
// does not resolve to an id aborts with a *ParseError.
func NormalizeCharacters(characters []rickmorty.Character) ([]CharacterRow, error) {
	var rows []CharacterRow
	for _, character := range characters {
		for _, ref := range character.Episode {
			episodeID, err := ParseEpisodeID(ref)
			if err != nil {
				return nil, &ParseError{CharacterID: character.ID, Ref: ref, Err: err}
			}
			rows = append(rows, CharacterRow{
				ID:       character.ID,
				Name:     character.Name,
				Status:   character.Status,
				Species:  character.Species,
				Gender:   character.Gender,
				Location: character.Location,
				Episode:  episodeID,
			})
		}
	}
	return rows, nil
}
