package transform

import (
	"rickmorty-etl/internal/scrapers/rickmorty"
)

// JoinedColumns is the header of the joined characters/episodes/locations table.
var JoinedColumns = []string{
	"name",
	"status",
	"species",
	"gender",
	"location",
	"location_type",
	"dimension",
	"episode",
	"air_date",
}

type JoinedRow struct {
	Name         string
	Status       string
	Species      string
	Gender       string
	Location     string
	LocationType string
	Dimension    string
	// the episode code of the matched episode, ex. S01E01
	Episode string
	AirDate string
}

// Record returns the row's cells in JoinedColumns order.
func (r JoinedRow) Record() []string {
	return []string{
		r.Name,
		r.Status,
		r.Species,
		r.Gender,
		r.Location,
		r.LocationType,
		r.Dimension,
		r.Episode,
		r.AirDate,
	}
}

// Join inner joins character rows to episodes on the episode id and the result to
// locations on the location name. Rows without a match on either side, including
// characters with an absent location, are dropped. Duplicate keys on the episode
// or location side multiply rows like any inner join.
func Join(rows []CharacterRow, episodes []rickmorty.Episode, locations []rickmorty.Location) []JoinedRow {
	episodesByID := make(map[int][]rickmorty.Episode, len(episodes))
	for _, episode := range episodes {
		episodesByID[episode.ID] = append(episodesByID[episode.ID], episode)
	}
	locationsByName := make(map[string][]rickmorty.Location, len(locations))
	for _, location := range locations {
		locationsByName[location.Name] = append(locationsByName[location.Name], location)
	}

	var joined []JoinedRow
	for _, row := range rows {
		locationName, ok := row.Location.Name()
		if !ok {
			continue
		}
		matchedLocations := locationsByName[locationName]
		if len(matchedLocations) == 0 {
			continue
		}
		for _, episode := range episodesByID[row.Episode] {
			for _, location := range matchedLocations {
				joined = append(joined, JoinedRow{
					Name:         row.Name,
					Status:       row.Status,
					Species:      row.Species,
					Gender:       row.Gender,
					Location:     locationName,
					LocationType: location.Type,
					Dimension:    location.Dimension,
					Episode:      episode.Code,
					AirDate:      episode.AirDate,
				})
			}
		}
	}
	return joined
}
