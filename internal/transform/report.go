package transform

import (
	"rickmorty-etl/internal/scrapers/rickmorty"
)

// Report is every table derived from one dataset.
type Report struct {
	Characters []CharacterRow
	Joined     []JoinedRow

	Appearances View
	PerLocation View
	PerSeason   View
	PerYear     View
}

// Views returns the aggregate views in output order.
func (r Report) Views() []View {
	return []View{r.Appearances, r.PerLocation, r.PerSeason, r.PerYear}
}

// BuildReport normalizes the characters, joins them to episodes and locations and
// computes the aggregate views.
func BuildReport(dataset rickmorty.Dataset) (Report, error) {
	characters, err := NormalizeCharacters(dataset.Characters)
	if err != nil {
		return Report{}, err
	}
	joined := Join(characters, dataset.Episodes, dataset.Locations)

	return Report{
		Characters:  characters,
		Joined:      joined,
		Appearances: AppearancesPerCharacter(characters, TopN),
		PerLocation: CharactersPerLocation(characters, TopN),
		PerSeason:   CharactersPerSeason(joined),
		PerYear:     EpisodesPerYear(dataset.Episodes),
	}, nil
}
