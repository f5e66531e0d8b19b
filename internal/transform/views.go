package transform

import (
	"regexp"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"strconv"
)

// TopN is how many groups the truncated views keep.
const TopN = 5

// View is a named aggregate ready to be written as a table or drawn as a chart.
type View struct {
	// file stem of the table, ex. appearances_in_episodes
	Name        string
	Title       string
	KeyColumn   string
	CountColumn string
	Counts      []Count
}

func (v View) Header() []string {
	return []string{v.KeyColumn, v.CountColumn}
}

// Records returns one row per group, the null group has an empty key cell.
func (v View) Records() [][]string {
	records := make([][]string, len(v.Counts))
	for i, c := range v.Counts {
		records[i] = []string{c.Group.String(), strconv.Itoa(c.Count)}
	}
	return records
}

// AppearancesPerCharacter counts the distinct episodes of each character name.
// Ties are broken by name.
func AppearancesPerCharacter(rows []CharacterRow, limit int) View {
	return View{
		Name:        "appearances_in_episodes",
		Title:       "TOP 5 characters appearances",
		KeyColumn:   "Name",
		CountColumn: "Appearances in episodes",
		Counts: Aggregate(rows, Aggregation[CharacterRow, int]{
			Key:      func(r CharacterRow) Group { return Label(r.Name) },
			Distinct: func(r CharacterRow) int { return r.Episode },
			Order:    CountDescending,
			Limit:    limit,
		}),
	}
}

// CharactersPerLocation counts the distinct character names seen at each location.
// Characters with an absent location are counted under the null group.
func CharactersPerLocation(rows []CharacterRow, limit int) View {
	return View{
		Name:        "characters_per_location",
		Title:       "TOP 5 inhabited locations",
		KeyColumn:   "Location",
		CountColumn: "Characters",
		Counts: Aggregate(rows, Aggregation[CharacterRow, string]{
			Key: func(r CharacterRow) Group {
				name, ok := r.Location.Name()
				if !ok {
					return NullGroup
				}
				return Label(name)
			},
			Distinct: func(r CharacterRow) string { return r.Name },
			Order:    CountDescending,
			Limit:    limit,
		}),
	}
}

// CharactersPerSeason counts the distinct character names appearing in each season.
func CharactersPerSeason(rows []JoinedRow) View {
	return View{
		Name:        "characters_per_season",
		Title:       "Characters per season",
		KeyColumn:   "Season",
		CountColumn: "Characters",
		Counts: Aggregate(rows, Aggregation[JoinedRow, string]{
			Key:      func(r JoinedRow) Group { return Season(r.Episode) },
			Distinct: func(r JoinedRow) string { return r.Name },
			Order:    LabelAscending,
		}),
	}
}

// EpisodesPerYear counts the distinct episodes aired in each year, latest first.
func EpisodesPerYear(episodes []rickmorty.Episode) View {
	return View{
		Name:        "episodes_per_year",
		Title:       "Episodes per year",
		KeyColumn:   "Year",
		CountColumn: "Episodes",
		Counts: Aggregate(episodes, Aggregation[rickmorty.Episode, int]{
			Key:      func(e rickmorty.Episode) Group { return AirYear(e.AirDate) },
			Distinct: func(e rickmorty.Episode) int { return e.ID },
			Order:    LabelDescending,
		}),
	}
}

// Season is the first 3 characters of an episode code, S03E07 -> S03.
func Season(code string) Group {
	if code == "" {
		return NullGroup
	}
	runes := []rune(code)
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return Label(string(runes))
}

var airYearRegex = regexp.MustCompile(`, (\d{4})`)

// AirYear extracts the year of a free-form air date, "December 2, 2013" -> 2013.
func AirYear(airDate string) Group {
	groups := airYearRegex.FindStringSubmatch(airDate)
	if len(groups) < 2 {
		return NullGroup
	}
	return Label(groups[1])
}
