package application

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"rickmorty-etl/internal/components/telemetry"
	"rickmorty-etl/internal/scrapers/rickmorty"
	"rickmorty-etl/internal/transform"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
)

// endpoint -> pages, a page past the end answers 404 like the public api
var apiPages = map[string][]string{
	"character": {
		`{"id":1,"name":"Rick Sanchez","status":"Alive","species":"Human","gender":"Male",
		  "location":{"name":"Citadel of Ricks","url":"https://rickandmortyapi.com/api/location/3"},
		  "episode":["https://rickandmortyapi.com/api/episode/1","https://rickandmortyapi.com/api/episode/12"]},
		 {"id":2,"name":"Morty Smith","status":"Alive","species":"Human","gender":"Male",
		  "location":{"name":"Citadel of Ricks","url":"https://rickandmortyapi.com/api/location/3"},
		  "episode":["https://rickandmortyapi.com/api/episode/1"]}`,
		`{"id":3,"name":"Summer Smith","status":"Alive","species":"Human","gender":"Female",
		  "location":null,
		  "episode":["https://rickandmortyapi.com/api/episode/12"]}`,
	},
	"episode": {
		`{"id":1,"name":"Pilot","air_date":"December 2, 2013","episode":"S01E01"},
		 {"id":12,"name":"A Rickle in Time","air_date":"July 26, 2015","episode":"S02E01"}`,
	},
	"location": {
		`{"id":3,"name":"Citadel of Ricks","type":"Space station","dimension":"unknown"}`,
	},
}

func serveApi(t *testing.T, pages map[string][]string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api"), "/")
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		endpointPages, ok := pages[endpoint]
		if !ok || page > len(endpointPages) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"There is nothing here"}`)
			return
		}
		fmt.Fprintf(w, `{"info":{},"results":[%s]}`, endpointPages[page-1])
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, baseUrl string) Config {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Api.BaseUrl = baseUrl
	cfg.Api.RequestsPerSecond = 0
	cfg.Api.RetryCount = 0
	cfg.Output = OutputConfig{
		Dir:      filepath.Join(dir, "results"),
		Workbook: filepath.Join(dir, "results.xlsx"),
		Sqlite:   filepath.Join(dir, "results.db"),
	}
	return cfg
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestPipelineRun(t *testing.T) {
	server := serveApi(t, apiPages)
	cfg := testConfig(t, server.URL+"/api")

	cfg.Output.ColorCharts = true

	chartOut := &bytes.Buffer{}
	pipeline, closeSinks, err := Open(cfg, chartOut, telemetry.SlogAPI{})
	require.NoError(t, err)

	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, closeSinks())

	require.Equal(t, 3, summary.Characters)
	require.Equal(t, 2, summary.Episodes)
	require.Equal(t, 1, summary.Locations)
	require.Equal(t, 4, summary.CharacterRows)
	require.Equal(t, 3, summary.JoinedRows)
	require.Equal(t, []string{
		JoinedTableName,
		"appearances_in_episodes",
		"characters_per_location",
		"characters_per_season",
		"episodes_per_year",
	}, summary.Tables)

	expected := map[string][][]string{
		JoinedTableName: {
			transform.JoinedColumns,
			{"Rick Sanchez", "Alive", "Human", "Male", "Citadel of Ricks", "Space station", "unknown", "S01E01", "December 2, 2013"},
			{"Rick Sanchez", "Alive", "Human", "Male", "Citadel of Ricks", "Space station", "unknown", "S02E01", "July 26, 2015"},
			{"Morty Smith", "Alive", "Human", "Male", "Citadel of Ricks", "Space station", "unknown", "S01E01", "December 2, 2013"},
		},
		"appearances_in_episodes": {
			{"Name", "Appearances in episodes"},
			{"Rick Sanchez", "2"},
			{"Morty Smith", "1"},
			{"Summer Smith", "1"},
		},
		"characters_per_location": {
			{"Location", "Characters"},
			{"Citadel of Ricks", "2"},
			{"", "1"},
		},
		"characters_per_season": {
			{"Season", "Characters"},
			{"S01", "2"},
			{"S02", "1"},
		},
		"episodes_per_year": {
			{"Year", "Episodes"},
			{"2015", "1"},
			{"2013", "1"},
		},
	}
	for name, records := range expected {
		got := readCSV(t, filepath.Join(cfg.Output.Dir, name+".csv"))
		if diff := cmp.Diff(records, got); diff != "" {
			t.Errorf("%s (-want +got):\n%s", name, diff)
		}
	}

	workbook, err := excelize.OpenFile(cfg.Output.Workbook)
	require.NoError(t, err)
	defer workbook.Close()
	require.Equal(t, summary.Tables, workbook.GetSheetList())

	db, err := sql.Open("sqlite", cfg.Output.Sqlite)
	require.NoError(t, err)
	defer db.Close()
	var seasons int
	err = db.QueryRow(`SELECT count(*) FROM "characters_per_season"`).Scan(&seasons)
	require.NoError(t, err)
	require.Equal(t, 2, seasons)

	charts := chartOut.String()
	for _, title := range []string{
		"TOP 5 characters appearances",
		"TOP 5 inhabited locations",
		"Characters per season",
		"Episodes per year",
	} {
		require.Contains(t, charts, title)
	}
	require.Contains(t, charts, nullChartLabel)
	require.Contains(t, charts, "\x1b[")
}

func TestPipelineDisableCharts(t *testing.T) {
	server := serveApi(t, apiPages)
	cfg := testConfig(t, server.URL+"/api")
	cfg.Output.Workbook = ""
	cfg.Output.Sqlite = ""
	cfg.Output.DisableCharts = true

	chartOut := &bytes.Buffer{}
	pipeline, closeSinks, err := Open(cfg, chartOut, telemetry.SlogAPI{})
	require.NoError(t, err)
	_, err = pipeline.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, closeSinks())

	require.Empty(t, chartOut.String())
	require.FileExists(t, filepath.Join(cfg.Output.Dir, "episodes_per_year.csv"))
	require.NoFileExists(t, cfg.Output.Sqlite)
}

func TestPipelineFailures(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)

	badEpisode := map[string][]string{
		"character": {`{"id":7,"name":"Abradolf Lincler","location":null,"episode":["https://rickandmortyapi.com/api/episode/abc"]}`},
		"episode":   apiPages["episode"],
		"location":  apiPages["location"],
	}
	brokenPage := map[string][]string{
		"character": apiPages["character"],
		"episode":   {`{"id":1,`},
		"location":  apiPages["location"],
	}

	testCases := []struct {
		name  string
		pages map[string][]string
		// defaults to /api
		basePath string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "wrong base url",
			pages:    apiPages,
			basePath: "/wrong",
			check: func(t *testing.T, err error) {
				var fetchErr *rickmorty.FetchError
				require.True(t, errors.As(err, &fetchErr))
				require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
				require.Equal(t, 1, fetchErr.Page)
			},
		},
		{
			name:  "bad episode url",
			pages: badEpisode,
			check: func(t *testing.T, err error) {
				var parseErr *transform.ParseError
				require.True(t, errors.As(err, &parseErr))
				require.Equal(t, 7, parseErr.CharacterID)
			},
		},
		{
			name:  "malformed page",
			pages: brokenPage,
			check: func(t *testing.T, err error) {
				var parseErr *rickmorty.ParseError
				require.True(t, errors.As(err, &parseErr))
				require.Equal(t, rickmorty.EndpointEpisode, parseErr.Endpoint)
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			basePath := test.basePath
			if basePath == "" {
				basePath = "/api"
			}
			server := serveApi(t, test.pages)
			cfg := testConfig(t, server.URL+basePath)

			pipeline, closeSinks, err := Open(cfg, nil, telemetry.SlogAPI{})
			require.NoError(t, err)

			_, err = pipeline.Run(context.Background())
			require.Error(t, err)
			test.check(t, err)
			require.NoError(t, closeSinks())

			// nothing is written when the run fails before the tables are built
			require.NoDirExists(t, cfg.Output.Dir)
			require.NoFileExists(t, cfg.Output.Workbook)
			require.NoFileExists(t, cfg.Output.Sqlite)
		})
	}
}
