package fpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/totw/pkg/config"
	"github.com/wonny/totw/pkg/httputil"
	"github.com/wonny/totw/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func testClient(baseURL string) *Client {
	log := testLogger()
	cfg := config.FPLConfig{BaseURL: baseURL, RequestsPerSecond: 100}
	return NewClient(cfg, httputil.New(log), nil, log)
}

func TestBootstrap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bootstrap-static/", r.URL.Path)
		w.Write([]byte(`{
			"events": [
				{"id": 1, "finished": true, "data_checked": true},
				{"id": 2, "is_next": true}
			],
			"teams": [
				{"id": 3, "name": "Arsenal", "short_name": "ARS",
				 "strength_attack_home": 1350, "strength_attack_away": 1330,
				 "strength_defence_home": 1310, "strength_defence_away": 1290}
			],
			"elements": [
				{"id": 427, "web_name": "Saka", "element_type": 3, "team": 3,
				 "now_cost": 102, "status": "a",
				 "chance_of_playing_next_round": null,
				 "penalties_order": 1,
				 "corners_and_indirect_freekicks_order": 2,
				 "direct_freekicks_order": null}
			]
		}`))
	}))
	defer srv.Close()

	bootstrap, err := testClient(srv.URL).Bootstrap(context.Background())
	require.NoError(t, err)

	require.Len(t, bootstrap.Events, 2)
	assert.True(t, bootstrap.Events[0].Finished)
	assert.True(t, bootstrap.Events[1].IsNext)

	require.Len(t, bootstrap.Teams, 1)
	assert.Equal(t, 1350, bootstrap.Teams[0].StrengthAttackHome)

	require.Len(t, bootstrap.Elements, 1)
	saka := bootstrap.Elements[0]
	assert.Equal(t, "Saka", saka.WebName)
	assert.Equal(t, 102, saka.NowCost)
	assert.Nil(t, saka.ChanceOfPlayingNextRound)
	require.NotNil(t, saka.PenaltiesOrder)
	assert.Equal(t, 1, *saka.PenaltiesOrder)
	assert.Nil(t, saka.DirectFreekicksOrder)
}

func TestEventLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/event/7/live/", r.URL.Path)
		w.Write([]byte(`{
			"elements": [
				{"id": 427, "stats": {
					"minutes": 90, "goals_scored": 1, "assists": 0, "total_points": 9,
					"bonus": 2, "bps": 31,
					"expected_goals": "0.62", "expected_assists": "0.18"
				}}
			]
		}`))
	}))
	defer srv.Close()

	live, err := testClient(srv.URL).EventLive(context.Background(), 7)
	require.NoError(t, err)

	require.Len(t, live.Elements, 1)
	stats := live.Elements[0].Stats
	assert.Equal(t, 90, stats.Minutes)
	assert.Equal(t, 9, stats.TotalPoints)
	assert.Equal(t, "0.62", stats.ExpectedGoals)
}

func TestFixtures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fixtures/", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("event"))
		w.Write([]byte(`[
			{"event": 5, "team_h": 3, "team_a": 11, "team_h_difficulty": 2, "team_a_difficulty": 4}
		]`))
	}))
	defer srv.Close()

	fixtures, err := testClient(srv.URL).Fixtures(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, fixtures, 1)
	assert.Equal(t, 3, fixtures[0].TeamH)
	assert.Equal(t, 4, fixtures[0].TeamADifficulty)
}

func TestDreamTeam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/dream-team/5/", r.URL.Path)
		w.Write([]byte(`{"team": [{"element": 427, "points": 15}]}`))
	}))
	defer srv.Close()

	dt, err := testClient(srv.URL).DreamTeam(context.Background(), 5)
	require.NoError(t, err)

	require.Len(t, dt.Team, 1)
	assert.Equal(t, 427, dt.Team[0].Element)
	assert.Equal(t, 15, dt.Team[0].Points)
}

func TestBootstrap_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Bootstrap(context.Background())
	assert.Error(t, err)
}
