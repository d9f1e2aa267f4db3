package hltb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backlog/internal/config"
	"backlog/internal/hltb"
	"backlog/internal/logging"
)

func newTestClient(t *testing.T, server *httptest.Server, maxRetries int) *hltb.Client {
	t.Helper()
	cfg := config.Default().HLTB
	cfg.BaseURL = server.URL
	cfg.MaxRetries = maxRetries
	cfg.BackoffMinSec = 0
	cfg.BackoffMaxSec = 0
	cfg.RateLimitPerSec = 0
	return hltb.NewClient(cfg, logging.NewNop())
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name  string
		query hltb.Query
		want  string
	}{
		{"full", hltb.Query{TitleNorm: "chrono trigger", Year: 1995, Family: "nintendo"}, "chrono trigger|1995|nintendo"},
		{"no year", hltb.Query{TitleNorm: "tetris", Family: "pc"}, "tetris|0|pc"},
		{"no family", hltb.Query{TitleNorm: "tetris", Year: 1989}, "tetris|1989|"},
		{"title only", hltb.Query{TitleNorm: "tetris"}, "tetris|0|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Key())
		})
	}
}

func TestSearchParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{
			"game_id": 4064,
			"game_name": "Hollow Knight",
			"profile_platform": "PC, Nintendo Switch",
			"release_world": 2017,
			"comp_main": 95400,
			"comp_plus": 145800,
			"comp_100": 223200,
			"comp_all_count": 5200
		}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	resp, err := client.Search(context.Background(), "hollow knight")
	require.NoError(t, err)
	require.Len(t, resp.Candidates, 1)

	candidate := resp.Candidates[0]
	assert.Equal(t, int64(4064), candidate.ID)
	assert.Equal(t, "Hollow Knight", candidate.Title)
	assert.Equal(t, []string{"PC", "Nintendo Switch"}, candidate.Platforms)
	assert.Equal(t, 2017, candidate.Year)
	assert.Equal(t, 26.5, candidate.Main)
	assert.Equal(t, 40.5, candidate.MainExtra)
	assert.Equal(t, 62.0, candidate.Complete)
	assert.Equal(t, 5200, candidate.Votes)
	assert.Contains(t, resp.RawJSON, "Hollow Knight")
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 0)
	resp, err := client.Search(context.Background(), "no such game")
	require.NoError(t, err)
	assert.Empty(t, resp.Candidates)
}

func TestSearchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, 3)
	_, err := client.Search(context.Background(), "flaky")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2)
	_, err := client.Search(context.Background(), "throttled")
	require.ErrorIs(t, err, hltb.ErrUnavailable)
}

func TestSearchRejectedStatusIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server, 5)
	_, err := client.Search(context.Background(), "blocked")
	require.Error(t, err)
	assert.NotErrorIs(t, err, hltb.ErrUnavailable)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses other than 429 must not be retried")
}
