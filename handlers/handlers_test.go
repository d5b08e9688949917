// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/danielhkuo/poll-rooms/broadcast"
	"github.com/danielhkuo/poll-rooms/cliparse"
	"github.com/danielhkuo/poll-rooms/coordinator"
	"github.com/danielhkuo/poll-rooms/models"
	"github.com/danielhkuo/poll-rooms/store"
	"github.com/danielhkuo/poll-rooms/testutil"
)

// testEnv wires the handlers the way the router does, without rate limiting
type testEnv struct {
	cfg     cliparse.Config
	store   store.Store
	hub     *broadcast.Hub
	reg     *coordinator.Registry
	sockets *SocketHandler
	mux     *http.ServeMux
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemoryStore())
}

func newTestEnvWithStore(t *testing.T, s store.Store) *testEnv {
	t.Helper()

	cfg := testutil.GetTestConfig()
	hub := broadcast.NewHub()
	reg := coordinator.New(s, hub, coordinator.Config{Timeout: cfg.VoteTimeout, Retention: cfg.Retention})

	e := &testEnv{
		cfg:     cfg,
		store:   s,
		hub:     hub,
		reg:     reg,
		sockets: NewSocketHandler(hub, s, reg),
		mux:     http.NewServeMux(),
	}

	polls := NewPollHandler(s, reg, cfg)
	voting := NewVotingHandler(s, reg, cfg)
	e.mux.HandleFunc("POST /api/polls", polls.CreatePoll)
	e.mux.HandleFunc("GET /api/polls/{token}", polls.GetPoll)
	e.mux.HandleFunc("GET /api/polls/{token}/results", polls.GetResults)
	e.mux.HandleFunc("DELETE /api/polls/{id}", polls.DeactivatePoll)
	e.mux.HandleFunc("POST /api/polls/{token}/vote", voting.CastVote)
	e.mux.HandleFunc("GET /ws", e.sockets.Serve)

	return e
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

// createPoll creates a poll through the API and returns the response
func (e *testEnv) createPoll(t *testing.T, question string, options ...string) models.CreatePollResponse {
	t.Helper()

	w := e.do(testutil.MakeRequest("POST", "/api/polls", models.CreatePollRequest{
		Question: question,
		Options:  options,
	}, nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create poll: %d %s", w.Code, w.Body.String())
	}

	var resp models.CreatePollResponse
	testutil.AssertJSON(t, w, &resp)
	return resp
}

// vote casts a vote from the given client IP; fingerprint may be empty
func (e *testEnv) vote(token, ip string, optionIndex int, fingerprint string) *httptest.ResponseRecorder {
	return e.do(testutil.MakeRequest("POST", "/api/polls/"+token+"/vote",
		models.CastVoteRequest{OptionIndex: &optionIndex, Fingerprint: fingerprint},
		map[string]string{"X-Forwarded-For": ip}))
}

func clientIP(i int) string {
	return "10.0." + strconv.Itoa(i/256) + "." + strconv.Itoa(i%256)
}
