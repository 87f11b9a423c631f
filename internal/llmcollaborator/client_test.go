package llmcollaborator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"github.com/specialistvlad/branchtalk/internal/collaborator"
	"github.com/specialistvlad/branchtalk/internal/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves chat completions with a fixed content and records requests.
type fakeAPI struct {
	content  string
	status   int
	finish   openai.FinishReason
	calls    atomic.Int32
	lastBody openai.ChatCompletionRequest
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
		return
	}
	finish := f.finish
	if finish == "" {
		finish = openai.FinishReasonStop
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:     "cmpl-1",
		Object: "chat.completion",
		Model:  DefaultModel,
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content},
			FinishReason: finish,
		}},
	})
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/v1/chat/completions", api)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "test", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second, CoolDown: time.Minute})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGenerateTree(t *testing.T) {
	api := &fakeAPI{content: `{"nodes":[{"id":"r","turn":0,"kind":"user","parents":[]},{"id":"a","turn":1,"kind":"ai","parents":["r"]}]}`}
	c := newTestClient(t, api)

	got, err := c.GenerateTree(context.Background(), collaborator.TreeRequest{
		Primary:   "We are planning a trip.",
		Secondary: map[string]string{"notes": "prefers trains"},
		Config:    collaborator.GenerationConfig{MaxTurns: 4, Branches: 3, Goals: 1},
	})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"r"}, got[1].ParentIDs())

	require.Len(t, api.lastBody.Messages, 2)
	assert.Equal(t, DefaultModel, api.lastBody.Model)
	require.NotNil(t, api.lastBody.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, api.lastBody.ResponseFormat.Type)
	assert.Contains(t, api.lastBody.Messages[1].Content, "We are planning a trip.")
	assert.Contains(t, api.lastBody.Messages[1].Content, "prefers trains")
	assert.Contains(t, api.lastBody.Messages[1].Content, "up to 4 turns, 3 branches")
}

func TestProposeTransactions(t *testing.T) {
	api := &fakeAPI{content: `{"transactions":[{"type":"prune_branch","targetPattern":"plane"}]}`}
	c := newTestClient(t, api)

	ops, err := c.ProposeTransactions(context.Background(), collaborator.DiffRequest{
		Graph:     collaborator.Projection{{ID: "r", Label: "trip", Parents: []string{}}},
		Content:   "no flying",
		ChannelID: "notes",
	})

	require.NoError(t, err)
	assert.Equal(t, []txn.Operation{txn.PruneBranch{Pattern: "plane"}}, ops)
	assert.Contains(t, api.lastBody.Messages[1].Content, `"id":"r"`)
	assert.Contains(t, api.lastBody.Messages[1].Content, `channel "notes"`)
}

func TestMalformedContentIsFormatError(t *testing.T) {
	c := newTestClient(t, &fakeAPI{content: "I would rather not."})

	_, err := c.GenerateTree(context.Background(), collaborator.TreeRequest{Primary: "x"})

	var fe *collaborator.FormatError
	require.ErrorAs(t, err, &fe)
}

func TestTruncatedContentIsFormatError(t *testing.T) {
	c := newTestClient(t, &fakeAPI{content: `{"nodes":[`, finish: openai.FinishReasonLength})

	_, err := c.GenerateTree(context.Background(), collaborator.TreeRequest{Primary: "x"})

	var fe *collaborator.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Error(), "truncated")
}

func TestServerErrorIsTransportErrorAndTripsBreaker(t *testing.T) {
	api := &fakeAPI{status: http.StatusInternalServerError}
	c := newTestClient(t, api)
	ctx := context.Background()

	for range 3 {
		_, err := c.GenerateTree(ctx, collaborator.TreeRequest{Primary: "x"})
		var te *collaborator.TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, collaborator.OpGenerateTree, te.Op)
	}
	callsBeforeOpen := api.calls.Load()

	_, err := c.GenerateTree(ctx, collaborator.TreeRequest{Primary: "x"})
	var te *collaborator.TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState), "breaker should reject without calling the API")
	assert.Equal(t, callsBeforeOpen, api.calls.Load())
}
