package rxnorm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zojatech/healthmate/backend/pkg/config"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&config.RxNormConfig{BaseURL: baseURL, Timeout: 2 * time.Second})
}

func TestSearch_ExactMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rxcui.json", r.URL.Path)
		assert.Equal(t, "lisinopril", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"idGroup":{"rxnormId":["104375"]}}`))
	}))
	defer server.Close()

	concept, err := newTestClient(server.URL).Search(context.Background(), "lisinopril")

	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "104375", concept.RxCUI)
	assert.Equal(t, "lisinopril", concept.Name)
	assert.NotEmpty(t, concept.Raw)
}

func TestSearch_ApproximateFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rxcui.json":
			w.Write([]byte(`{"idGroup":{}}`))
		case "/approximateTerm.json":
			assert.Equal(t, "lisinoprill", r.URL.Query().Get("term"))
			w.Write([]byte(`{"approximateGroup":{"candidate":[{"rxcui":"104375"}]}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	concept, err := newTestClient(server.URL).Search(context.Background(), "lisinoprill")

	require.NoError(t, err)
	require.NotNil(t, concept)
	assert.Equal(t, "104375", concept.RxCUI)
}

func TestSearch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rxcui.json":
			w.Write([]byte(`{"idGroup":{}}`))
		case "/approximateTerm.json":
			w.Write([]byte(`{"approximateGroup":{"candidate":[]}}`))
		}
	}))
	defer server.Close()

	concept, err := newTestClient(server.URL).Search(context.Background(), "notadrug")

	require.NoError(t, err)
	assert.Nil(t, concept)
}

func TestSearch_EmptyName(t *testing.T) {
	concept, err := newTestClient("http://127.0.0.1:1").Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, concept)
}

func TestCheckInteractions_MapsPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/interaction/list.json", r.URL.Path)
		assert.Equal(t, "104375 5640", r.URL.Query().Get("rxcuis"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"fullInteractionTypeGroup": [{
				"fullInteractionType": [{
					"interactionPair": [{
						"severity": "moderate",
						"description": "NSAIDs may diminish the antihypertensive effect",
						"interactionConcept": [
							{"minConceptItem": {"name": "lisinopril"}},
							{"minConceptItem": {"name": "ibuprofen"}}
						]
					}]
				}]
			}]
		}`))
	}))
	defer server.Close()

	interactions, err := newTestClient(server.URL).CheckInteractions(context.Background(), []string{"104375", "5640"})

	require.NoError(t, err)
	require.Len(t, interactions, 1)
	assert.Equal(t, "moderate", interactions[0].Severity)
	assert.Equal(t, "lisinopril", interactions[0].Drug1)
	assert.Equal(t, "ibuprofen", interactions[0].Drug2)
}

func TestCheckInteractions_TooFewIdentifiers(t *testing.T) {
	interactions, err := newTestClient("http://127.0.0.1:1").CheckInteractions(context.Background(), []string{"104375"})
	require.NoError(t, err)
	assert.Empty(t, interactions)
}

func TestCheckInteractions_UpstreamFailureReadsAsNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	interactions, err := newTestClient(server.URL).CheckInteractions(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Empty(t, interactions)
}

func TestCheckInteractions_NonJSONReadsAsNone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	interactions, err := newTestClient(server.URL).CheckInteractions(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Empty(t, interactions)
}
