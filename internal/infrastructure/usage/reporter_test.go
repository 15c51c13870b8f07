package usage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bna-labs/bna-gateway/internal/domain/provider"
)

func TestRecordPostsPayload(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rep := NewReporter(server.URL)
	err := rep.Record(context.Background(), Record{
		RequestID:      "req-1",
		Token:          "tok-abc",
		Provider:       provider.Anthropic,
		TeamSlug:       "acme",
		DeploymentName: "happy-otter-123",
		LastMessage:    "build me an app",
		InputTokens:    100,
		OutputTokens:   50,
		TotalTokens:    150,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/bna/record_usage", gotPath)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "Anthropic", gotBody["provider"])
	assert.Equal(t, "acme", gotBody["teamSlug"])
	assert.Equal(t, "req-1", gotBody["requestId"])
	assert.EqualValues(t, 150, gotBody["totalTokens"])
	assert.NotEmpty(t, gotBody["reportId"])
}

func TestRecordNonOKIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	rep := NewReporter(server.URL)
	err := rep.Record(context.Background(), Record{Token: "t"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNewReporterDefaultHost(t *testing.T) {
	rep := NewReporter("")
	assert.Equal(t, DefaultProvisionHost, rep.host)
}
