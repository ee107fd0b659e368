package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkravets/telescan/internal/store"
	"github.com/mkravets/telescan/pkg/ingest"
	"github.com/mkravets/telescan/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRunner struct {
	report *ingest.RunReport
	err    error
}

func (s *stubRunner) Run(ctx context.Context, sourceID string) (*ingest.RunReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.report != nil {
		return s.report, nil
	}
	return &ingest.RunReport{SourceID: sourceID}, nil
}

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []float32{0.6, 0.8}, nil
}

func newTestServer(t *testing.T, runner Runner, emb *stubEmbedder) (*Server, *store.SQLiteStore) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st, runner, emb, 0, nil), st
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestEmbed(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodPost, "/embed", `{"text":"привет"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Embedding []float32 `json:"embedding"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []float32{0.6, 0.8}, resp.Embedding)
}

func TestEmbedRejectsEmptyText(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodPost, "/embed", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmbedFailure(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{err: assert.AnError})

	rec := doRequest(t, s, http.MethodPost, "/embed", `{"text":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIngestRun(t *testing.T) {
	runner := &stubRunner{report: &ingest.RunReport{SourceID: "src-1", Fetched: 2, Inserted: 2}}
	s, _ := newTestServer(t, runner, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodPost, "/ingest/run", `{"source_id":"src-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string           `json:"status"`
		Report ingest.RunReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Report.Inserted)
}

func TestIngestRunUnknownSource(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("%w: src-x", ingest.ErrSourceNotFound)}
	s, _ := newTestServer(t, runner, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodPost, "/ingest/run", `{"source_id":"src-x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestRunRequiresSourceID(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodPost, "/ingest/run", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestRunMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, &stubRunner{}, &stubEmbedder{})

	rec := doRequest(t, s, http.MethodGet, "/ingest/run", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIngestStatus(t *testing.T) {
	s, st := newTestServer(t, &stubRunner{}, &stubEmbedder{})
	ctx := context.Background()

	require.NoError(t, st.AddSource(ctx, &store.Source{
		ID: "src-1", Kind: source.KindTelegram, Address: "@town", Active: true,
	}))
	require.NoError(t, st.AdvanceCheckpoint(ctx, "src-1", 42))

	rec := doRequest(t, s, http.MethodGet, "/ingest/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sources []struct {
			SourceID   string `json:"source_id"`
			Checkpoint int64  `json:"checkpoint"`
			Active     bool   `json:"active"`
		} `json:"sources"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "src-1", resp.Sources[0].SourceID)
	assert.Equal(t, int64(42), resp.Sources[0].Checkpoint)
	assert.True(t, resp.Sources[0].Active)
}
