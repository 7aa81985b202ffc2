package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeHandler(t *testing.T) {
	db := initDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := openSession(ctx, db, logger)
	require.NoError(t, err)
	h := serveHandler(ctx, s, logger)

	req := httptest.NewRequest(http.MethodPost, "/tickets/4/buy", strings.NewReader(`{"payment":"0.1ether"}`))
	req.Header.Set("X-Caller", "alice")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"seq":1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "boxoffice_transitions_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	require.NoError(t, s.Close())

	// The purchase was appended to the database.
	out, err := execute(t, "owner", "4", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "alice")
}
