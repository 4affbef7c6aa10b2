package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactStoreRoundTrip(t *testing.T) {
	artifacts := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := r.URL.Path[len("/artifacts/"):]
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			artifacts[ref] = string(body)
			w.WriteHeader(http.StatusNoContent)
		case http.MethodGet:
			text, ok := artifacts[ref]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			io.WriteString(w, text)
		}
	}))
	defer srv.Close()

	store := NewArtifactStore(srv.URL, 5*time.Second)
	ctx := context.Background()

	csv := "vin,year\n1HGBH41JXMN109186,2021\n"
	require.NoError(t, store.Put(ctx, "session-1.csv", csv))
	// Saving the same text twice stores the same artifact.
	require.NoError(t, store.Put(ctx, "session-1.csv", csv))

	got, err := store.Get(ctx, "session-1.csv")
	require.NoError(t, err)
	assert.Equal(t, csv, got)
}

func TestArtifactStoreGetMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	store := NewArtifactStore(srv.URL, 5*time.Second)
	_, err := store.Get(context.Background(), "nope")
	assert.ErrorContains(t, err, "status 404")
}
