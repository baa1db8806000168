package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/revisitor/internal/api"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
)

func TestRunQueue(t *testing.T) {
	var mu sync.Mutex
	var reviewed []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		reviewed = append(reviewed, strings.TrimPrefix(r.URL.Path, "/api/review/"))
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(models.ReviewProgress{Level: 1, MaxLevel: 4})
	}))
	defer srv.Close()

	views := []api.NoteView{
		{Note: &nostr.Event{ID: strings.Repeat("a", 64), Content: "first"}},
		{Note: &nostr.Event{ID: strings.Repeat("b", 64), Content: "second"}},
	}
	o := &options{server: srv.URL, plain: true}
	var out bytes.Buffer

	// skip to the second note, review it, then review the first
	err := runQueue(context.Background(), o, views, strings.NewReader("s\nr\nr\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("b", 64), strings.Repeat("a", 64)}, reviewed)
	assert.Contains(t, out.String(), "Note 1 of 2 (50%)")
	assert.Contains(t, out.String(), "Note 2 of 2 (100%)")
	assert.Contains(t, out.String(), "All caught up!")
}

func TestRunQueueQuit(t *testing.T) {
	views := []api.NoteView{{Note: &nostr.Event{ID: strings.Repeat("c", 64), Content: "only"}}}
	var out bytes.Buffer
	err := runQueue(context.Background(), &options{plain: true}, views, strings.NewReader("q\n"), &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "All caught up!")
}

func TestToastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.Toast{Title: "Login Required", Description: "User not logged in", Variant: models.VariantDestructive})
	}))
	defer srv.Close()

	err := newAPIClient(srv.URL).call(context.Background(), http.MethodGet, "/api/notes", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, isStatus(err, http.StatusUnauthorized))
	assert.Equal(t, "Login Required: User not logged in (HTTP 401)", err.Error())
}

func TestPrintNoteShortID(t *testing.T) {
	o := &options{plain: true}
	for _, id := range []string{"abc", "", strings.Repeat("f", 64)} {
		var out bytes.Buffer
		assert.NotPanics(t, func() {
			printNote(&out, o, api.NoteView{Note: &nostr.Event{ID: id, Content: "hi"}, TimeAgo: "just now"})
		})
		assert.True(t, strings.HasPrefix(out.String(), shortID(id)+"  just now"), out.String())
	}
	assert.Equal(t, "ffffffffffff", shortID(strings.Repeat("f", 64)))
}
