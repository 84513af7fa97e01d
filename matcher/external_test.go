package matcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kishu/model"
)

func TestExternalClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "花火", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": 7, "sis_code": "S007", "name": "花火", "matchStage": 3}`)
	}))
	defer srv.Close()

	c := NewExternalClient(srv.URL)
	got, err := c.Search(context.Background(), "花火")

	require.NoError(t, err)
	assert.Equal(t, model.MatchStageFuzzy, got.MatchStage)
	assert.Equal(t, int64(7), got.NameCollectionID)
	assert.Equal(t, "S007", got.SisCode)
	assert.Equal(t, "花火", got.CanonicalName)
}

func TestExternalClientSearchNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": null, "sis_code": null, "name": null, "matchStage": 4}`)
	}))
	defer srv.Close()

	c := NewExternalClient(srv.URL)
	got, err := c.Search(context.Background(), "知らない機種")

	require.NoError(t, err)
	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
	assert.Zero(t, got.NameCollectionID)
	assert.Empty(t, got.SisCode)
}

func TestExternalClientSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewExternalClient(srv.URL)
	_, err := c.Search(context.Background(), "花火")

	assert.Error(t, err)
}
