package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarhub/client/api/backend"
	"github.com/scholarhub/client/domain"
	"github.com/scholarhub/client/internal/credstore"
)

func TestListDecodesApplications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/applications/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":1,"scholarship":{"id":42,"title":"Chevening"},"status":"pending","applied_at":"2026-08-01"},
			{"id":2,"scholarship":7,"status":"accepted"}
		]}`))
	}))
	t.Cleanup(server.Close)

	store := credstore.NewMemory()
	require.NoError(t, store.Set(context.Background(), domain.SlotAuthToken, "tok"))
	api := backend.New(backend.Config{BaseURL: server.URL + "/api", Timeout: 5 * time.Second}, store, nil)
	uc := New(api, nil)

	items, err := uc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "pending", items[0].Status)
	require.NotNil(t, items[0].Scholarship.Detail)
	assert.Equal(t, "Chevening", items[0].Scholarship.Detail.Title)
	assert.Equal(t, int64(7), items[1].Scholarship.ID)
}
