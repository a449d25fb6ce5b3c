package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"lojinha/models"
	"lojinha/pkg/logger"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"Camiseta Azul", "Camiseta Azul", 100},
		{"camiseta azul", "Camiseta AZUL", 100},
		{"Camiseta", "Camiseta Azul Marinho", 100},
		{"Camiseta Azul", "Camiseta Vermelha", 50},
		{"Tenis", "Camiseta", 0},
		{"", "Camiseta", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Similarity(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestMatchProductsRankedBestFirst(t *testing.T) {
	products := []models.Product{
		{Model: gorm.Model{ID: 1}, Name: "Camiseta Azul"},
		{Model: gorm.Model{ID: 2}, Name: "Camiseta Vermelha Estampada"},
		{Model: gorm.Model{ID: 3}, Name: "Tenis Branco"},
	}

	matches := MatchProducts("Camiseta Azul", products)
	require.Len(t, matches, 2, "zero scores are dropped")
	assert.Equal(t, uint(1), matches[0].Product.ID)
	assert.Equal(t, 100, matches[0].Score)
	assert.Equal(t, uint(2), matches[1].Product.ID)
}

func TestExtractItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"name":"Camiseta","quantity":2,"unitPrice":39.9,"description":"azul"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "secret", logger.NewNop())
	items, err := c.ExtractItems(context.Background(), "aW1hZ2U=")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Camiseta", items[0].Name)
	assert.Equal(t, 2, items[0].Quantity)
	assert.InDelta(t, 39.9, items[0].UnitPrice, 1e-9)
}

func TestExtractItemsNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "", logger.NewNop())
	_, err := c.ExtractItems(context.Background(), "aW1hZ2U=")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusPaymentRequired, ErrQuotaExceeded},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		c := NewClient(srv.URL, srv.URL, "", logger.NewNop())
		_, err := c.ExtractItems(context.Background(), "aW1hZ2U=")
		assert.ErrorIs(t, err, tt.wantErr)
		srv.Close()
	}
}

func TestGenericFailureIsNotSpecial(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "", logger.NewNop())
	_, err := c.ExtractItems(context.Background(), "aW1hZ2U=")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.NotErrorIs(t, err, ErrQuotaExceeded)
}

func TestTryOn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"image":"Z2VuZXJhdGVk"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, "", logger.NewNop())
	image, err := c.TryOn(context.Background(), "dXNlcg==", "cHJvZHVjdA==", "vista a camiseta")
	require.NoError(t, err)
	assert.Equal(t, "Z2VuZXJhdGVk", image)
}
