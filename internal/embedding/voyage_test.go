package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func voyageTestServer(t *testing.T, dimension int, status int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		var req voyageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := voyageResponse{}
		for i := range req.Input {
			emb := make([]float32, dimension)
			for j := range emb {
				emb[j] = float32(i + j)
			}
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: emb, Index: i})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestVoyageClientRequiresKey(t *testing.T) {
	_, err := NewVoyageClient("", "", 0)
	assert.Error(t, err)
}

func TestVoyageClientDefaults(t *testing.T) {
	c, err := NewVoyageClient("test-key", "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultVoyageModel, c.Model())
	assert.Equal(t, DefaultVoyageDimension, c.Dimension())
}

func TestVoyageEmbed(t *testing.T) {
	srv := voyageTestServer(t, 4, http.StatusOK)
	defer srv.Close()

	c, err := NewVoyageClient("test-key", "voyage-3", 4)
	require.NoError(t, err)
	c.endpoint = srv.URL

	emb, err := c.Embed(context.Background(), "SELECT * FROM users")
	require.NoError(t, err)
	assert.Len(t, emb, 4)
}

func TestVoyageEmbedBatchPreservesOrder(t *testing.T) {
	srv := voyageTestServer(t, 4, http.StatusOK)
	defer srv.Close()

	c, err := NewVoyageClient("test-key", "voyage-3", 4)
	require.NoError(t, err)
	c.endpoint = srv.URL

	embs, err := c.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, embs, 3)
	assert.Equal(t, float32(0), embs[0][0])
	assert.Equal(t, float32(2), embs[2][0])
}

func TestVoyageEmbedBatchEmpty(t *testing.T) {
	c, err := NewVoyageClient("test-key", "", 0)
	require.NoError(t, err)

	embs, err := c.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, embs)
}

func TestVoyageAPIErrorIsProviderError(t *testing.T) {
	srv := voyageTestServer(t, 4, http.StatusTooManyRequests)
	defer srv.Close()

	c, err := NewVoyageClient("test-key", "voyage-3", 4)
	require.NoError(t, err)
	c.endpoint = srv.URL

	_, err = c.Embed(context.Background(), "SELECT 1")
	require.Error(t, err)

	var pe *ProviderError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, "voyage", pe.Provider)
}

func TestVoyageDimensionMismatch(t *testing.T) {
	srv := voyageTestServer(t, 8, http.StatusOK)
	defer srv.Close()

	c, err := NewVoyageClient("test-key", "voyage-3", 4)
	require.NoError(t, err)
	c.endpoint = srv.URL

	_, err = c.Embed(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "dimension mismatch")
}
