package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinJSONWithoutCredentials(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{APIURL: srv.URL})

	res, err := client.PinJSON(context.Background(), map[string]string{"hello": "world"}, "test-pin")
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^Qm[0-9a-z]+$`), res.IPFSHash)
	assert.False(t, res.Pinned)
	assert.Contains(t, res.IPFSURL, res.IPFSHash)
	assert.EqualValues(t, 0, atomic.LoadInt64(&calls), "placeholder mode must not call the network")
}

func TestPinJSONPlaceholderCredentials(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{
		APIKey:    "your_pinata_api_key",
		SecretKey: "your_pinata_secret_key",
		APIURL:    srv.URL,
	})

	res, err := client.PinJSON(context.Background(), map[string]int{"n": 1}, "test-pin")
	require.NoError(t, err)
	assert.False(t, res.Pinned)
	assert.EqualValues(t, 0, atomic.LoadInt64(&calls))
}

func TestPinJSONSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinJSONToIPFS", r.URL.Path)
		assert.Equal(t, "key-123", r.Header.Get("pinata_api_key"))
		assert.Equal(t, "secret-456", r.Header.Get("pinata_secret_api_key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "pinataContent")
		assert.Contains(t, body, "pinataMetadata")

		json.NewEncoder(w).Encode(map[string]any{
			"IpfsHash":  "QmTestHash123",
			"PinSize":   42,
			"Timestamp": "2026-01-01T00:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{
		APIKey:     "key-123",
		SecretKey:  "secret-456",
		APIURL:     srv.URL,
		GatewayURL: "https://gateway.pinata.cloud/ipfs/",
	})

	res, err := client.PinJSON(context.Background(), map[string]string{"k": "v"}, "snapshot")
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash123", res.IPFSHash)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmTestHash123", res.IPFSURL)
	assert.EqualValues(t, 42, res.PinSize)
	assert.True(t, res.Pinned)
}

func TestPinJSONUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"error": "invalid API key"})
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{
		APIKey:    "bad-key",
		SecretKey: "bad-secret",
		APIURL:    srv.URL,
	})

	_, err := client.PinJSON(context.Background(), map[string]string{}, "snapshot")
	require.Error(t, err)

	var pinErr *PinningServiceError
	require.ErrorAs(t, err, &pinErr)
	assert.Equal(t, http.StatusUnauthorized, pinErr.StatusCode)
	assert.Contains(t, pinErr.Message, "invalid API key")
}

func TestPinFileWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo-abc.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0o644))

	client := NewPinataClient(PinataConfig{})

	res, err := client.PinFile(context.Background(), path, "beach.jpg")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^Qm[0-9a-z]+$`), res.IPFSHash)
	assert.Equal(t, "/uploads/photo-abc.jpg", res.IPFSURL)
	assert.False(t, res.Pinned)
}

func TestPinFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "beach.jpg", header.Filename)
		assert.Contains(t, r.FormValue("pinataMetadata"), "BlueCarbon_beach.jpg")

		json.NewEncoder(w).Encode(map[string]any{"IpfsHash": "QmFilePin", "PinSize": 10})
	}))
	defer srv.Close()

	client := NewPinataClient(PinataConfig{
		APIKey:    "key",
		SecretKey: "secret",
		APIURL:    srv.URL,
	})

	res, err := client.PinFile(context.Background(), path, "beach.jpg")
	require.NoError(t, err)
	assert.Equal(t, "QmFilePin", res.IPFSHash)
	assert.True(t, res.Pinned)
}
