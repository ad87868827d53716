package pins

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakePinata(t *testing.T, hash string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("pinata_api_key") == "" || r.Header.Get("pinata_secret_api_key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/pinning/pinJSONToIPFS", "/pinning/pinFileToIPFS":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"IpfsHash":  hash,
				"PinSize":   1234,
				"Timestamp": "2024-06-15T00:00:00Z",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestPinQualityReport(t *testing.T) {
	srv := fakePinata(t, "QmTestHash123")
	defer srv.Close()

	s := &Service{
		Client:  &HTTPClient{BaseURL: srv.URL, APIKey: "key", SecretKey: "secret"},
		Gateway: "my-gateway.example",
	}

	res, err := s.PinQualityReport(context.Background(), "HUILA-2024-001", "report.pdf", []byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "QmTestHash123", res.IpfsHash)
	assert.Equal(t, "ipfs://QmTestHash123", res.IpfsURI)
	assert.Equal(t, "https://my-gateway.example/ipfs/QmTestHash123", res.GatewayURL)
}

func TestPinQualityReport_EmptyFile(t *testing.T) {
	s := &Service{Client: &HTTPClient{APIKey: "key", SecretKey: "secret"}}
	_, err := s.PinQualityReport(context.Background(), "HUILA-2024-001", "report.pdf", nil)
	assert.Error(t, err)
}

func TestPinLotMetadata(t *testing.T) {
	srv := fakePinata(t, "QmMetaHash456")
	defer srv.Close()

	s := &Service{Client: &HTTPClient{BaseURL: srv.URL, APIKey: "key", SecretKey: "secret"}}
	res, err := s.PinLotMetadata(context.Background(), "HUILA-2024-001", map[string]string{"name": "Coffee Lot HUILA-2024-001"})
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmMetaHash456", res.IpfsURI)
	assert.True(t, strings.HasPrefix(res.GatewayURL, "https://gateway.pinata.cloud/ipfs/"))
}

func TestHTTPClient_MissingCredentials(t *testing.T) {
	c := &HTTPClient{}
	_, err := c.PinJSON(context.Background(), "x", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PINATA_API_KEY")
}

func TestHTTPClient_SendsMultipartFile(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"IpfsHash": "QmFile"})
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, APIKey: "key", SecretKey: "secret"}
	hash, err := c.PinFile(context.Background(), "report.pdf", []byte("contents"))
	require.NoError(t, err)
	assert.Equal(t, "QmFile", hash)
	assert.Contains(t, gotContentType, "multipart/form-data")
	assert.Contains(t, string(gotBody), "report.pdf")
	assert.Contains(t, string(gotBody), "contents")
}

func TestHTTPClient_ErrorStatusSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, APIKey: "key", SecretKey: "secret"}
	_, err := c.PinJSON(context.Background(), "x", map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}
