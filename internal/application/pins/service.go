package pins

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const pinataBaseURL = "https://api.pinata.cloud"

// PinataClient defines what we need from the pinning API.
type PinataClient interface {
	PinJSON(ctx context.Context, name string, content interface{}) (string, error)
	PinFile(ctx context.Context, fileName string, data []byte) (string, error)
}

// HTTPClient is a PinataClient backed by the Pinata HTTP API.
type HTTPClient struct {
	BaseURL   string
	APIKey    string
	SecretKey string
	Client    *http.Client
}

type pinataPinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func (c *HTTPClient) base() string {
	if c.BaseURL == "" {
		return pinataBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *HTTPClient) do(req *http.Request) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if c.APIKey == "" || c.SecretKey == "" {
		return "", fmt.Errorf("pinata: PINATA_API_KEY / PINATA_SECRET_API_KEY are not set")
	}
	req.Header.Set("pinata_api_key", c.APIKey)
	req.Header.Set("pinata_secret_api_key", c.SecretKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinata error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data pinataPinResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("pinata response decode: %w", err)
	}
	if data.IpfsHash == "" {
		return "", fmt.Errorf("pinata returned no hash, body: %s", string(respBody))
	}
	return data.IpfsHash, nil
}

func (c *HTTPClient) PinJSON(ctx context.Context, name string, content interface{}) (string, error) {
	bodyBytes, err := json.Marshal(map[string]interface{}{
		"pinataMetadata": map[string]interface{}{"name": name},
		"pinataContent":  content,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/pinning/pinJSONToIPFS", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *HTTPClient) PinFile(ctx context.Context, fileName string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base()+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// Service encapsulates IPFS pinning for quality reports and lot metadata.
type Service struct {
	Client  PinataClient
	Gateway string
}

// PinResult matches the shape the dashboard expects after a pin.
type PinResult struct {
	IpfsHash   string `json:"ipfs_hash"`
	IpfsURI    string `json:"ipfs_uri"`
	GatewayURL string `json:"gateway_url"`
}

func (s *Service) result(hash string) *PinResult {
	gateway := strings.TrimRight(s.Gateway, "/")
	if gateway == "" {
		gateway = "https://gateway.pinata.cloud"
	}
	if !strings.Contains(gateway, "://") {
		gateway = "https://" + gateway
	}
	return &PinResult{
		IpfsHash:   hash,
		IpfsURI:    "ipfs://" + hash,
		GatewayURL: fmt.Sprintf("%s/ipfs/%s", gateway, hash),
	}
}

// PinQualityReport pins an uploaded quality report file and returns its hash.
func (s *Service) PinQualityReport(ctx context.Context, lotCode, fileName string, data []byte) (*PinResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("pinata: empty file")
	}
	name := fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), lotCode, fileName)
	hash, err := s.Client.PinFile(ctx, name, data)
	if err != nil {
		return nil, err
	}
	return s.result(hash), nil
}

// PinLotMetadata pins a metadata document so its ipfs:// URI can be used as a
// token URI at mint time.
func (s *Service) PinLotMetadata(ctx context.Context, lotCode string, content interface{}) (*PinResult, error) {
	name := fmt.Sprintf("%s-metadata", lotCode)
	hash, err := s.Client.PinJSON(ctx, name, content)
	if err != nil {
		return nil, err
	}
	return s.result(hash), nil
}
