package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIURL     = "https://api.pinata.cloud"
	defaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"

	// Values shipped in .env.example; treated the same as empty credentials.
	placeholderAPIKey    = "your_pinata_api_key"
	placeholderSecretKey = "your_pinata_secret_key"
)

// Pinner pins content to the IPFS network and returns a content hash plus a
// gateway retrieval URL.
type Pinner interface {
	PinFile(ctx context.Context, filePath, fileName string) (*PinResult, error)
	PinJSON(ctx context.Context, content any, name string) (*PinResult, error)
}

// PinResult describes a pinned (or locally stored) piece of content.
type PinResult struct {
	IPFSHash  string `json:"ipfsHash"`
	IPFSURL   string `json:"ipfsUrl"`
	PinSize   int64  `json:"pinSize,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Pinned    bool   `json:"isPinataUpload"`
}

// PinningServiceError carries the upstream status and message of a failed
// pinning call. Callers decide whether to degrade to local storage.
type PinningServiceError struct {
	StatusCode int
	Message    string
}

func (e *PinningServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("pinning service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pinning service error: %s", e.Message)
}

// PinataConfig configures the Pinata client.
type PinataConfig struct {
	APIKey     string
	SecretKey  string
	APIURL     string
	GatewayURL string
	Timeout    time.Duration
}

// PinataClient talks to the Pinata pinning API. When credentials are absent
// or still set to the .env.example placeholders it never touches the network
// and synthesizes local placeholder hashes instead.
type PinataClient struct {
	apiKey     string
	secretKey  string
	apiURL     string
	gatewayURL string
	httpClient *http.Client
}

// NewPinataClient creates a Pinata client.
func NewPinataClient(cfg PinataConfig) *PinataClient {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = defaultGatewayURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &PinataClient{
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		gatewayURL: cfg.GatewayURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether real Pinata credentials are present.
func (c *PinataClient) Configured() bool {
	if c.apiKey == "" || c.apiKey == placeholderAPIKey {
		return false
	}
	if c.secretKey == "" || c.secretKey == placeholderSecretKey {
		return false
	}
	return true
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
	Error     any    `json:"error"`
}

// PinFile pins a file from the local uploads directory.
func (c *PinataClient) PinFile(ctx context.Context, filePath, fileName string) (*PinResult, error) {
	if !c.Configured() {
		return c.localResult("/uploads/" + filepath.Base(filePath)), nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	metadata, _ := json.Marshal(map[string]any{
		"name": "BlueCarbon_" + fileName,
		"keyvalues": map[string]string{
			"project":    "BlueCarbon-MRV",
			"type":       "field-photo",
			"uploadedAt": time.Now().UTC().Format(time.RFC3339),
		},
	})
	_ = mw.WriteField("pinataMetadata", string(metadata))

	options, _ := json.Marshal(map[string]any{"cidVersion": 1})
	_ = mw.WriteField("pinataOptions", string(options))

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	return c.post(ctx, "/pinning/pinFileToIPFS", &body, mw.FormDataContentType())
}

// PinJSON pins an arbitrary JSON document under the given pin name.
func (c *PinataClient) PinJSON(ctx context.Context, content any, name string) (*PinResult, error) {
	if !c.Configured() {
		res := c.localResult("")
		res.IPFSURL = c.gatewayURL + res.IPFSHash
		return res, nil
	}

	payload, err := json.Marshal(map[string]any{
		"pinataContent":  content,
		"pinataMetadata": map[string]string{"name": name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode pin content: %w", err)
	}

	return c.post(ctx, "/pinning/pinJSONToIPFS", bytes.NewReader(payload), "application/json")
}

func (c *PinataClient) post(ctx context.Context, path string, body io.Reader, contentType string) (*PinResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build pin request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &PinningServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &PinningServiceError{StatusCode: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &PinningServiceError{StatusCode: resp.StatusCode, Message: upstreamMessage(raw)}
	}

	var parsed pinataResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.IpfsHash == "" {
		return nil, &PinningServiceError{StatusCode: resp.StatusCode, Message: "malformed pinning response"}
	}

	return &PinResult{
		IPFSHash:  parsed.IpfsHash,
		IPFSURL:   c.gatewayURL + parsed.IpfsHash,
		PinSize:   parsed.PinSize,
		Timestamp: parsed.Timestamp,
		Pinned:    true,
	}, nil
}

func upstreamMessage(raw []byte) string {
	var decoded struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil {
		return fmt.Sprintf("%v", decoded.Error)
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		return "request rejected"
	}
	return msg
}

// localResult synthesizes a placeholder hash so the rest of the pipeline
// keeps working without Pinata credentials.
func (c *PinataClient) localResult(retrievalURL string) *PinResult {
	hash := "Qm" + strconv.FormatInt(time.Now().UnixMilli(), 36) + randomBase36(20)
	return &PinResult{
		IPFSHash:  hash,
		IPFSURL:   retrievalURL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Pinned:    false,
	}
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(base36[rand.Intn(len(base36))])
	}
	return sb.String()
}
