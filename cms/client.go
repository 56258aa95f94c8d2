package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"tour-importer/config"
)

// Client is a thin HTTP client for the content store. It knows exactly two
// operations the pipeline needs: uploading a binary image asset and creating
// one document through the mutation endpoint.
type Client struct {
	projectID string
	dataset   string
	token     string
	baseURL   string
	http      *http.Client
}

const apiVersion = "v2021-10-21"

func NewClient(projectID, dataset, token string) *Client {
	baseURL := os.Getenv("CMS_API_BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", projectID)
	}

	return &Client{
		projectID: projectID,
		dataset:   dataset,
		token:     token,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(baseURL, dataset, token string) *Client {
	c := NewClient("", dataset, token)
	c.baseURL = baseURL
	return c
}

type assetResponse struct {
	Document struct {
		ID string `json:"_id"`
	} `json:"document"`
}

// UploadImageAsset uploads one encoded image and returns the store's opaque
// asset identifier.
func (c *Client) UploadImageAsset(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/assets/images/%s?filename=%s",
		c.baseURL, apiVersion, c.dataset, url.QueryEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mimeType)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("asset upload %s: status=%d body=%s", filename, resp.StatusCode, string(b))
	}

	var out assetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Document.ID == "" {
		return "", fmt.Errorf("asset upload %s: response carried no asset id", filename)
	}

	config.Logger.Infof("uploaded asset %s (%d bytes, %s) in %s", out.Document.ID, len(data), filename, time.Since(start).Round(time.Millisecond))
	return out.Document.ID, nil
}

type mutateRequest struct {
	Mutations []map[string]any `json:"mutations"`
}

type mutateResponse struct {
	TransactionID string `json:"transactionId"`
	Results       []struct {
		ID string `json:"id"`
	} `json:"results"`
}

// CreateDocument commits one document and returns its identifier.
func (c *Client) CreateDocument(ctx context.Context, doc map[string]any) (string, error) {
	body, err := json.Marshal(mutateRequest{
		Mutations: []map[string]any{{"create": doc}},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/data/mutate/%s?returnIds=true", c.baseURL, apiVersion, c.dataset)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("document create: status=%d body=%s", resp.StatusCode, string(b))
	}

	var out mutateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Results) == 0 || out.Results[0].ID == "" {
		return "", fmt.Errorf("document create: response carried no document id")
	}

	config.Logger.Infof("created document %s in %s", out.Results[0].ID, time.Since(start).Round(time.Millisecond))
	return out.Results[0].ID, nil
}
