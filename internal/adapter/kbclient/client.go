// Package kbclient pushes documents to the voice agent's knowledge base.
package kbclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/user/restaurant-kb-sync/internal/entity"
)

const addDocumentPath = "/api/elevenlabs/add-document"

var ErrMissingDocumentID = errors.New("knowledge base response has no document id")

// Client implements repository.KnowledgeBasePusher.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

func New(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type addDocumentRequest struct {
	KBID   string `json:"kbId"`
	Text   string `json:"text"`
	Name   string `json:"name"`
	APIKey string `json:"apiKey"`
}

type addDocumentResponse struct {
	DocumentID string `json:"documentId"`
	ID         string `json:"id"`
	Error      string `json:"error"`
}

// Push appends doc to its knowledge base and returns the new document id.
func (c *Client) Push(ctx context.Context, doc *entity.KnowledgeDocument) (string, error) {
	payload, err := json.Marshal(addDocumentRequest{
		KBID:   doc.KnowledgeBaseID,
		Text:   doc.Text,
		Name:   doc.Name,
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addDocumentPath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("knowledge base push failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge base response: %w", err)
	}

	var out addDocumentResponse
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return "", fmt.Errorf("knowledge base returned status %d: %s", resp.StatusCode, msg)
	}

	id := out.DocumentID
	if id == "" {
		id = out.ID
	}
	if id == "" {
		return "", ErrMissingDocumentID
	}

	c.logger.Info("Pushed knowledge document",
		zap.String("kb_id", doc.KnowledgeBaseID),
		zap.String("name", doc.Name),
		zap.String("document_id", id),
	)
	return id, nil
}
