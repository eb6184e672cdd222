package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"nexus-capture/internal/domain"
)

// notionTitleLimit is the number of characters kept in the page title.
const notionTitleLimit = 100

// NotionSink creates one page per capture in a Notion database.
type NotionSink struct {
	apiURL  string
	version string
	client  *http.Client
	logger  domain.Logger
}

func NewNotionSink(apiURL, version string, client *http.Client, logger domain.Logger) *NotionSink {
	if client == nil {
		client = &http.Client{}
	}
	return &NotionSink{
		apiURL:  apiURL,
		version: version,
		client:  client,
		logger:  logger,
	}
}

func (s *NotionSink) Name() string {
	return domain.SinkNotion
}

// Ready requires Notion to be enabled and both credentials to be set.
func (s *NotionSink) Ready(settings domain.Settings) bool {
	return settings.IsNotionEnabled() && settings.HasNotionCredentials()
}

type notionText struct {
	Content string `json:"content"`
}

type notionRichText struct {
	Text notionText `json:"text"`
}

type notionParent struct {
	DatabaseID string `json:"database_id"`
}

type notionPageRequest struct {
	Parent     notionParent           `json:"parent"`
	Properties map[string]interface{} `json:"properties"`
}

// buildNotionPage maps a capture onto the fixed database schema.
func buildNotionPage(capture *domain.Capture, databaseID string) notionPageRequest {
	var source interface{}
	if capture.Source != "" {
		source = capture.Source
	}

	return notionPageRequest{
		Parent: notionParent{DatabaseID: databaseID},
		Properties: map[string]interface{}{
			"Name": map[string]interface{}{
				"title": []notionRichText{{Text: notionText{Content: truncateRunes(capture.Content, notionTitleLimit)}}},
			},
			"Content": map[string]interface{}{
				"rich_text": []notionRichText{{Text: notionText{Content: capture.Content}}},
			},
			"Category": map[string]interface{}{
				"select": map[string]string{"name": capture.Category.Capitalized()},
			},
			"Source": map[string]interface{}{
				"url": source,
			},
			"Source Title": map[string]interface{}{
				"rich_text": []notionRichText{{Text: notionText{Content: capture.SourceTitle}}},
			},
			"Captured": map[string]interface{}{
				"date": map[string]string{"start": capture.Timestamp},
			},
		},
	}
}

// truncateRunes keeps the first limit characters of s and marks the cut with "...".
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Attempt creates the page and returns Notion's page object.
func (s *NotionSink) Attempt(ctx context.Context, capture *domain.Capture, settings domain.Settings) (json.RawMessage, error) {
	body, err := json.Marshal(buildNotionPage(capture, settings.NotionDatabaseID))
	if err != nil {
		return nil, fmt.Errorf("failed to encode notion page: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+"/pages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+settings.NotionToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", s.version)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, notionError(resp)
	}

	payload, err := readJSONBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Notion response: %w", err)
	}

	s.logger.Debug("Capture sent to Notion", "capture_id", capture.ID, "status", resp.StatusCode)
	return payload, nil
}

// notionError prefers the message Notion puts in its error body.
func notionError(resp *http.Response) error {
	var apiErr struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return errors.New(apiErr.Message)
	}
	return fmt.Errorf("Notion API error: %d", resp.StatusCode)
}
