// Package gemini talks to the Google generative language API. It is the
// only piece of the system that leaves the Mercadona domain: receipt and
// nutrition-label images go in, structured JSON comes back.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mercapi/mercapi-backend/pkg/config"
	apierrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

type Client struct {
	cfg     config.GeminiConfig
	http    *http.Client
	logg    *logger.Logger
	baseURL string
}

// Option tweaks a Client. Tests swap the base URL and transport.
type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(cfg config.GeminiConfig, logg *logger.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: 60 * time.Second},
		logg:    logg,
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Number is a nutrition value exactly as the model returned it. The
// prompt demands bare numbers, but models still emit strings with units
// ("12.5 g") now and then; decoding keeps both forms so callers can
// clean them up without losing information.
type Number struct {
	Valid    bool
	IsString bool
	Num      float64
	Str      string
}

func (n *Number) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*n = Number{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number{Valid: true, IsString: true, Str: s}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number{Valid: true, Num: f}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	if n.IsString {
		return json.Marshal(n.Str)
	}
	return json.Marshal(n.Num)
}

// Nutrition mirrors the per-100g table on a product label. Values the
// model could not read come back invalid and stay unknown through the
// pipeline.
type Nutrition struct {
	Calories           Number `json:"calories"`
	TotalFat           Number `json:"total_fat"`
	SaturatedFat       Number `json:"saturated_fat"`
	PolyunsaturatedFat Number `json:"polyunsaturated_fat"`
	MonounsaturatedFat Number `json:"monounsaturated_fat"`
	TransFat           Number `json:"trans_fat"`
	TotalCarbohydrate  Number `json:"total_carbohydrate"`
	DietaryFiber       Number `json:"dietary_fiber"`
	TotalSugars        Number `json:"total_sugars"`
	Protein            Number `json:"protein"`
	Salt               Number `json:"salt"`
}

type TicketItem struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity"`
	TotalPrice *float64 `json:"total_price"`
	UnitPrice  *float64 `json:"unit_price"`
}

type Ticket struct {
	TicketNumber *int64       `json:"ticket_number"`
	Date         *string      `json:"date"`
	Time         *string      `json:"time"`
	TotalPrice   *float64     `json:"total_price"`
	Items        []TicketItem `json:"items"`
}

// ExtractNutrition reads a nutrition-label photo and returns the table.
func (c *Client) ExtractNutrition(ctx context.Context, imagePath string) (*Nutrition, error) {
	raw, err := c.generateFromImage(ctx, c.cfg.VisionModel, imagePath, nutritionPrompt)
	if err != nil {
		return nil, err
	}
	var out Nutrition
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, apierrors.Wrap(apierrors.CodeDependency, err, "parsing nutrition response")
	}
	return &out, nil
}

// ExtractTicket reads a receipt photo and returns the purchased items.
func (c *Client) ExtractTicket(ctx context.Context, imagePath string) (*Ticket, error) {
	raw, err := c.generateFromImage(ctx, c.cfg.VisionModel, imagePath, ticketPrompt)
	if err != nil {
		return nil, err
	}
	var out Ticket
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, apierrors.Wrap(apierrors.CodeDependency, err, "parsing ticket response")
	}
	if len(out.Items) == 0 {
		return nil, apierrors.New(apierrors.CodeDependency, "no items found in extracted ticket")
	}
	return &out, nil
}

// EstimateNutrition asks the text model for typical per-100g values when
// no readable label image exists. Product metadata is all the model gets.
func (c *Client) EstimateNutrition(ctx context.Context, name, description, category string) (*Nutrition, error) {
	prompt := fmt.Sprintf("%s\n\nProduct details:\nName: %s\nDescription: %s\nCategory: %s",
		estimationPrompt, name, description, category)
	raw, err := c.generateContent(ctx, c.cfg.TextModel, []part{{Text: prompt}})
	if err != nil {
		return nil, err
	}
	var out Nutrition
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return nil, apierrors.Wrap(apierrors.CodeDependency, err, "parsing estimation response")
	}
	return &out, nil
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

func (c *Client) generateFromImage(ctx context.Context, model, imagePath, prompt string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", apierrors.Wrap(apierrors.CodeInternal, err, "reading image")
	}
	img := &inlineData{
		MimeType: mimeTypeFor(imagePath),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
	return c.generateContent(ctx, model, []part{{InlineData: img}, {Text: prompt}})
}

func (c *Client) generateContent(ctx context.Context, model string, parts []part) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", apierrors.New(apierrors.CodeDependency, "gemini api key not configured")
	}

	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": parts},
		},
		"generationConfig": map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": 2048,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", apierrors.Wrap(apierrors.CodeInternal, err, "encoding gemini request")
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", apierrors.Wrap(apierrors.CodeInternal, err, "building gemini request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", apierrors.Wrap(apierrors.CodeDependency, err, "calling gemini")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierrors.Wrap(apierrors.CodeDependency, err, "reading gemini response")
	}
	if c.logg != nil {
		c.logg.Debug(c.logg.WithFields(ctx, map[string]any{
			"model":       model,
			"status":      resp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}), "gemini generateContent")
	}
	if resp.StatusCode != http.StatusOK {
		return "", apierrors.New(apierrors.CodeDependency,
			fmt.Sprintf("gemini api returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", apierrors.Wrap(apierrors.CodeDependency, err, "decoding gemini response")
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", apierrors.New(apierrors.CodeDependency, "empty gemini response")
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}

// stripFences removes a ```json ... ``` wrapper the model sometimes adds
// despite being told to return bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func mimeTypeFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return "image/png"
	}
	return "image/jpeg"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
