// Package scraper pulls the retailer's public catalog API into local
// storage: categories, then per-category product listings, then product
// detail, under a strict request budget.
package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

// ErrNotFound marks a 404 from the retailer. Callers skip the resource
// instead of failing the run.
var ErrNotFound = errors.New("resource not found")

// CategoryNode is one catalog section as listed by the API.
type CategoryNode struct {
	ID       int64
	Name     string
	ParentID *int64
}

// ImageData is one product photo in all three sizes.
type ImageData struct {
	ZoomURL      string
	RegularURL   string
	ThumbnailURL string
	Perspective  int
}

// ProductDetail is a fully fetched product. Price keeps the wire's
// decimal precision until it is written to storage.
type ProductDetail struct {
	ID               string
	EAN              string
	Slug             string
	Brand            *string
	Name             string
	Price            decimal.Decimal
	Description      *string
	Origin           *string
	Packaging        *string
	UnitName         *string
	UnitSize         *float64
	IsVariableWeight bool
	IsPack           bool
	Images           []ImageData
}

// Client is a rate-limited retailer API client. Transport failures are
// retried three times with a fixed backoff; a 429 waits out the
// retailer's window before counting as a retry.
type Client struct {
	baseURL      string
	http         *http.Client
	limiter      *rate.Limiter
	logg         *logger.Logger
	retryBackoff time.Duration
	wait429      time.Duration
}

func NewClient(cfg config.ScraperConfig, logg *logger.Logger) *Client {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 5
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		http:         &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		logg:         logg,
		retryBackoff: 5 * time.Second,
		wait429:      time.Minute,
	}
}

// Categories lists every section, parents before their children.
func (c *Client) Categories(ctx context.Context) ([]CategoryNode, error) {
	var payload struct {
		Results []struct {
			ID         int64  `json:"id"`
			Name       string `json:"name"`
			Categories []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"categories"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, "/categories/", &payload); err != nil {
		return nil, err
	}

	var out []CategoryNode
	for _, top := range payload.Results {
		parentID := top.ID
		out = append(out, CategoryNode{ID: top.ID, Name: top.Name})
		for _, sub := range top.Categories {
			pid := parentID
			out = append(out, CategoryNode{ID: sub.ID, Name: sub.Name, ParentID: &pid})
		}
	}
	return out, nil
}

// ProductIDs lists the ids of products sold under one category.
func (c *Client) ProductIDs(ctx context.Context, categoryID int64) ([]string, error) {
	var payload struct {
		Categories []struct {
			Products []struct {
				ID string `json:"id"`
			} `json:"products"`
		} `json:"categories"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/categories/%d", categoryID), &payload); err != nil {
		return nil, err
	}

	var ids []string
	for _, sub := range payload.Categories {
		for _, p := range sub.Products {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

type wireProduct struct {
	ID          string  `json:"id"`
	EAN         string  `json:"ean"`
	Slug        string  `json:"slug"`
	Brand       *string `json:"brand"`
	DisplayName string  `json:"display_name"`
	Origin      *string `json:"origin"`
	Packaging   *string `json:"packaging"`
	Details     struct {
		Description *string `json:"description"`
	} `json:"details"`
	IsVariableWeight  bool `json:"is_variable_weight"`
	PriceInstructions struct {
		UnitPrice string   `json:"unit_price"`
		UnitName  *string  `json:"unit_name"`
		UnitSize  *float64 `json:"unit_size"`
		IsPack    bool     `json:"is_pack"`
	} `json:"price_instructions"`
	Photos []struct {
		Zoom        string `json:"zoom"`
		Regular     string `json:"regular"`
		Thumbnail   string `json:"thumbnail"`
		Perspective int    `json:"perspective"`
	} `json:"photos"`
}

// Product fetches one product's detail page.
func (c *Client) Product(ctx context.Context, id string) (*ProductDetail, error) {
	var payload wireProduct
	if err := c.getJSON(ctx, "/products/"+id, &payload); err != nil {
		return nil, err
	}

	price, err := decimal.NewFromString(payload.PriceInstructions.UnitPrice)
	if err != nil {
		return nil, fmt.Errorf("parsing unit price %q for product %s: %w",
			payload.PriceInstructions.UnitPrice, id, err)
	}

	detail := &ProductDetail{
		ID:               payload.ID,
		EAN:              payload.EAN,
		Slug:             payload.Slug,
		Brand:            payload.Brand,
		Name:             payload.DisplayName,
		Price:            price,
		Description:      payload.Details.Description,
		Origin:           payload.Origin,
		Packaging:        payload.Packaging,
		UnitName:         payload.PriceInstructions.UnitName,
		UnitSize:         payload.PriceInstructions.UnitSize,
		IsVariableWeight: payload.IsVariableWeight,
		IsPack:           payload.PriceInstructions.IsPack,
	}
	for _, photo := range payload.Photos {
		detail.Images = append(detail.Images, ImageData{
			ZoomURL:      photo.Zoom,
			RegularURL:   photo.Regular,
			ThumbnailURL: photo.Thumbnail,
			Perspective:  photo.Perspective,
		})
	}
	return detail, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(c.retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "path", path), "resource not found")
			}
			return ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "path", path), "rate limit exceeded, backing off")
			}
			select {
			case <-time.After(c.wait429):
			case <-ctx.Done():
				return ctx.Err()
			}
			return retry.RetryableError(fmt.Errorf("rate limit exceeded for %s", path))
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("server error %d for %s", resp.StatusCode, path))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		return json.Unmarshal(body, out)
	})
}
