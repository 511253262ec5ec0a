package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL points at the Google Books volumes API the frontend searched
// directly before the lookup moved server-side.
const DefaultBaseURL = "https://www.googleapis.com/books/v1"

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient() *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description"`
	PublishedDate string   `json:"published_date"`
	Thumbnail     string   `json:"thumbnail"`
}

type volume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title         string   `json:"title"`
		Authors       []string `json:"authors"`
		Description   string   `json:"description"`
		PublishedDate string   `json:"publishedDate"`
		ImageLinks    struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
	} `json:"volumeInfo"`
}

func (v *volume) toBook() Book {
	return Book{
		ID:            v.ID,
		Title:         v.VolumeInfo.Title,
		Authors:       v.VolumeInfo.Authors,
		Description:   v.VolumeInfo.Description,
		PublishedDate: v.VolumeInfo.PublishedDate,
		Thumbnail:     v.VolumeInfo.ImageLinks.Thumbnail,
	}
}

func (c *Client) Search(ctx context.Context, query string, startIndex, maxResults int) (int64, []Book, error) {
	u := fmt.Sprintf("%s/volumes?q=%s&startIndex=%d&maxResults=%d",
		c.BaseURL, url.QueryEscape(query), startIndex, maxResults)

	var resp struct {
		TotalItems int64    `json:"totalItems"`
		Items      []volume `json:"items"`
	}
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return 0, nil, err
	}

	books := make([]Book, len(resp.Items))
	for i := range resp.Items {
		books[i] = resp.Items[i].toBook()
	}
	return resp.TotalItems, books, nil
}

func (c *Client) Get(ctx context.Context, id string) (*Book, error) {
	var v volume
	if err := c.getJSON(ctx, fmt.Sprintf("%s/volumes/%s", c.BaseURL, url.PathEscape(id)), &v); err != nil {
		return nil, err
	}
	book := v.toBook()
	return &book, nil
}

var ErrNotFound = fmt.Errorf("catalog: volume not found")

func (c *Client) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: unexpected status %s", res.Status)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode: %w", err)
	}
	return nil
}
