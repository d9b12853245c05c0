package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const googleBooksBase = "https://www.googleapis.com/books/v1/volumes"

// ErrNoVolume is returned when the lookup service knows no book for an ISBN.
var ErrNoVolume = errors.New("no volume found")

type googleBooksVolumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Subtitle            string   `json:"subtitle"`
			Authors             []string `json:"authors"`
			Publisher           string   `json:"publisher"`
			Description         string   `json:"description"`
			PageCount           int      `json:"pageCount"`
			Categories          []string `json:"categories"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// BookMetadata is what a lookup can fill in on a submitted book.
type BookMetadata struct {
	Title       string
	Author      string
	Publisher   string
	ISBN        string
	PageCount   int
	CoverURL    string
	Description string
	Category    string
}

// MetadataClient looks books up on the Google Books volumes API.
type MetadataClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewMetadataClient uses a short timeout so a slow lookup cannot hold up a submission.
func NewMetadataClient() *MetadataClient {
	return &MetadataClient{BaseURL: googleBooksBase, HTTP: &http.Client{Timeout: 15 * time.Second}}
}

// NormalizeISBN drops spaces and hyphens.
func NormalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(strings.TrimSpace(isbn), "-", "")
	return strings.ReplaceAll(isbn, " ", "")
}

func (c *MetadataClient) ByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("isbn is required")
	}
	q := url.Values{}
	q.Set("q", "isbn:"+isbn)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned %d", resp.StatusCode)
	}
	var data googleBooksVolumesResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	if data.TotalItems == 0 || len(data.Items) == 0 {
		return nil, fmt.Errorf("isbn %s: %w", isbn, ErrNoVolume)
	}
	vi := data.Items[0].VolumeInfo
	meta := &BookMetadata{
		Title:       vi.Title,
		Author:      strings.Join(vi.Authors, ", "),
		Publisher:   vi.Publisher,
		PageCount:   vi.PageCount,
		ISBN:        isbn,
		Description: strings.TrimSpace(vi.Description),
	}
	if vi.Subtitle != "" {
		meta.Title = meta.Title + ": " + vi.Subtitle
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" || id.Type == "ISBN_10" {
			meta.ISBN = id.Identifier
			break
		}
	}
	if len(vi.Categories) > 0 {
		meta.Category = vi.Categories[0]
	}
	// Google's own image links often sit behind a captcha
	meta.CoverURL = openLibraryCoverURL(meta.ISBN)
	return meta, nil
}

func openLibraryCoverURL(isbn string) string {
	clean := NormalizeISBN(isbn)
	if clean == "" {
		return ""
	}
	return "https://covers.openlibrary.org/b/isbn/" + url.PathEscape(clean) + "-L.jpg"
}
