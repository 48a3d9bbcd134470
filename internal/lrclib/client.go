// Package lrclib provides a client for the lrclib.net lyrics API.
package lrclib

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the API has no lyrics for the query. It is
// an expected outcome, not a failure.
var ErrNotFound = errors.New("lyrics not found")

const (
	DefaultBaseURL  = "https://lrclib.net/api"
	DefaultClientID = "singalong v1.0"
	DefaultTimeout  = 15 * time.Second

	userAgent    = "singalong/1.0 (https://github.com/llehouerou/singalong)"
	maxBodyBytes = 4 << 20
)

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// DownloadError wraps network and I/O failures talking to the API.
type DownloadError struct {
	Err error
}

func (e *DownloadError) Error() string { return "download lyrics: " + e.Err.Error() }

func (e *DownloadError) Unwrap() error { return e.Err }

// ParseError wraps a response body that is not the expected JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse lyrics response: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Config configures a Client. Zero fields take the defaults.
type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// Client is an lrclib.net API client.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
}

// New creates a new lrclib client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Query identifies a track. Album and Duration are optional.
type Query struct {
	Artist   string
	Title    string
	Album    string
	Duration time.Duration
}

// LyricsResult represents the response from the lrclib API.
type LyricsResult struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// HasSyncedLyrics returns true if the result contains synced (LRC) lyrics.
func (r *LyricsResult) HasSyncedLyrics() bool {
	return strings.TrimSpace(r.SyncedLyrics) != ""
}

// HasPlainLyrics returns true if the result contains plain text lyrics.
func (r *LyricsResult) HasPlainLyrics() bool {
	return strings.TrimSpace(r.PlainLyrics) != ""
}

// Get fetches the lyrics record for q.
//
// A 404 or an empty 2xx body yields ErrNotFound. Other non-2xx statuses
// yield a *StatusError, transport failures a *DownloadError and malformed
// JSON a *ParseError.
func (c *Client) Get(ctx context.Context, q Query) (*LyricsResult, error) {
	params := url.Values{}
	params.Set("artist_name", q.Artist)
	params.Set("track_name", q.Title)
	if q.Album != "" {
		params.Set("album_name", q.Album)
	}
	if q.Duration > 0 {
		params.Set("duration", strconv.Itoa(int(q.Duration.Round(time.Second)/time.Second)))
	}

	body, err := c.fetch(ctx, "/get", params)
	if err != nil {
		return nil, err
	}

	var result LyricsResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &result, nil
}

// Synced returns only the synced lyrics text for q. A record without
// synced lyrics yields ErrNotFound.
func (c *Client) Synced(ctx context.Context, q Query) (string, error) {
	r, err := c.Get(ctx, q)
	if err != nil {
		return "", err
	}
	if !r.HasSyncedLyrics() {
		return "", ErrNotFound
	}
	return r.SyncedLyrics, nil
}

// Search searches for lyrics matching a free-text query.
func (c *Client) Search(ctx context.Context, query string) ([]LyricsResult, error) {
	params := url.Values{}
	params.Set("q", query)

	body, err := c.fetch(ctx, "/search", params)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var results []LyricsResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, &ParseError{Err: err}
	}
	return results, nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Lrclib-Client", c.clientID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DownloadError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &DownloadError{Err: err}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrNotFound
	}
	return body, nil
}
