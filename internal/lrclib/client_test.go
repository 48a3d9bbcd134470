package lrclib

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{"syncedLyrics":"[00:10.00]Hi"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/", ClientID: "test-client"})
	res, err := c.Get(t.Context(), Query{
		Artist:   "Daft Punk",
		Title:    "One More Time",
		Album:    "Discovery",
		Duration: 320*time.Second + 400*time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, res.HasSyncedLyrics())

	require.NotNil(t, got)
	assert.Equal(t, "/get", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "Daft Punk", q.Get("artist_name"))
	assert.Equal(t, "One More Time", q.Get("track_name"))
	assert.Equal(t, "Discovery", q.Get("album_name"))
	assert.Equal(t, "320", q.Get("duration"))
	assert.Equal(t, "test-client", got.Header.Get("Lrclib-Client"))
}

func TestGet_OptionalParamsOmitted(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _ = New(Config{BaseURL: srv.URL}).Get(t.Context(), Query{Artist: "A", Title: "T"})

	assert.NotContains(t, query, "album_name")
	assert.NotContains(t, query, "duration")
}

func TestGet_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
		synced string
	}{
		{
			name:   "synced",
			status: http.StatusOK,
			body:   `{"syncedLyrics":"[00:10.00]Hi\n[00:15.50]There"}`,
			synced: "[00:10.00]Hi\n[00:15.50]There",
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "empty synced field",
			status: http.StatusOK,
			body:   `{"plainLyrics":"words","syncedLyrics":""}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "absent synced field",
			status: http.StatusOK,
			body:   `{"id":1}`,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "empty body",
			status: http.StatusOK,
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "oops",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, http.StatusInternalServerError, se.Code)
			},
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"syncedLyrics":`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				assert.True(t, errors.As(err, &pe))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			synced, err := New(Config{BaseURL: srv.URL}).Synced(t.Context(), Query{Artist: "A", Title: "T"})
			if tt.check != nil {
				require.Error(t, err)
				tt.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.synced, synced)
		})
	}
}

func TestGet_DownloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url}).Get(t.Context(), Query{Artist: "A", Title: "T"})

	var de *DownloadError
	assert.True(t, errors.As(err, &de), "err = %v, want DownloadError", err)
}

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "one more time", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"id":1,"trackName":"One More Time","syncedLyrics":"[00:01.00]x"},{"id":2}]`))
	}))
	defer srv.Close()

	res, err := New(Config{BaseURL: srv.URL}).Search(t.Context(), "one more time")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.True(t, res[0].HasSyncedLyrics())
	assert.False(t, res[1].HasSyncedLyrics())
}
