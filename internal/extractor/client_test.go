package extractor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/notesync/notesync/internal/errors"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fastRetries() ClientOption {
	return WithRetryConfig(3, time.Millisecond, 5*time.Millisecond)
}

func TestFetchNotesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/notes", r.URL.Path)
		assert.Equal(t, "user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "Bearer source-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"notes": [
			{"id": "note-1", "title": "First", "body": "hello", "labels": ["work"],
			 "modified_at": "2026-08-01T10:00:00Z"},
			{"id": "note-2", "title": "Second",
			 "images": [{"id": "img-1", "url": "https://storage.example/img-1.png"}]}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "source-token", testLogger(), fastRetries())
	notes, err := client.FetchNotes(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "note-1", notes[0].ID)
	assert.Equal(t, []string{"work"}, notes[0].Labels)
	assert.Equal(t, 2026, notes[0].ModifiedAt.Year())
	require.Len(t, notes[1].Images, 1)
	assert.Equal(t, "img-1", notes[1].Images[0].ID)
}

func TestFetchNotesSendsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "25", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"notes": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "source-token", testLogger(), fastRetries(), WithNoteLimit(25))
	notes, err := client.FetchNotes(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestFetchNotesUnauthorizedNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "bad-token", testLogger(), fastRetries())
	_, err := client.FetchNotes(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchNotesRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"notes": [{"id": "note-1"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "source-token", testLogger(), fastRetries())
	notes, err := client.FetchNotes(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchNotesExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "source-token", testLogger(), fastRetries())
	_, err := client.FetchNotes(context.Background(), "user-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchNotesUnexpectedStatusNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	client := NewClient(server.URL, "source-token", testLogger(), fastRetries())
	_, err := client.FetchNotes(context.Background(), "user-1")
	require.Error(t, err)
	assert.False(t, apperrors.IsUnavailable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
