package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datingapp/dating-api/internal/client/api"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func png(extra int) []byte {
	return append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, extra)...)
}

// photoServer accepts uploads for user 7 and fails any file whose name
// starts with "bad".
type photoServer struct {
	hits     atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	nextID   atomic.Int64
}

func (s *photoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)
	n := s.inflight.Add(1)
	defer s.inflight.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(s.delay)

	if r.URL.Path != "/api/users/7/photos" || r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"unauthorized"}`)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"missing file"}`)
		return
	}
	defer f.Close()
	if strings.HasPrefix(hdr.Filename, "bad") {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"rejected"}`)
		return
	}
	id := s.nextID.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":          id,
		"url":         fmt.Sprintf("https://cdn.example.com/%s", hdr.Filename),
		"description": r.FormValue("description"),
		"dateAdded":   time.Now().UTC(),
		"isMain":      id == 1,
	})
}

func newTestUploader(t *testing.T, srv *photoServer, opts Options) *Uploader {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return New(api.New(ts.URL, nil), 7, "tok", opts)
}

func TestAdd_Validation(t *testing.T) {
	u := New(api.New("http://unused", nil), 7, "tok", Options{MaxBytes: 64})

	_, err := u.Add("notes.txt", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = u.Add("huge.png", bytes.NewReader(png(100)))
	assert.ErrorIs(t, err, ErrTooLarge)

	it, err := u.Add("ok.png", bytes.NewReader(png(8)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", it.ContentType)
	assert.Equal(t, StateQueued, it.State)
	assert.Len(t, u.Items(), 1)
}

func TestAddFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "me.png")
	require.NoError(t, os.WriteFile(path, png(16), 0o600))
	big := filepath.Join(dir, "big.png")
	require.NoError(t, os.WriteFile(big, png(DefaultMaxBytes), 0o600))

	u := New(api.New("http://unused", nil), 7, "tok", Options{})
	it, err := u.AddFile(path)
	require.NoError(t, err)
	assert.Equal(t, "me.png", it.Name)

	_, err = u.AddFile(big)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadAll_Success(t *testing.T) {
	srv := &photoServer{}
	var succeeded []string
	u := newTestUploader(t, srv, Options{
		OnSuccess: func(item Item, _ Photo) { succeeded = append(succeeded, item.Name) },
	})

	a, err := u.Add("a.png", bytes.NewReader(png(4)))
	require.NoError(t, err)
	require.NoError(t, u.SetDescription(a.ID, "beach"))
	_, err = u.Add("b.png", bytes.NewReader(png(4)))
	require.NoError(t, err)
	assert.Zero(t, srv.hits.Load(), "staging must not upload")

	require.NoError(t, u.UploadAll(context.Background()))

	assert.Empty(t, u.Items())
	photos := u.Photos.All()
	require.Len(t, photos, 2)
	assert.True(t, photos[0].IsMain)
	assert.Equal(t, "beach", photos[0].Description)
	assert.Equal(t, []string{"a.png", "b.png"}, succeeded)
}

func TestUploadAll_FailureStaysQueued(t *testing.T) {
	srv := &photoServer{}
	var failed []Item
	u := newTestUploader(t, srv, Options{
		OnError: func(item Item, _ error) { failed = append(failed, item) },
	})

	bad, err := u.Add("bad.png", bytes.NewReader(png(4)))
	require.NoError(t, err)
	_, err = u.Add("good.png", bytes.NewReader(png(4)))
	require.NoError(t, err)

	err = u.UploadAll(context.Background())
	require.Error(t, err)
	var apiErr *api.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	items := u.Items()
	require.Len(t, items, 1)
	assert.Equal(t, bad.ID, items[0].ID)
	assert.Equal(t, StateFailed, items[0].State)
	require.Len(t, failed, 1)
	assert.Equal(t, 1, u.Photos.Len())

	// no automatic retry
	require.NoError(t, u.UploadAll(context.Background()))
	assert.Equal(t, int32(2), srv.hits.Load())

	require.NoError(t, u.Retry(bad.ID))
	assert.Equal(t, StateQueued, u.Items()[0].State)
	assert.Error(t, u.UploadAll(context.Background()))
	assert.Equal(t, int32(3), srv.hits.Load())
}

func TestUploadAll_KeepAfterUpload(t *testing.T) {
	u := newTestUploader(t, &photoServer{}, Options{KeepAfterUpload: true})
	_, err := u.Add("a.png", bytes.NewReader(png(4)))
	require.NoError(t, err)

	require.NoError(t, u.UploadAll(context.Background()))
	items := u.Items()
	require.Len(t, items, 1)
	assert.Equal(t, StateDone, items[0].State)
}

func TestRemove(t *testing.T) {
	srv := &photoServer{}
	u := newTestUploader(t, srv, Options{})
	it, err := u.Add("a.png", bytes.NewReader(png(4)))
	require.NoError(t, err)

	require.NoError(t, u.Remove(it.ID))
	assert.ErrorIs(t, u.Remove(it.ID), ErrNotFound)
	require.NoError(t, u.UploadAll(context.Background()))
	assert.Zero(t, srv.hits.Load())
}

func TestUploadAll_Concurrency(t *testing.T) {
	srv := &photoServer{delay: 50 * time.Millisecond}
	var mu sync.Mutex
	done := 0
	u := newTestUploader(t, srv, Options{
		Concurrency: 3,
		OnSuccess: func(Item, Photo) {
			mu.Lock()
			done++
			mu.Unlock()
		},
	})
	for i := 0; i < 6; i++ {
		_, err := u.Add(fmt.Sprintf("p%d.png", i), bytes.NewReader(png(4)))
		require.NoError(t, err)
	}

	require.NoError(t, u.UploadAll(context.Background()))
	assert.Equal(t, 6, done)
	assert.Equal(t, 6, u.Photos.Len())
	assert.LessOrEqual(t, srv.peak.Load(), int32(3))
	assert.Greater(t, srv.peak.Load(), int32(1))
}

func TestUploadAll_Sequential(t *testing.T) {
	srv := &photoServer{delay: 10 * time.Millisecond}
	u := newTestUploader(t, srv, Options{})
	for i := 0; i < 3; i++ {
		_, err := u.Add(fmt.Sprintf("p%d.png", i), bytes.NewReader(png(4)))
		require.NoError(t, err)
	}
	require.NoError(t, u.UploadAll(context.Background()))
	assert.Equal(t, int32(1), srv.peak.Load())
}

func TestSetDescription_RejectedWhileUploading(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var caption atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caption.Store(r.FormValue("description"))
		close(started)
		<-release
		_, _ = io.WriteString(w, `{"id":1,"url":"https://cdn.example.com/a.png","isMain":true}`)
	}))
	t.Cleanup(ts.Close)
	u := New(api.New(ts.URL, nil), 7, "tok", Options{KeepAfterUpload: true})

	it, err := u.Add("a.png", bytes.NewReader(png(4)))
	require.NoError(t, err)
	require.NoError(t, u.SetDescription(it.ID, "before"))

	done := make(chan error, 1)
	go func() { done <- u.UploadAll(context.Background()) }()
	<-started

	assert.ErrorIs(t, u.SetDescription(it.ID, "during"), ErrInProgress)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, "before", caption.Load())
	require.NoError(t, u.SetDescription(it.ID, "after"))
	assert.Equal(t, "after", u.Items()[0].Description)
}

func TestSetDescription_ConcurrentWithUploadAll(t *testing.T) {
	srv := &photoServer{delay: 20 * time.Millisecond}
	u := newTestUploader(t, srv, Options{Concurrency: 2, KeepAfterUpload: true})
	var ids []string
	for i := 0; i < 4; i++ {
		it, err := u.Add(fmt.Sprintf("p%d.png", i), bytes.NewReader(png(4)))
		require.NoError(t, err)
		ids = append(ids, it.ID)
	}

	done := make(chan error, 1)
	go func() { done <- u.UploadAll(context.Background()) }()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			assert.Equal(t, 4, u.Photos.Len())
			return
		default:
			for _, id := range ids {
				if err := u.SetDescription(id, "caption"); err != nil {
					require.ErrorIs(t, err, ErrInProgress)
				}
			}
		}
	}
}
