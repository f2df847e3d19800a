// Package uploader stages image files and uploads them to a user's photo
// collection.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/internal/client/api"
)

const (
	DefaultMaxBytes = 10 << 20
	formField       = "file"
)

type Options struct {
	// Concurrency is the number of parallel uploads. Values below 1 mean 1.
	Concurrency int
	MaxBytes    int64
	// KeepAfterUpload leaves successful items in the queue as StateDone.
	KeepAfterUpload bool
	OnSuccess       func(item Item, photo Photo)
	OnError         func(item Item, err error)
	Log             *zerolog.Logger
}

// Uploader holds the staged queue for one user. Staging never starts an
// upload; UploadAll does.
type Uploader struct {
	client *api.Client
	userID int64
	token  string
	opts   Options
	log    zerolog.Logger

	mu    sync.Mutex
	queue []*Item

	Photos PhotoList
}

func New(client *api.Client, userID int64, token string, opts Options) *Uploader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	log := zerolog.Nop()
	if opts.Log != nil {
		log = *opts.Log
	}
	return &Uploader{client: client, userID: userID, token: token, opts: opts, log: log}
}

// AddFile stages the file at path.
func (u *Uploader) AddFile(path string) (Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return Item{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return Item{}, err
	}
	if fi.Size() > u.opts.MaxBytes {
		return Item{}, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	return u.Add(filepath.Base(path), f)
}

// Add stages the content of r under name.
func (u *Uploader) Add(name string, r io.Reader) (Item, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.opts.MaxBytes+1))
	if err != nil {
		return Item{}, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > u.opts.MaxBytes {
		return Item{}, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return Item{}, fmt.Errorf("%s (%s): %w", name, mt.String(), ErrNotImage)
	}

	it := &Item{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mt.String(),
		State:       StateQueued,
		AddedAt:     time.Now(),
		data:        data,
	}
	u.mu.Lock()
	u.queue = append(u.queue, it)
	u.mu.Unlock()
	return *it, nil
}

// SetDescription sets the optional caption sent with an item that is not
// uploading.
func (u *Uploader) SetDescription(id, description string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	it := u.find(id)
	if it == nil {
		return ErrNotFound
	}
	if it.State == StateUploading {
		return ErrInProgress
	}
	it.Description = description
	return nil
}

// Remove drops an item that is not uploading.
func (u *Uploader) Remove(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, it := range u.queue {
		if it.ID != id {
			continue
		}
		if it.State == StateUploading {
			return ErrInProgress
		}
		u.queue = append(u.queue[:i], u.queue[i+1:]...)
		return nil
	}
	return ErrNotFound
}

// Retry moves a failed item back to StateQueued.
func (u *Uploader) Retry(id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	it := u.find(id)
	if it == nil {
		return ErrNotFound
	}
	if it.State == StateFailed {
		it.State, it.Err = StateQueued, nil
	}
	return nil
}

// Items returns a snapshot of the queue.
func (u *Uploader) Items() []Item {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Item, len(u.queue))
	for i, it := range u.queue {
		out[i] = *it
		out[i].data = nil
	}
	return out
}

func (u *Uploader) find(id string) *Item {
	for _, it := range u.queue {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// UploadAll uploads every queued item and waits for them. Failed items stay
// in the queue; the returned error joins their causes.
func (u *Uploader) UploadAll(ctx context.Context) error {
	u.mu.Lock()
	pending := make([]*Item, 0, len(u.queue))
	for _, it := range u.queue {
		if it.State == StateQueued {
			pending = append(pending, it)
		}
	}
	u.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	jobs := make(chan *Item, len(pending))
	for _, it := range pending {
		jobs <- it
	}
	close(jobs)

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		errs  []error
	)
	report := func(err error) {
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}
	workers := min(u.opts.Concurrency, len(pending))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			u.runWorker(ctx, id, jobs, report)
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// runWorker drains jobs until the channel is empty or ctx ends.
func (u *Uploader) runWorker(ctx context.Context, id int, jobs <-chan *Item, report func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case it, ok := <-jobs:
			if !ok {
				return
			}
			snap, ok := u.start(it)
			if !ok {
				continue
			}
			if err := u.uploadOne(ctx, it, snap); err != nil {
				u.log.Warn().Err(err).Int("worker", id).Str("file", it.Name).Msg("upload failed")
				report(fmt.Errorf("%s: %w", it.Name, err))
			}
		}
	}
}

// start claims an item that is still queued and returns a copy to send from.
func (u *Uploader) start(it *Item) (Item, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.find(it.ID) == nil || it.State != StateQueued {
		return Item{}, false
	}
	it.State = StateUploading
	return *it, true
}

func (u *Uploader) uploadOne(ctx context.Context, it *Item, snap Item) error {
	photo, err := u.send(ctx, snap)

	u.mu.Lock()
	if err != nil {
		it.State, it.Err = StateFailed, err
	} else {
		it.State, it.Err = StateDone, nil
		if !u.opts.KeepAfterUpload {
			for i, q := range u.queue {
				if q == it {
					u.queue = append(u.queue[:i], u.queue[i+1:]...)
					break
				}
			}
		}
	}
	result := *it
	result.data = nil
	u.mu.Unlock()

	if err != nil {
		if u.opts.OnError != nil {
			u.opts.OnError(result, err)
		}
		return err
	}

	u.Photos.Append(*photo)
	u.log.Debug().Str("file", it.Name).Int64("photo_id", photo.ID).Msg("uploaded")
	if u.opts.OnSuccess != nil {
		u.opts.OnSuccess(result, *photo)
	}
	return nil
}

func (u *Uploader) send(ctx context.Context, it Item) (*Photo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, formField, it.Name))
	h.Set("Content-Type", it.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(it.data); err != nil {
		return nil, err
	}
	if it.Description != "" {
		if err := mw.WriteField("description", it.Description); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/users/%d/photos", u.client.BaseURL(), u.userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.token)

	resp, err := u.client.HTTPClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}
	var p Photo
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode photo: %w", err)
	}
	return &p, nil
}
