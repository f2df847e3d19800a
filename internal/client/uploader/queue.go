package uploader

import (
	"errors"
	"sync"
	"time"

	"github.com/datingapp/dating-api/internal/client/api"
)

var (
	ErrNotImage   = errors.New("file is not an image")
	ErrTooLarge   = errors.New("file is too large")
	ErrNotFound   = errors.New("item not in queue")
	ErrInProgress = errors.New("item is uploading")
)

type State int

const (
	StateQueued State = iota
	StateUploading
	StateFailed
	StateDone
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateUploading:
		return "uploading"
	case StateFailed:
		return "failed"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Photo is the server's view of an uploaded photo.
type Photo = api.Photo

// Item is one staged file. Fields other than ID, Name, Size and ContentType
// change while an upload runs; read them through Uploader.Items.
type Item struct {
	ID          string
	Name        string
	Description string
	Size        int64
	ContentType string
	State       State
	Err         error
	AddedAt     time.Time

	data []byte
}

// PhotoList collects uploaded photos in completion order.
type PhotoList struct {
	mu     sync.Mutex
	photos []Photo
}

func (l *PhotoList) Append(p Photo) {
	l.mu.Lock()
	l.photos = append(l.photos, p)
	l.mu.Unlock()
}

func (l *PhotoList) All() []Photo {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Photo, len(l.photos))
	copy(out, l.photos)
	return out
}

func (l *PhotoList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.photos)
}
