// Package texturetest provides an in-memory texture binder for tests.
package texturetest

import (
	"sync"

	"github.com/e7canasta/media-preview/internal/texture"
)

// Recorder records uploads instead of touching a GPU.
type Recorder struct {
	mu sync.Mutex

	// Err fails every upload
	Err error

	uploads []Call
}

// Call is one recorded upload. Data is a private copy.
type Call struct {
	ID     texture.ID
	Upload texture.Upload
}

// Upload implements texture.Binder.
func (r *Recorder) Upload(id texture.ID, u texture.Upload) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	u.Data = append([]byte(nil), u.Data...)
	r.uploads = append(r.uploads, Call{ID: id, Upload: u})
	return nil
}

// Uploads returns every recorded upload.
func (r *Recorder) Uploads() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.uploads...)
}

// Count returns the number of uploads.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.uploads)
}
