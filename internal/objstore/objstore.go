// Package objstore defines the object store the contact images are uploaded to. Uploads run in
// the background and are observed through an Upload handle, which streams progress and ends with
// a single result.
//
// Backends live in the sub packages local and minio.
package objstore

import (
	"context"
	"io"
	"sync"
)

// Store is the client of an object store.
type Store interface {
	// UploadResumable starts uploading size bytes from r under key. The upload runs until it
	// completes, fails or ctx is cancelled; r must not be used by the caller before then.
	UploadResumable(ctx context.Context, key string, r io.Reader, size int64, contentType string) *Upload

	// ResolveDownloadURL returns an absolute URL under which an uploaded object can be downloaded.
	ResolveDownloadURL(ctx context.Context, obj Object) (string, error)
}

// Object describes an uploaded object.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// Progress is a snapshot of a running upload.
type Progress struct {
	BytesTransferred int64
	TotalBytes       int64
}

// Percent returns the transferred share as a whole percentage, rounded down. It is 100 once all
// bytes have been transferred.
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 || p.BytesTransferred >= p.TotalBytes {
		return 100
	}
	if p.BytesTransferred <= 0 {
		return 0
	}
	return int(p.BytesTransferred * 100 / p.TotalBytes)
}

// Upload is the handle of a running upload.
//
// The progress channel has room for a single snapshot. A new snapshot replaces one the consumer
// has not picked up yet, so a slow consumer sees fewer, but never stale or decreasing, values.
// The final snapshot of a successful upload always reports all bytes, and the channel is closed
// before Done is.
type Upload struct {
	progress chan Progress
	done     chan struct{}
	cancel   context.CancelFunc

	total       int64
	mu          sync.Mutex
	transferred int64

	object Object
	err    error
}

// TransferFunc moves the bytes of an upload. It calls report with the number of bytes every time
// it has transferred some.
type TransferFunc func(ctx context.Context, report func(n int)) error

// Start runs transfer in a new goroutine and returns the handle of the upload. Backends implement
// UploadResumable with it.
func Start(ctx context.Context, obj Object, transfer TransferFunc) *Upload {
	ctx, cancel := context.WithCancel(ctx)
	u := &Upload{
		progress: make(chan Progress, 1),
		done:     make(chan struct{}),
		cancel:   cancel,
		total:    obj.Size,
	}
	go func() {
		defer cancel()
		err := transfer(ctx, u.report)
		if err == nil {
			u.publish(Progress{BytesTransferred: obj.Size, TotalBytes: obj.Size})
			u.object = obj
		}
		u.err = err
		close(u.progress)
		close(u.done)
	}()
	return u
}

// Failed returns an upload that has already failed with err. Backends use it for errors they
// detect before any byte is moved.
func Failed(err error) *Upload {
	u := &Upload{
		progress: make(chan Progress),
		done:     make(chan struct{}),
		cancel:   func() {},
		err:      err,
	}
	close(u.progress)
	close(u.done)
	return u
}

func (u *Upload) report(n int) {
	if n <= 0 {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.transferred += int64(n)
	u.publishLocked(u.transferred)
}

func (u *Upload) publish(p Progress) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.transferred = p.BytesTransferred
	u.publishLocked(p.BytesTransferred)
}

// publishLocked replaces the buffered snapshot. There is only ever one sender at a time, so after
// draining the buffer the send cannot block.
func (u *Upload) publishLocked(transferred int64) {
	p := Progress{BytesTransferred: transferred, TotalBytes: u.total}
	if p.TotalBytes > 0 && p.BytesTransferred > p.TotalBytes {
		p.BytesTransferred = p.TotalBytes
	}
	select {
	case u.progress <- p:
	default:
		select {
		case <-u.progress:
		default:
		}
		u.progress <- p
	}
}

// Progress returns the progress stream. It is closed when the upload has ended.
func (u *Upload) Progress() <-chan Progress {
	return u.progress
}

// Done is closed when the upload has ended.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until the upload has ended and returns the uploaded object.
func (u *Upload) Wait() (Object, error) {
	<-u.done
	return u.object, u.err
}

// Cancel aborts the upload. Wait then returns the cancellation error, unless the upload had
// already finished.
func (u *Upload) Cancel() {
	u.cancel()
}
