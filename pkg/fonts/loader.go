package fonts

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/peviz/pkg/errors"
	"github.com/matzehuels/peviz/pkg/observability"
)

// Loader loads a font in the background with a single outcome.
//
// Until the load resolves, [Loader.Face] reports ASSET_PENDING. A failed load
// is terminal: every later call reports ASSET_UNAVAILABLE and no retry is
// attempted.
type Loader struct {
	src   Source
	ready atomic.Bool
	done  chan struct{}
	once  sync.Once

	face *Face
	err  error
}

// NewLoader returns a loader for src. Call Start to begin loading.
func NewLoader(src Source) *Loader {
	if src == nil {
		src = Embedded()
	}
	return &Loader{src: src, done: make(chan struct{})}
}

// Load starts loading src and returns the loader.
func Load(src Source) *Loader {
	l := NewLoader(src)
	l.Start()
	return l
}

// Ready returns a loader that has already resolved to face.
func Ready(face *Face) *Loader {
	l := &Loader{src: Embedded(), done: make(chan struct{})}
	l.resolve(face, nil)
	return l
}

// Start begins loading in a goroutine. Further calls are no-ops.
func (l *Loader) Start() {
	l.once.Do(func() {
		go func() {
			start := time.Now()
			face, err := l.load()
			observability.Pipeline().OnAssetLoaded(context.Background(), l.src.Name(), time.Since(start), err)
			l.resolve(face, err)
		}()
	})
}

func (l *Loader) load() (*Face, error) {
	data, err := l.src.Bytes()
	if err == nil {
		var face *Face
		if face, err = Parse(data); err == nil {
			return face, nil
		}
	}
	return nil, errors.Wrap(errors.ErrCodeAssetUnavailable, err,
		"could not load monospace font %s; visualization unavailable", l.src.Name())
}

func (l *Loader) resolve(face *Face, err error) {
	l.face, l.err = face, err
	l.ready.Store(true)
	close(l.done)
}

// Source returns the source being loaded.
func (l *Loader) Source() Source { return l.src }

// Done is closed once loading resolves or fails.
func (l *Loader) Done() <-chan struct{} { return l.done }

// Face returns the loaded face without blocking.
func (l *Loader) Face() (*Face, error) {
	if !l.ready.Load() {
		return nil, errors.New(errors.ErrCodeAssetPending, "font not loaded yet, please wait")
	}
	return l.face, l.err
}

// Wait blocks until loading resolves or ctx is done.
func (l *Loader) Wait(ctx context.Context) (*Face, error) {
	select {
	case <-l.done:
		return l.face, l.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
