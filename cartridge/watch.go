package cartridge

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func (d *debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}

// Watcher re-offers a disk cartridge whenever the file is rewritten.
type Watcher struct {
	w        *fsnotify.Watcher
	path     string
	debounce *debouncer
	done     chan struct{}
	errs     func(error)
}

// Watch calls onChange with a fresh Disk handle each time path is created or written, after
// delay has passed without further events. The parent directory is watched so that editors
// and build tools that replace the file are noticed too. onError, if not nil, receives watcher
// errors.
func Watch(path string, delay time.Duration, onChange func(File), onError func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		w:        fw,
		path:     abs,
		debounce: &debouncer{delay: delay},
		done:     make(chan struct{}),
		errs:     onError,
	}
	go w.run(onChange)

	return w, nil
}

func (w *Watcher) run(onChange func(File)) {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.debounce.Do(func() {
				onChange(Disk(w.path))
			})
		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			if w.errs != nil {
				w.errs(err)
			}
		}
	}
}

func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	w.debounce.Stop()
	return err
}
