package engine

import (
	"context"
	"errors"
	"io"
	"sync"

	"chainboy/emulator"
	"chainboy/persist"
)

type stubSession struct {
	mu sync.Mutex

	startOK    bool
	startErr   error
	startPanic any

	blob         emulator.SaveBlob
	captureOK    bool
	captureErr   error
	capturePanic any

	// when set, Start signals startEntered and then waits for startRelease:
	startEntered chan struct{}
	startRelease chan struct{}

	starts   int
	captures int
	// lastROM is the image of the Start call that returned last, i.e. what the session runs.
	lastROM []byte
}

func (s *stubSession) Start(_ context.Context, rom []byte) (bool, error) {
	s.mu.Lock()
	s.starts++
	entered, release := s.startEntered, s.startRelease
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastROM = rom
	if s.startPanic != nil {
		panic(s.startPanic)
	}
	return s.startOK, s.startErr
}

func (s *stubSession) blockStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startEntered = make(chan struct{}, 8)
	s.startRelease = make(chan struct{})
}

func (s *stubSession) unblockStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.startRelease)
	s.startEntered, s.startRelease = nil, nil
}

func (s *stubSession) running() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastROM
}

func (s *stubSession) CaptureState(context.Context) (emulator.SaveBlob, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captures++
	if s.capturePanic != nil {
		panic(s.capturePanic)
	}
	return s.blob, s.captureOK, s.captureErr
}

func (s *stubSession) counts() (starts, captures int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.captures
}

type stubStore struct {
	mu sync.Mutex

	tx  persist.TransactionID
	err error

	// when set, Upload signals entered and then waits for release:
	entered chan struct{}
	release chan struct{}

	uploads int
	records []persist.Record
}

func (s *stubStore) Upload(_ context.Context, record persist.Record) (persist.TransactionID, error) {
	s.mu.Lock()
	s.uploads++
	s.records = append(s.records, record)
	entered, release := s.entered, s.release
	tx, err := s.tx, s.err
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return tx, err
}

func (s *stubStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (s *stubStore) block() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entered = make(chan struct{}, 8)
	s.release = make(chan struct{})
}

type failingFile struct{ msg string }

func (f failingFile) Name() string                 { return "broken.gba" }
func (f failingFile) Open() (io.ReadCloser, error) { return nil, errors.New(f.msg) }

type recordingObserver struct {
	mu       sync.Mutex
	statuses []Status
}

func (o *recordingObserver) Notify(object interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, object.(Status))
}

func (o *recordingObserver) seen() []Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Status(nil), o.statuses...)
}
