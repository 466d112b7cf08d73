package tempstore

import (
	"fmt"
	"os"
	"sync"
)

// FlatStore provides a simple disk-based implementation of Store
// that appends readings to a flat text file, one line-encoded
// record per line (see Reading.MarshalText).
type FlatStore struct {
	path string
	mu   sync.Mutex
	f    *os.File
}

// NewFlatStore returns a flat-file store that appends readings to
// the file at the given path, creating it if it doesn't exist.
func NewFlatStore(path string) (*FlatStore, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("cannot open flat store: %v", err)
	}
	return &FlatStore{
		path: path,
		f:    f,
	}, nil
}

// Append implements Store.Append.
func (s *FlatStore) Append(r Reading) error {
	data, err := r.MarshalText()
	if err != nil {
		return fmt.Errorf("cannot marshal reading: %v", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("flat store %q: append after close", s.path)
	}
	if _, err := s.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("cannot write reading to %q: %v", s.path, err)
	}
	return nil
}

// Close implements Store.Close.
func (s *FlatStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadFlatFile returns all the readings in the flat store
// file at the given path.
func ReadFlatFile(path string) ([]Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadAll(NewReadingReader(f))
}
