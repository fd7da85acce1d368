package mock_backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

// FakeAnchorStore keeps saved anchors in memory and hands back stable URLs.
type FakeAnchorStore struct {
	mu sync.Mutex

	SaveErr error

	saved    map[string][]byte
	mirrored map[string]string
}

func NewFakeAnchorStore() *FakeAnchorStore {
	return &FakeAnchorStore{
		saved:    make(map[string][]byte),
		mirrored: make(map[string]string),
	}
}

var _ outbound.AnchorStorePort = (*FakeAnchorStore)(nil)

func (s *FakeAnchorStore) SaveBytes(ctx context.Context, scriptID string, segmentID string, image []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return "", s.SaveErr
	}

	url := fmt.Sprintf("https://anchors.example/%s/%s.jpg", scriptID, segmentID)
	s.saved[url] = image
	return url, nil
}

func (s *FakeAnchorStore) MirrorURL(ctx context.Context, scriptID string, segmentID string, sourceURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return "", s.SaveErr
	}

	url := fmt.Sprintf("https://anchors.example/%s/%s.jpg", scriptID, segmentID)
	s.mirrored[url] = sourceURL
	return url, nil
}

// SavedBytes returns the image stored under url, if any.
func (s *FakeAnchorStore) SavedBytes(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.saved[url]
	return b, ok
}

// MirroredSource returns the original URL mirrored under url, if any.
func (s *FakeAnchorStore) MirroredSource(url string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.mirrored[url]
	return src, ok
}
