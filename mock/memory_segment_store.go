package mock_backend

import (
	"context"
	"sort"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

// MemorySegmentStore is an in-memory SegmentStorePort with the same
// conditional-transition semantics as the DynamoDB store.
type MemorySegmentStore struct {
	mu       sync.Mutex
	segments map[string]domain.Segment
}

func NewMemorySegmentStore() *MemorySegmentStore {
	return &MemorySegmentStore{
		segments: make(map[string]domain.Segment),
	}
}

var _ outbound.SegmentStorePort = (*MemorySegmentStore)(nil)

func (s *MemorySegmentStore) GetSegment(ctx context.Context, segmentID string) (*domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[segmentID]
	if !ok {
		return nil, domain.ErrSegmentNotFound
	}
	copied := seg
	return &copied, nil
}

func (s *MemorySegmentStore) ListByEpisode(ctx context.Context, scriptID string, episodeNum int, statuses []domain.SegmentStatus) ([]domain.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[domain.SegmentStatus]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}

	out := make([]domain.Segment, 0)
	for _, seg := range s.segments {
		if seg.ScriptID != scriptID || seg.EpisodeNum != episodeNum {
			continue
		}
		if len(statuses) > 0 && !wanted[seg.Status] {
			continue
		}
		out = append(out, seg)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SceneNum != out[j].SceneNum {
			return out[i].SceneNum < out[j].SceneNum
		}
		return out[i].SegmentIndex < out[j].SegmentIndex
	})
	return out, nil
}

func (s *MemorySegmentStore) SetSeedImage(ctx context.Context, segmentID string, seedImageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[segmentID]
	if !ok {
		return domain.ErrSegmentNotFound
	}
	seg.SeedImageURL = seedImageURL
	s.segments[segmentID] = seg
	return nil
}

func (s *MemorySegmentStore) MarkSubmitted(ctx context.Context, segmentID string, providerTaskID string) (bool, error) {
	return s.transition(segmentID, []domain.SegmentStatus{domain.SegmentReserved}, func(seg *domain.Segment) {
		seg.Status = domain.SegmentSubmitted
		seg.ProviderTaskID = providerTaskID
	})
}

func (s *MemorySegmentStore) MarkGenerating(ctx context.Context, segmentID string) (bool, error) {
	return s.transition(segmentID, []domain.SegmentStatus{domain.SegmentSubmitted}, func(seg *domain.Segment) {
		seg.Status = domain.SegmentGenerating
	})
}

func (s *MemorySegmentStore) MarkDone(ctx context.Context, segmentID string, videoURL string) (bool, error) {
	return s.transition(segmentID, []domain.SegmentStatus{domain.SegmentSubmitted, domain.SegmentGenerating}, func(seg *domain.Segment) {
		seg.Status = domain.SegmentDone
		seg.VideoURL = videoURL
	})
}

func (s *MemorySegmentStore) MarkFailed(ctx context.Context, segmentID string, errorMessage string) (bool, error) {
	nonTerminal := []domain.SegmentStatus{domain.SegmentPending, domain.SegmentReserved, domain.SegmentSubmitted, domain.SegmentGenerating}
	return s.transition(segmentID, nonTerminal, func(seg *domain.Segment) {
		seg.Status = domain.SegmentFailed
		seg.ErrorMessage = errorMessage
	})
}

func (s *MemorySegmentStore) FailRemaining(ctx context.Context, segmentIDs []string, errorMessage string) ([]string, error) {
	failed := make([]string, 0, len(segmentIDs))
	for _, id := range segmentIDs {
		won, err := s.MarkFailed(ctx, id, errorMessage)
		if err != nil {
			return failed, err
		}
		if won {
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func (s *MemorySegmentStore) transition(segmentID string, expected []domain.SegmentStatus, apply func(seg *domain.Segment)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg, ok := s.segments[segmentID]
	if !ok {
		return false, domain.ErrSegmentNotFound
	}

	allowed := false
	for _, st := range expected {
		if seg.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}

	apply(&seg)
	s.segments[segmentID] = seg
	return true, nil
}

// Seed installs segments directly.
func (s *MemorySegmentStore) Seed(segments ...domain.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seg := range segments {
		s.segments[seg.ID] = seg
	}
}
