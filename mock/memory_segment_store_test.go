package mock_backend

import (
	"context"
	"testing"

	"github.com/Lerfilm/opendrama-sub004/domain"
)

func TestMemorySegmentStore_ConditionalTransitions(t *testing.T) {
	store := NewMemorySegmentStore()
	store.Seed(domain.Segment{ID: "seg-1", Status: domain.SegmentReserved})

	ctx := context.Background()

	won, err := store.MarkSubmitted(ctx, "seg-1", "task-1")
	if err != nil || !won {
		t.Fatal("submit transition from reserved:", won, err)
	}

	// Second writer loses the same transition.
	won, err = store.MarkSubmitted(ctx, "seg-1", "task-2")
	if err != nil {
		t.Fatal("second submit errored:", err)
	}
	if won {
		t.Fatal("submit transition won twice")
	}

	won, err = store.MarkDone(ctx, "seg-1", "https://cdn.example/v.mp4")
	if err != nil || !won {
		t.Fatal("done transition from submitted:", won, err)
	}

	// Terminal segments refuse both settlement paths.
	if won, _ = store.MarkFailed(ctx, "seg-1", "late failure"); won {
		t.Error("failed transition won on a done segment")
	}
	if won, _ = store.MarkDone(ctx, "seg-1", "https://cdn.example/other.mp4"); won {
		t.Error("done transition won twice")
	}

	seg, err := store.GetSegment(ctx, "seg-1")
	if err != nil {
		t.Fatal("lookup failed:", err)
	}
	if seg.Status != domain.SegmentDone || seg.VideoURL != "https://cdn.example/v.mp4" {
		t.Errorf("segment = %s %s", seg.Status, seg.VideoURL)
	}
	if seg.ProviderTaskID != "task-1" {
		t.Errorf("provider task id = %s, want task-1", seg.ProviderTaskID)
	}
}

func TestMemorySegmentStore_FailRemainingSkipsTerminal(t *testing.T) {
	store := NewMemorySegmentStore()
	store.Seed(
		domain.Segment{ID: "seg-1", Status: domain.SegmentDone},
		domain.Segment{ID: "seg-2", Status: domain.SegmentReserved},
		domain.Segment{ID: "seg-3", Status: domain.SegmentGenerating},
		domain.Segment{ID: "seg-4", Status: domain.SegmentFailed},
	)

	failed, err := store.FailRemaining(context.Background(), []string{"seg-1", "seg-2", "seg-3", "seg-4"}, "chain aborted")
	if err != nil {
		t.Fatal("fail remaining errored:", err)
	}
	if len(failed) != 2 || failed[0] != "seg-2" || failed[1] != "seg-3" {
		t.Errorf("transitioned segments = %v, want seg-2 and seg-3", failed)
	}
}

func TestMemorySegmentStore_ListByEpisodeOrdersAndFilters(t *testing.T) {
	store := NewMemorySegmentStore()
	store.Seed(
		domain.Segment{ID: "b", ScriptID: "s1", EpisodeNum: 1, SceneNum: 2, SegmentIndex: 0, Status: domain.SegmentReserved},
		domain.Segment{ID: "a", ScriptID: "s1", EpisodeNum: 1, SceneNum: 1, SegmentIndex: 1, Status: domain.SegmentReserved},
		domain.Segment{ID: "c", ScriptID: "s1", EpisodeNum: 1, SceneNum: 1, SegmentIndex: 0, Status: domain.SegmentDone},
		domain.Segment{ID: "d", ScriptID: "s1", EpisodeNum: 2, SceneNum: 1, SegmentIndex: 0, Status: domain.SegmentReserved},
		domain.Segment{ID: "e", ScriptID: "s2", EpisodeNum: 1, SceneNum: 1, SegmentIndex: 0, Status: domain.SegmentReserved},
	)

	segs, err := store.ListByEpisode(context.Background(), "s1", 1, []domain.SegmentStatus{domain.SegmentReserved})
	if err != nil {
		t.Fatal("list failed:", err)
	}
	if len(segs) != 2 || segs[0].ID != "a" || segs[1].ID != "b" {
		t.Fatalf("filtered listing = %v", segs)
	}

	all, err := store.ListByEpisode(context.Background(), "s1", 1, nil)
	if err != nil {
		t.Fatal("unfiltered list failed:", err)
	}
	if len(all) != 3 || all[0].ID != "c" {
		t.Fatalf("unfiltered listing = %v", all)
	}
}
