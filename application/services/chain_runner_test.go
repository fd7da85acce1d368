package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/domain"
	mockbackend "github.com/Lerfilm/opendrama-sub004/mock"
)

type chainFixture struct {
	runner    inbound.ChainRunnerPort
	ledger    inbound.TokenLedgerPort
	store     *mockbackend.MemoryLedgerStore
	segments  *mockbackend.MemorySegmentStore
	provider  *mockbackend.FakeProvider
	images    *mockbackend.FakeImageGenerator
	frames    *mockbackend.FakeFrameExtractor
	anchors   *mockbackend.FakeAnchorStore
	resolver  *mockbackend.FakeCharacterResolver
	chainConf *config.ChainConfig
}

func newChainFixture() *chainFixture {
	logger := mockbackend.NoopLogger{}

	store := mockbackend.NewMemoryLedgerStore()
	ledger := NewTokenLedger(logger, store)

	segments := mockbackend.NewMemorySegmentStore()
	provider := mockbackend.NewFakeProvider()
	provider.SucceedAfterPolls = 1

	images := mockbackend.NewFakeImageGenerator()
	frames := mockbackend.NewFakeFrameExtractor()
	anchors := mockbackend.NewFakeAnchorStore()
	resolver := mockbackend.NewFakeCharacterResolver(&domain.CharacterRefs{
		Descriptions: []string{"Mara, a weary detective"},
		ImageURLs:    []string{"https://refs.example/mara.jpg"},
	})

	conf := &config.ChainConfig{
		PollInterval:  time.Millisecond,
		MaxVideoPolls: 5,
		AnchorTimeout: time.Second,
		MaxRefImages:  4,
	}

	runner := NewChainRunner(logger, ledger, segments, provider,
		NewAnchorGenerator(logger, images), frames, anchors, resolver, conf)

	return &chainFixture{
		runner:    runner,
		ledger:    ledger,
		store:     store,
		segments:  segments,
		provider:  provider,
		images:    images,
		frames:    frames,
		anchors:   anchors,
		resolver:  resolver,
		chainConf: conf,
	}
}

// seedEpisode reserves tokens for six segments spread over scenes 1, 1, 2,
// 2, 2, 3 at ten tokens each.
func (f *chainFixture) seedEpisode(t *testing.T) []domain.Segment {
	t.Helper()

	scenes := []int{1, 1, 2, 2, 2, 3}
	segs := make([]domain.Segment, 0, len(scenes))
	sceneIdx := map[int]int{}
	for i, scene := range scenes {
		seg := domain.Segment{
			ID:           fmt.Sprintf("seg-%d", i+1),
			ScriptID:     "script-1",
			UserID:       "u1",
			EpisodeNum:   1,
			SceneNum:     scene,
			SegmentIndex: sceneIdx[scene],
			DurationSec:  5,
			Prompt:       fmt.Sprintf("shot %d", i+1),
			Model:        "kling-v1",
			Resolution:   "720p",
			Status:       domain.SegmentReserved,
			TokenCost:    10,
		}
		sceneIdx[scene]++
		segs = append(segs, seg)
	}
	f.segments.Seed(segs...)

	f.store.Seed(domain.Account{UserID: "u1", Balance: 100, Reserved: 60})
	return segs
}

func (f *chainFixture) run(t *testing.T) *inbound.ChainResult {
	t.Helper()

	result, err := f.runner.RunChain(context.Background(), inbound.RunChainParams{
		ScriptID:   "script-1",
		EpisodeNum: 1,
		UserID:     "u1",
	})
	if err != nil {
		t.Fatal("chain run failed:", err)
	}
	return result
}

func (f *chainFixture) segmentStatus(t *testing.T, id string) domain.SegmentStatus {
	t.Helper()

	seg, err := f.segments.GetSegment(context.Background(), id)
	if err != nil {
		t.Fatal("segment lookup failed:", err)
	}
	return seg.Status
}

func TestChainRunner_FullEpisode(t *testing.T) {
	f := newChainFixture()
	segs := f.seedEpisode(t)

	result := f.run(t)

	if result.Completed != 6 || result.Failed != 0 || result.Aborted {
		t.Fatalf("result = %+v, want 6 completed", result)
	}
	for _, seg := range segs {
		if status := f.segmentStatus(t, seg.ID); status != domain.SegmentDone {
			t.Errorf("segment %s finished %s, want done", seg.ID, status)
		}
	}

	// One fresh anchor per scene.
	if prompts := f.images.Prompts(); len(prompts) != 3 {
		t.Errorf("generated %d scene anchors, want 3", len(prompts))
	}

	// Frames are pulled only when the next segment continues the scene:
	// after segments 1, 3 and 4.
	requests := f.frames.Requests()
	if len(requests) != 3 {
		t.Fatalf("extracted %d frames, want 3", len(requests))
	}
	for _, req := range requests {
		if req.AtSec != 5 {
			t.Errorf("frame extracted at %.1fs, want clip end 5.0s", req.AtSec)
		}
	}

	// Every submission leads with its seed image.
	submits := f.provider.Submits()
	if len(submits) != 6 {
		t.Fatalf("provider saw %d submissions, want 6", len(submits))
	}
	for i, sub := range submits {
		if len(sub.ImageURLs) == 0 || sub.ImageURLs[0] == "" {
			t.Errorf("submission %d missing seed image", i+1)
		}
	}
	// Scene openers use the mirrored anchor, continuations the extracted frame.
	if _, ok := f.anchors.MirroredSource(submits[0].ImageURLs[0]); !ok {
		t.Error("first submission seed is not a mirrored anchor")
	}
	if _, ok := f.anchors.SavedBytes(submits[1].ImageURLs[0]); !ok {
		t.Error("second submission seed is not an extracted frame")
	}

	// Every reservation settled.
	acct, err := f.store.GetAccount(context.Background(), "u1")
	if err != nil {
		t.Fatal("account lookup failed:", err)
	}
	if acct.Balance != 40 || acct.Reserved != 0 {
		t.Errorf("account after full chain = balance %d reserved %d, want 40/0", acct.Balance, acct.Reserved)
	}
}

func TestChainRunner_MidChainFailureRefundsRemainder(t *testing.T) {
	f := newChainFixture()
	segs := f.seedEpisode(t)

	f.provider.FailPrompts[segs[3].Prompt] = "content policy rejection"

	result := f.run(t)

	if result.Completed != 3 {
		t.Errorf("completed = %d, want 3", result.Completed)
	}
	if result.Failed != 3 {
		t.Errorf("failed = %d, want 3", result.Failed)
	}
	if !result.Aborted || result.AbortedAt != 3 {
		t.Errorf("aborted=%v at %d, want abort at index 3", result.Aborted, result.AbortedAt)
	}
	if !strings.Contains(result.Reason, "content policy rejection") {
		t.Errorf("abort reason %q lost the provider message", result.Reason)
	}

	for i, seg := range segs {
		want := domain.SegmentDone
		if i >= 3 {
			want = domain.SegmentFailed
		}
		if status := f.segmentStatus(t, seg.ID); status != want {
			t.Errorf("segment %s = %s, want %s", seg.ID, status, want)
		}
	}

	// Three confirmations, three refunds: nothing stays held.
	acct, err := f.store.GetAccount(context.Background(), "u1")
	if err != nil {
		t.Fatal("account lookup failed:", err)
	}
	if acct.Balance != 70 || acct.Reserved != 0 {
		t.Errorf("account after abort = balance %d reserved %d, want 70/0", acct.Balance, acct.Reserved)
	}
}

func TestChainRunner_AnchorFailureAbortsWholeChain(t *testing.T) {
	f := newChainFixture()
	segs := f.seedEpisode(t)

	f.images.Err = errors.New("image backend unavailable")

	result := f.run(t)

	if result.Completed != 0 || result.Failed != 6 || !result.Aborted {
		t.Fatalf("result = %+v, want full abort", result)
	}
	for _, seg := range segs {
		if status := f.segmentStatus(t, seg.ID); status != domain.SegmentFailed {
			t.Errorf("segment %s = %s, want failed", seg.ID, status)
		}
	}

	acct, err := f.store.GetAccount(context.Background(), "u1")
	if err != nil {
		t.Fatal("account lookup failed:", err)
	}
	if acct.Balance != 100 || acct.Reserved != 0 {
		t.Errorf("account after full abort = balance %d reserved %d, want 100/0", acct.Balance, acct.Reserved)
	}
	if len(f.provider.Submits()) != 0 {
		t.Error("segments were submitted despite anchor failure")
	}
}

func TestChainRunner_PollTimeoutAborts(t *testing.T) {
	f := newChainFixture()
	f.seedEpisode(t)

	f.provider.SucceedAfterPolls = f.chainConf.MaxVideoPolls + 1

	result := f.run(t)

	if result.Completed != 0 || !result.Aborted {
		t.Fatalf("result = %+v, want abort on first segment", result)
	}
	if !strings.Contains(result.Reason, "timed out") {
		t.Errorf("abort reason %q does not mention timeout", result.Reason)
	}

	acct, err := f.store.GetAccount(context.Background(), "u1")
	if err != nil {
		t.Fatal("account lookup failed:", err)
	}
	if acct.Reserved != 0 {
		t.Errorf("reserved = %d after timeout abort, want 0", acct.Reserved)
	}
}

func TestChainRunner_ReferenceImageCap(t *testing.T) {
	f := newChainFixture()
	f.seedEpisode(t)

	f.chainConf.MaxRefImages = 2
	f.resolver.Refs.ImageURLs = []string{
		"https://refs.example/a.jpg",
		"https://refs.example/b.jpg",
		"https://refs.example/c.jpg",
	}

	f.run(t)

	submits := f.provider.Submits()
	if len(submits) == 0 {
		t.Fatal("no submissions recorded")
	}
	for i, sub := range submits {
		if len(sub.ImageURLs) != 2 {
			t.Fatalf("submission %d carried %d reference images, want 2", i+1, len(sub.ImageURLs))
		}
		if sub.ImageURLs[1] != "https://refs.example/a.jpg" {
			t.Errorf("submission %d second reference = %s, want first character ref", i+1, sub.ImageURLs[1])
		}
	}
}

func TestChainRunner_CharacterResolverFailureIsNonFatal(t *testing.T) {
	f := newChainFixture()
	f.seedEpisode(t)

	f.resolver.Err = errors.New("script service down")

	result := f.run(t)

	if result.Completed != 6 {
		t.Fatalf("completed = %d with unavailable cast list, want 6", result.Completed)
	}
	for _, prompt := range f.images.Prompts() {
		if strings.Contains(prompt, "Characters:") {
			t.Errorf("anchor prompt %q carries character descriptions that were never resolved", prompt)
		}
	}
}

func TestChainRunner_EmptyEpisode(t *testing.T) {
	f := newChainFixture()
	f.store.Seed(domain.Account{UserID: "u1", Balance: 100})

	result := f.run(t)

	if result.Total != 0 || result.Completed != 0 || result.Aborted {
		t.Fatalf("result = %+v, want empty no-op", result)
	}
}
