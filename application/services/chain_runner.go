package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

type chainRunner struct {
	logger      outbound.LoggerPort
	ledger      inbound.TokenLedgerPort
	segments    outbound.SegmentStorePort
	providers   outbound.GenerationProviderPort
	anchors     inbound.AnchorGeneratorPort
	frames      outbound.FrameExtractorPort
	anchorStore outbound.AnchorStorePort
	characters  outbound.CharacterResolverPort
	conf        *config.ChainConfig
}

func NewChainRunner(logger outbound.LoggerPort, ledger inbound.TokenLedgerPort, segments outbound.SegmentStorePort,
	providers outbound.GenerationProviderPort, anchors inbound.AnchorGeneratorPort, frames outbound.FrameExtractorPort,
	anchorStore outbound.AnchorStorePort, characters outbound.CharacterResolverPort, conf *config.ChainConfig) inbound.ChainRunnerPort {
	return &chainRunner{
		logger:      logger,
		ledger:      ledger,
		segments:    segments,
		providers:   providers,
		anchors:     anchors,
		frames:      frames,
		anchorStore: anchorStore,
		characters:  characters,
		conf:        conf,
	}
}

func (r *chainRunner) RunChain(ctx context.Context, params inbound.RunChainParams) (*inbound.ChainResult, error) {
	segs, err := r.segments.ListByEpisode(ctx, params.ScriptID, params.EpisodeNum, []domain.SegmentStatus{domain.SegmentReserved})
	if err != nil {
		r.logger.Error(err, "failed to list reserved segments")
		return nil, err
	}
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].SceneNum != segs[j].SceneNum {
			return segs[i].SceneNum < segs[j].SceneNum
		}
		return segs[i].SegmentIndex < segs[j].SegmentIndex
	})

	result := &inbound.ChainResult{Total: len(segs)}
	if len(segs) == 0 {
		return result, nil
	}

	charRefs := r.resolveCharacters(ctx, params.ScriptID)

	r.logger.InfoWithFields("starting segment chain", map[string]interface{}{
		"scriptID": params.ScriptID,
		"episode":  params.EpisodeNum,
		"segments": len(segs),
	})

	anchorURL := ""
	for i := range segs {
		seg := segs[i]

		newScene := i == 0 || seg.SceneNum != segs[i-1].SceneNum
		if newScene {
			anchorURL, err = r.generateSceneAnchor(ctx, seg, charRefs)
			if err != nil {
				r.abortFrom(ctx, segs, i, fmt.Sprintf("anchor generation failed: %v", err), result)
				return result, nil
			}
		}

		err = r.segments.SetSeedImage(ctx, seg.ID, anchorURL)
		if err != nil {
			r.abortFrom(ctx, segs, i, fmt.Sprintf("failed to persist seed image: %v", err), result)
			return result, nil
		}

		taskID, err := r.providers.Submit(ctx, outbound.SubmitTaskParams{
			Model:       seg.Model,
			Resolution:  seg.Resolution,
			Prompt:      seg.Prompt,
			ImageURLs:   r.referenceImages(anchorURL, charRefs),
			DurationSec: seg.DurationSec,
		})
		if err != nil {
			r.abortFrom(ctx, segs, i, fmt.Sprintf("provider submission failed: %v", err), result)
			return result, nil
		}

		ok, err := r.segments.MarkSubmitted(ctx, seg.ID, taskID)
		if err != nil {
			r.abortFrom(ctx, segs, i, fmt.Sprintf("failed to record submission: %v", err), result)
			return result, nil
		}
		if !ok {
			r.abortFrom(ctx, segs, i, "segment left reserved state before submission", result)
			return result, nil
		}

		videoURL, pollErr := r.pollVideoTask(ctx, seg, taskID)
		if pollErr != nil {
			r.abortFrom(ctx, segs, i, pollErr.Error(), result)
			return result, nil
		}

		won, err := r.segments.MarkDone(ctx, seg.ID, videoURL)
		if err != nil {
			r.abortFrom(ctx, segs, i, fmt.Sprintf("failed to record completion: %v", err), result)
			return result, nil
		}
		if won {
			err = r.ledger.ConfirmDeduction(ctx, seg.UserID, seg.TokenCost, inbound.OperationMeta{
				Ref:         seg.ID,
				Description: fmt.Sprintf("video segment %d of episode %d", seg.SegmentIndex, seg.EpisodeNum),
				Extra:       map[string]string{"scriptId": seg.ScriptID},
			})
			if err != nil {
				// The clip is delivered; only the remainder of the chain stops.
				r.abortRemaining(ctx, segs, i+1, "ledger settlement failed for an earlier segment", result)
				result.Completed++
				return result, nil
			}
		}
		result.Completed++

		lastInScene := i == len(segs)-1 || segs[i+1].SceneNum != seg.SceneNum
		if lastInScene {
			anchorURL = ""
			continue
		}

		frame, err := r.frames.ExtractFrame(ctx, videoURL, float64(seg.DurationSec))
		if err != nil {
			r.abortRemaining(ctx, segs, i+1, fmt.Sprintf("frame extraction failed: %v", err), result)
			return result, nil
		}
		anchorURL, err = r.anchorStore.SaveBytes(ctx, seg.ScriptID, segs[i+1].ID, frame)
		if err != nil {
			r.abortRemaining(ctx, segs, i+1, fmt.Sprintf("failed to store extracted frame: %v", err), result)
			return result, nil
		}
	}

	r.logger.InfoWithFields("segment chain finished", map[string]interface{}{
		"scriptID":  params.ScriptID,
		"episode":   params.EpisodeNum,
		"completed": result.Completed,
	})
	return result, nil
}

func (r *chainRunner) resolveCharacters(ctx context.Context, scriptID string) *domain.CharacterRefs {
	refs, err := r.characters.Resolve(ctx, scriptID)
	if err != nil {
		// Cast material only enriches prompts; a missing cast list must not
		// sink an already-paid-for chain.
		r.logger.WarnWithFields("failed to resolve character refs, continuing without", map[string]interface{}{
			"scriptID": scriptID,
			"error":    err.Error(),
		})
		return &domain.CharacterRefs{}
	}
	return refs
}

func (r *chainRunner) generateSceneAnchor(ctx context.Context, seg domain.Segment, charRefs *domain.CharacterRefs) (string, error) {
	anchorCtx, cancel := context.WithTimeout(ctx, r.conf.AnchorTimeout)
	defer cancel()

	rawURL, err := r.anchors.Generate(anchorCtx, inbound.GenerateAnchorParams{
		Prompt:        seg.Prompt,
		Resolution:    seg.Resolution,
		CharacterDesc: charRefs.Descriptions,
	})
	if err != nil {
		return "", err
	}

	// Provider URLs expire; mirror before anything depends on them.
	return r.anchorStore.MirrorURL(ctx, seg.ScriptID, seg.ID, rawURL)
}

func (r *chainRunner) referenceImages(anchorURL string, charRefs *domain.CharacterRefs) []string {
	urls := append([]string{anchorURL}, charRefs.ImageURLs...)
	if len(urls) > r.conf.MaxRefImages {
		urls = urls[:r.conf.MaxRefImages]
	}
	return urls
}

func (r *chainRunner) pollVideoTask(ctx context.Context, seg domain.Segment, taskID string) (string, error) {
	ticker := time.NewTicker(r.conf.PollInterval)
	defer ticker.Stop()

	markedGenerating := false
	for attempt := 0; attempt < r.conf.MaxVideoPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("generation interrupted: %w", ctx.Err())
		case <-ticker.C:
		}

		res, err := r.providers.Query(ctx, seg.Model, taskID)
		if err != nil {
			return "", fmt.Errorf("provider query failed: %v", err)
		}

		switch res.Status {
		case outbound.TaskGenerating:
			if !markedGenerating {
				// Informational transition; losing it changes nothing.
				if _, err := r.segments.MarkGenerating(ctx, seg.ID); err != nil {
					r.logger.Warn("failed to mark segment generating: " + err.Error())
				}
				markedGenerating = true
			}
		case outbound.TaskDone:
			return res.VideoURL, nil
		case outbound.TaskFailed:
			if res.Error != "" {
				return "", fmt.Errorf("provider reported failure: %s", res.Error)
			}
			return "", fmt.Errorf("provider reported failure")
		}
	}

	return "", fmt.Errorf("generation timed out after %d polls of %s", r.conf.MaxVideoPolls, r.conf.PollInterval)
}

// abortFrom fails the segment at index failedIdx with its own fault message,
// refunds its reservation, then cascades over the rest of the chain.
func (r *chainRunner) abortFrom(ctx context.Context, segs []domain.Segment, failedIdx int, msg string, result *inbound.ChainResult) {
	seg := segs[failedIdx]
	won, err := r.segments.MarkFailed(ctx, seg.ID, msg)
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to mark segment failed", map[string]interface{}{
			"segmentID": seg.ID,
		})
	}
	if won {
		result.Failed++
		err = r.ledger.RefundReservation(ctx, seg.UserID, seg.TokenCost, "generation failed: "+seg.ID)
		if err != nil {
			r.logger.Error(err, "failed to refund failed segment reservation")
		}
	}
	r.abortRemaining(ctx, segs, failedIdx+1, msg, result)
}

// abortRemaining fails every not-yet-started segment from index from onward
// and releases their reservations in one batched refund. In-flight provider
// tasks for those segments are not cancelled; they finish orphaned.
func (r *chainRunner) abortRemaining(ctx context.Context, segs []domain.Segment, from int, cause string, result *inbound.ChainResult) {
	result.Aborted = true
	result.AbortedAt = from - 1
	result.Reason = cause
	if from >= len(segs) {
		return
	}

	ids := make([]string, 0, len(segs)-from)
	for _, seg := range segs[from:] {
		ids = append(ids, seg.ID)
	}

	failedIDs, err := r.segments.FailRemaining(ctx, ids, "aborted: earlier segment in chain failed: "+cause)
	if err != nil {
		r.logger.Error(err, "failed to abort remaining chain segments")
		return
	}
	result.Failed += len(failedIDs)

	failedSet := make(map[string]bool, len(failedIDs))
	for _, id := range failedIDs {
		failedSet[id] = true
	}
	var refund int64
	for _, seg := range segs[from:] {
		if failedSet[seg.ID] {
			refund += seg.TokenCost
		}
	}
	if refund == 0 {
		return
	}

	err = r.ledger.RefundReservation(ctx, segs[0].UserID, refund, fmt.Sprintf("chain aborted, released %s", strings.Join(failedIDs, ",")))
	if err != nil {
		r.logger.ErrorWithFields(err, "failed to refund aborted chain reservations", map[string]interface{}{
			"amount":   refund,
			"segments": len(failedIDs),
		})
	}
}
