package services

import (
	"context"
	"fmt"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

type segmentStatusChecker struct {
	logger    outbound.LoggerPort
	segments  outbound.SegmentStorePort
	providers outbound.GenerationProviderPort
	ledger    inbound.TokenLedgerPort
}

// NewSegmentStatusChecker builds the out-of-band poller. It races the chain
// runner on the done/failed transitions; whichever writer's conditional
// update lands settles the ledger, the other sees a no-op.
func NewSegmentStatusChecker(logger outbound.LoggerPort, segments outbound.SegmentStorePort,
	providers outbound.GenerationProviderPort, ledger inbound.TokenLedgerPort) inbound.SegmentStatusCheckerPort {
	return &segmentStatusChecker{
		logger:    logger,
		segments:  segments,
		providers: providers,
		ledger:    ledger,
	}
}

func (c *segmentStatusChecker) CheckSegment(ctx context.Context, segmentID string) (*inbound.CheckResult, error) {
	seg, err := c.segments.GetSegment(ctx, segmentID)
	if err != nil {
		return nil, err
	}

	if seg.Status != domain.SegmentSubmitted && seg.Status != domain.SegmentGenerating {
		return &inbound.CheckResult{Status: seg.Status, VideoURL: seg.VideoURL, Error: seg.ErrorMessage}, nil
	}
	if seg.ProviderTaskID == "" {
		return nil, fmt.Errorf("segment %s is %s but has no provider task id", seg.ID, seg.Status)
	}

	res, err := c.providers.Query(ctx, seg.Model, seg.ProviderTaskID)
	if err != nil {
		c.logger.ErrorWithFields(err, "provider query failed during status check", map[string]interface{}{
			"segmentID": seg.ID,
		})
		return nil, err
	}

	switch res.Status {
	case outbound.TaskDone:
		won, err := c.segments.MarkDone(ctx, seg.ID, res.VideoURL)
		if err != nil {
			return nil, err
		}
		if won {
			err = c.ledger.ConfirmDeduction(ctx, seg.UserID, seg.TokenCost, inbound.OperationMeta{
				Ref:         seg.ID,
				Description: fmt.Sprintf("video segment %d of episode %d", seg.SegmentIndex, seg.EpisodeNum),
				Extra:       map[string]string{"scriptId": seg.ScriptID},
			})
			if err != nil {
				return nil, err
			}
		}
		return &inbound.CheckResult{Status: domain.SegmentDone, VideoURL: res.VideoURL}, nil

	case outbound.TaskFailed:
		msg := res.Error
		if msg == "" {
			msg = "provider reported failure"
		}
		won, err := c.segments.MarkFailed(ctx, seg.ID, msg)
		if err != nil {
			return nil, err
		}
		if won {
			err = c.ledger.RefundReservation(ctx, seg.UserID, seg.TokenCost, "generation failed: "+seg.ID)
			if err != nil {
				return nil, err
			}
		}
		return &inbound.CheckResult{Status: domain.SegmentFailed, Error: msg}, nil

	default:
		if seg.Status == domain.SegmentSubmitted {
			if _, err := c.segments.MarkGenerating(ctx, seg.ID); err != nil {
				c.logger.Warn("failed to mark segment generating: " + err.Error())
			}
		}
		return &inbound.CheckResult{Status: domain.SegmentGenerating}, nil
	}
}
