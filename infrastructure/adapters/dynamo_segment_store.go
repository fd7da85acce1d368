package adapters

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/domain"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

type dynamoSegmentItem struct {
	SegmentID      string `dynamodbav:"segment_id"`
	ChainKey       string `dynamodbav:"chain_key"`
	ScriptID       string `dynamodbav:"script_id"`
	UserID         string `dynamodbav:"user_id"`
	EpisodeNum     int    `dynamodbav:"episode_num"`
	SceneNum       int    `dynamodbav:"scene_num"`
	SegmentIndex   int    `dynamodbav:"segment_index"`
	DurationSec    int    `dynamodbav:"duration_sec"`
	Prompt         string `dynamodbav:"prompt"`
	Model          string `dynamodbav:"model"`
	Resolution     string `dynamodbav:"resolution"`
	Status         string `dynamodbav:"status"`
	ProviderTaskID string `dynamodbav:"provider_task_id,omitempty"`
	TokenCost      int64  `dynamodbav:"token_cost"`
	SeedImageURL   string `dynamodbav:"seed_image_url,omitempty"`
	VideoURL       string `dynamodbav:"video_url,omitempty"`
	ErrorMessage   string `dynamodbav:"error_message,omitempty"`
}

type dynamoSegmentStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

// NewDynamoSegmentStore keeps segment state in DynamoDB. All status
// transitions go through conditional updates on the current status, which is
// the compare-and-swap that arbitrates between the chain runner and the
// out-of-band status checker.
func NewDynamoSegmentStore(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB, dynamoConfig *config.DynamoConfig) outbound.SegmentStorePort {
	return &dynamoSegmentStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func chainKey(scriptID string, episodeNum int) string {
	return fmt.Sprintf("%s#%d", scriptID, episodeNum)
}

func (s *dynamoSegmentStore) GetSegment(ctx context.Context, segmentID string) (*domain.Segment, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.dynamoConfig.SegmentsTableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			"segment_id": {S: aws.String(segmentID)},
		},
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to load segment", map[string]interface{}{
			"segmentID": segmentID,
		})
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrSegmentNotFound
	}

	var item dynamoSegmentItem
	err = dynamodbattribute.UnmarshalMap(out.Item, &item)
	if err != nil {
		s.logger.Error(err, "Failed to unmarshal segment item")
		return nil, err
	}
	seg := segmentFromItem(item)
	return &seg, nil
}

func (s *dynamoSegmentStore) ListByEpisode(ctx context.Context, scriptID string, episodeNum int, statuses []domain.SegmentStatus) ([]domain.Segment, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.dynamoConfig.SegmentsTableName),
		IndexName:              aws.String("chain-key-index"),
		KeyConditionExpression: aws.String("chain_key = :ck"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":ck": {S: aws.String(chainKey(scriptID, episodeNum))},
		},
	}

	segments := make([]domain.Segment, 0)
	err := s.dynamoSvc.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, lastPage bool) bool {
		for _, raw := range page.Items {
			var item dynamoSegmentItem
			if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
				s.logger.Error(err, "Failed to unmarshal segment item, skipping")
				continue
			}
			segments = append(segments, segmentFromItem(item))
		}
		return true
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to query episode segments", map[string]interface{}{
			"scriptID": scriptID,
			"episode":  episodeNum,
		})
		return nil, err
	}

	if len(statuses) > 0 {
		wanted := make(map[domain.SegmentStatus]bool, len(statuses))
		for _, st := range statuses {
			wanted[st] = true
		}
		filtered := segments[:0]
		for _, seg := range segments {
			if wanted[seg.Status] {
				filtered = append(filtered, seg)
			}
		}
		segments = filtered
	}

	sort.SliceStable(segments, func(i, j int) bool {
		if segments[i].SceneNum != segments[j].SceneNum {
			return segments[i].SceneNum < segments[j].SceneNum
		}
		return segments[i].SegmentIndex < segments[j].SegmentIndex
	})
	return segments, nil
}

func (s *dynamoSegmentStore) SetSeedImage(ctx context.Context, segmentID string, seedImageURL string) error {
	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.dynamoConfig.SegmentsTableName),
		Key: map[string]*dynamodb.AttributeValue{
			"segment_id": {S: aws.String(segmentID)},
		},
		UpdateExpression: aws.String("SET seed_image_url = :url"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":url": {S: aws.String(seedImageURL)},
		},
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to persist seed image", map[string]interface{}{
			"segmentID": segmentID,
		})
	}
	return err
}

func (s *dynamoSegmentStore) MarkSubmitted(ctx context.Context, segmentID string, providerTaskID string) (bool, error) {
	return s.conditionalUpdate(ctx, segmentID,
		"SET #st = :next, provider_task_id = :tid",
		[]domain.SegmentStatus{domain.SegmentReserved},
		map[string]*dynamodb.AttributeValue{
			":next": {S: aws.String(string(domain.SegmentSubmitted))},
			":tid":  {S: aws.String(providerTaskID)},
		})
}

func (s *dynamoSegmentStore) MarkGenerating(ctx context.Context, segmentID string) (bool, error) {
	return s.conditionalUpdate(ctx, segmentID,
		"SET #st = :next",
		[]domain.SegmentStatus{domain.SegmentSubmitted},
		map[string]*dynamodb.AttributeValue{
			":next": {S: aws.String(string(domain.SegmentGenerating))},
		})
}

func (s *dynamoSegmentStore) MarkDone(ctx context.Context, segmentID string, videoURL string) (bool, error) {
	return s.conditionalUpdate(ctx, segmentID,
		"SET #st = :next, video_url = :url",
		[]domain.SegmentStatus{domain.SegmentSubmitted, domain.SegmentGenerating},
		map[string]*dynamodb.AttributeValue{
			":next": {S: aws.String(string(domain.SegmentDone))},
			":url":  {S: aws.String(videoURL)},
		})
}

func (s *dynamoSegmentStore) MarkFailed(ctx context.Context, segmentID string, errorMessage string) (bool, error) {
	return s.conditionalUpdate(ctx, segmentID,
		"SET #st = :next, error_message = :msg",
		[]domain.SegmentStatus{domain.SegmentPending, domain.SegmentReserved, domain.SegmentSubmitted, domain.SegmentGenerating},
		map[string]*dynamodb.AttributeValue{
			":next": {S: aws.String(string(domain.SegmentFailed))},
			":msg":  {S: aws.String(errorMessage)},
		})
}

func (s *dynamoSegmentStore) FailRemaining(ctx context.Context, segmentIDs []string, errorMessage string) ([]string, error) {
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

// conditionalUpdate applies the update only while the segment status is in
// the expected set; a lost condition check reports (false, nil).
func (s *dynamoSegmentStore) conditionalUpdate(ctx context.Context, segmentID string, updateExpr string,
	expected []domain.SegmentStatus, values map[string]*dynamodb.AttributeValue) (bool, error) {
	placeholders := make([]string, 0, len(expected))
	for i, st := range expected {
		name := fmt.Sprintf(":exp%d", i)
		placeholders = append(placeholders, name)
		values[name] = &dynamodb.AttributeValue{S: aws.String(string(st))}
	}
	condition := "#st IN (" + joinPlaceholders(placeholders) + ")"

	_, err := s.dynamoSvc.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.dynamoConfig.SegmentsTableName),
		Key: map[string]*dynamodb.AttributeValue{
			"segment_id": {S: aws.String(segmentID)},
		},
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  map[string]*string{"#st": aws.String("status")},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return false, nil
		}
		s.logger.ErrorWithFields(err, "Failed to update segment status", map[string]interface{}{
			"segmentID": segmentID,
		})
		return false, err
	}
	return true, nil
}

func joinPlaceholders(placeholders []string) string {
	out := ""
	for i, p := range placeholders {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

func segmentFromItem(item dynamoSegmentItem) domain.Segment {
	return domain.Segment{
		ID:             item.SegmentID,
		ScriptID:       item.ScriptID,
		UserID:         item.UserID,
		EpisodeNum:     item.EpisodeNum,
		SceneNum:       item.SceneNum,
		SegmentIndex:   item.SegmentIndex,
		DurationSec:    item.DurationSec,
		Prompt:         item.Prompt,
		Model:          item.Model,
		Resolution:     item.Resolution,
		Status:         domain.SegmentStatus(item.Status),
		ProviderTaskID: item.ProviderTaskID,
		TokenCost:      item.TokenCost,
		SeedImageURL:   item.SeedImageURL,
		VideoURL:       item.VideoURL,
		ErrorMessage:   item.ErrorMessage,
	}
}
