package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
	"github.com/Lerfilm/opendrama-sub004/domain"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
)

const accountUpdateAttempts = 5

type dynamoAccountItem struct {
	UserID         string `dynamodbav:"user_id"`
	Balance        int64  `dynamodbav:"balance"`
	Reserved       int64  `dynamodbav:"reserved"`
	TotalPurchased int64  `dynamodbav:"total_purchased"`
	TotalConsumed  int64  `dynamodbav:"total_consumed"`
	Version        int64  `dynamodbav:"version"`
	UpdatedAt      int64  `dynamodbav:"updated_at"`
}

type dynamoEntryItem struct {
	UserID       string            `dynamodbav:"user_id"`
	EntryID      string            `dynamodbav:"entry_id"`
	Type         string            `dynamodbav:"type"`
	Amount       int64             `dynamodbav:"amount"`
	BalanceAfter int64             `dynamodbav:"balance_after"`
	Description  string            `dynamodbav:"description"`
	Ref          string            `dynamodbav:"ref,omitempty"`
	Metadata     map[string]string `dynamodbav:"metadata,omitempty"`
	CreatedAt    int64             `dynamodbav:"created_at"`
}

type dynamoLedgerStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

// NewDynamoLedgerStore persists accounts with an optimistic version check:
// UpdateAccount re-reads and retries when a concurrent writer bumped the
// version first, so two reservations can never both draw from the same
// available balance.
func NewDynamoLedgerStore(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB, dynamoConfig *config.DynamoConfig) outbound.LedgerStorePort {
	return &dynamoLedgerStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoLedgerStore) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	out, err := s.dynamoSvc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.dynamoConfig.AccountsTableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]*dynamodb.AttributeValue{
			"user_id": {S: aws.String(userID)},
		},
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to load account", map[string]interface{}{
			"userID": userID,
		})
		return nil, err
	}
	if out.Item == nil {
		return nil, domain.ErrAccountNotFound
	}

	var item dynamoAccountItem
	err = dynamodbattribute.UnmarshalMap(out.Item, &item)
	if err != nil {
		s.logger.Error(err, "Failed to unmarshal account item")
		return nil, err
	}
	return accountFromItem(item), nil
}

func (s *dynamoLedgerStore) UpdateAccount(ctx context.Context, userID string, fn outbound.AccountUpdateFn) (*domain.Account, error) {
	for attempt := 0; attempt < accountUpdateAttempts; attempt++ {
		acct, err := s.GetAccount(ctx, userID)
		if errors.Is(err, domain.ErrAccountNotFound) {
			acct = &domain.Account{UserID: userID}
		} else if err != nil {
			return nil, err
		}

		prevVersion := acct.Version
		if err := fn(acct); err != nil {
			return nil, err
		}
		acct.Version = prevVersion + 1
		acct.UpdatedAt = time.Now().UTC()

		err = s.putAccount(ctx, acct, prevVersion)
		if err == nil {
			return acct, nil
		}
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			// Lost the race; re-read and retry.
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("account update contention for user %s after %d attempts", userID, accountUpdateAttempts)
}

func (s *dynamoLedgerStore) putAccount(ctx context.Context, acct *domain.Account, prevVersion int64) error {
	av, err := dynamodbattribute.MarshalMap(itemFromAccount(acct))
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(s.dynamoConfig.AccountsTableName),
		Item:      av,
	}
	if prevVersion == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(user_id) OR version = :prev")
	} else {
		input.ConditionExpression = aws.String("version = :prev")
	}
	input.ExpressionAttributeValues = map[string]*dynamodb.AttributeValue{
		":prev": {N: aws.String(fmt.Sprintf("%d", prevVersion))},
	}

	_, err = s.dynamoSvc.PutItemWithContext(ctx, input)
	return err
}

func (s *dynamoLedgerStore) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	item := dynamoEntryItem{
		UserID:       entry.UserID,
		EntryID:      entry.ID,
		Type:         string(entry.Type),
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		Description:  entry.Description,
		Ref:          entry.Ref,
		Metadata:     entry.Metadata,
		CreatedAt:    entry.CreatedAt.UnixMilli(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		s.logger.Error(err, "Failed to marshal ledger entry item")
		return err
	}

	_, err = s.dynamoSvc.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.dynamoConfig.EntriesTableName),
		Item:      av,
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to append ledger entry", map[string]interface{}{
			"userID": entry.UserID,
			"type":   string(entry.Type),
		})
		return err
	}
	return nil
}

func (s *dynamoLedgerStore) HasEntryRef(ctx context.Context, userID string, ref string) (bool, error) {
	out, err := s.dynamoSvc.QueryWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.dynamoConfig.EntriesTableName),
		IndexName:              aws.String("ref-index"),
		KeyConditionExpression: aws.String("#ref = :ref"),
		ExpressionAttributeNames: map[string]*string{
			"#ref": aws.String("ref"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":ref": {S: aws.String(ref)},
		},
		Limit:  aws.Int64(1),
		Select: aws.String(dynamodb.SelectCount),
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to query entry ref", map[string]interface{}{
			"userID": userID,
			"ref":    ref,
		})
		return false, err
	}
	return aws.Int64Value(out.Count) > 0, nil
}

func accountFromItem(item dynamoAccountItem) *domain.Account {
	return &domain.Account{
		UserID:         item.UserID,
		Balance:        item.Balance,
		Reserved:       item.Reserved,
		TotalPurchased: item.TotalPurchased,
		TotalConsumed:  item.TotalConsumed,
		Version:        item.Version,
		UpdatedAt:      time.UnixMilli(item.UpdatedAt).UTC(),
	}
}

func itemFromAccount(acct *domain.Account) dynamoAccountItem {
	return dynamoAccountItem{
		UserID:         acct.UserID,
		Balance:        acct.Balance,
		Reserved:       acct.Reserved,
		TotalPurchased: acct.TotalPurchased,
		TotalConsumed:  acct.TotalConsumed,
		Version:        acct.Version,
		UpdatedAt:      acct.UpdatedAt.UnixMilli(),
	}
}
