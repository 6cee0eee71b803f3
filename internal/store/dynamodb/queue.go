package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/internal/store"
	"github.com/clearskies-aero/clearskies/pkg/types"
)

// casRetries bounds optimistic-concurrency retries on a queue record.
const casRetries = 3

// GetQueueRecord retrieves the record under the dedupe key, or nil when none
// exists.
func (s *DynamoDBStore) GetQueueRecord(ctx context.Context, key types.NotificationKey) (*types.NotificationRecord, error) {
	rec, _, err := s.getQueueRecordVersioned(ctx, key)
	return rec, err
}

func (s *DynamoDBStore) getQueueRecordVersioned(ctx context.Context, key types.NotificationKey) (*types.NotificationRecord, int64, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.tableName,
		ConsistentRead: aws.Bool(true),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: queuePK(key)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skRecord},
		},
	})
	if err != nil {
		return nil, 0, &types.PersistenceError{Op: "get queue record", Err: err}
	}
	if out.Item == nil {
		return nil, 0, nil
	}

	data, err := attributeStr(out.Item, "data")
	if err != nil {
		return nil, 0, err
	}
	var rec types.NotificationRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, 0, err
	}
	version, err := attributeInt(out.Item, "version")
	if err != nil {
		return nil, 0, err
	}
	return &rec, version, nil
}

// UpdateQueueRecord applies txn under optimistic concurrency. Each pass reads
// the current record, runs the pure transition, then writes conditionally on
// the version it read. Conflicting writers rerun the transition against the
// fresh state.
func (s *DynamoDBStore) UpdateQueueRecord(ctx context.Context, key types.NotificationKey, txn store.QueueTxn) (*types.NotificationRecord, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		existing, version, err := s.getQueueRecordVersioned(ctx, key)
		if err != nil {
			return nil, err
		}

		next := txn(cloneRecord(existing))
		if next == nil {
			return existing, nil
		}

		var writeErr error
		if existing == nil {
			writeErr = s.insertQueueRecord(ctx, key, *next)
		} else {
			writeErr = s.replaceQueueRecord(ctx, key, *next, version)
		}
		if writeErr == nil {
			return next, nil
		}
		if !isConditionalCheckFailed(writeErr) {
			return nil, &types.PersistenceError{Op: "update queue record", Err: writeErr}
		}
		// Lost the race; re-read and retry.
	}
	return nil, &types.PersistenceError{
		Op:  "update queue record",
		Err: fmt.Errorf("gave up after %d conflicting writes for %s", casRetries, queuePK(key)),
	}
}

func (s *DynamoDBStore) insertQueueRecord(ctx context.Context, key types.NotificationKey, rec types.NotificationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	item := map[string]ddbtypes.AttributeValue{
		"PK":      &ddbtypes.AttributeValueMemberS{Value: queuePK(key)},
		"SK":      &ddbtypes.AttributeValueMemberS{Value: skRecord},
		"data":    &ddbtypes.AttributeValueMemberS{Value: string(data)},
		"version": &ddbtypes.AttributeValueMemberN{Value: "1"},
	}
	if gsiPK, gsiSK, ok := queueGSI1(rec); ok {
		item["GSI1PK"] = &ddbtypes.AttributeValueMemberS{Value: gsiPK}
		item["GSI1SK"] = &ddbtypes.AttributeValueMemberS{Value: gsiSK}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	return err
}

func (s *DynamoDBStore) replaceQueueRecord(ctx context.Context, key types.NotificationKey, rec types.NotificationRecord, expectedVersion int64) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	update := "SET #data = :data, #version = :newVersion"
	names := map[string]string{
		"#data":    "data",
		"#version": "version",
	}
	values := map[string]ddbtypes.AttributeValue{
		":data":            &ddbtypes.AttributeValueMemberS{Value: string(data)},
		":newVersion":      &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion+1)},
		":expectedVersion": &ddbtypes.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
	}

	if gsiPK, gsiSK, ok := queueGSI1(rec); ok {
		update += ", GSI1PK = :gsiPK, GSI1SK = :gsiSK"
		values[":gsiPK"] = &ddbtypes.AttributeValueMemberS{Value: gsiPK}
		values[":gsiSK"] = &ddbtypes.AttributeValueMemberS{Value: gsiSK}
	} else {
		update += " REMOVE GSI1PK, GSI1SK"
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: queuePK(key)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skRecord},
		},
		UpdateExpression:          aws.String(update),
		ConditionExpression:       aws.String("#version = :expectedVersion"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// ListDueQueueRecords returns pending records due at or before now, oldest
// first.
func (s *DynamoDBStore) ListDueQueueRecords(ctx context.Context, now time.Time, limit int) ([]types.NotificationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK <= :now"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":  &ddbtypes.AttributeValueMemberS{Value: prefixQStatus + string(types.QueuePending)},
			":now": &ddbtypes.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list due queue records", Err: err}
	}

	var records []types.NotificationRecord
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt queue record", "error", err)
			continue
		}
		var rec types.NotificationRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			s.logger.Warn("skipping corrupt queue record", "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// cloneRecord gives the transition its own copy so retries never see partial
// mutations.
func cloneRecord(rec *types.NotificationRecord) *types.NotificationRecord {
	if rec == nil {
		return nil
	}
	cp := *rec
	if rec.Payload.Violations != nil {
		cp.Payload.Violations = append([]string(nil), rec.Payload.Violations...)
	}
	if rec.Payload.Options != nil {
		cp.Payload.Options = append([]types.Suggestion(nil), rec.Payload.Options...)
	}
	return &cp
}
