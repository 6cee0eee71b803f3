package dynamodb

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// AppendReschedule writes one AI generation under the booking's history.
func (s *DynamoDBStore) AppendReschedule(ctx context.Context, bookingID string, entry types.RescheduleEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":   &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
			"SK":   &ddbtypes.AttributeValueMemberS{Value: reschedSK(entry.CreatedAt, entry.ID)},
			"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
		},
	})
	if err != nil {
		return &types.PersistenceError{Op: "append reschedule", Err: err}
	}
	return nil
}

// DeleteReschedules removes every generation under a booking. Used when a
// training-level change invalidates the stored suggestions.
func (s *DynamoDBStore) DeleteReschedules(ctx context.Context, bookingID string) error {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixResched},
		},
		ProjectionExpression: aws.String("PK, SK"),
	})
	if err != nil {
		return &types.PersistenceError{Op: "list reschedules for delete", Err: err}
	}

	for _, item := range out.Items {
		sk, err := attributeStr(item, "SK")
		if err != nil {
			continue
		}
		_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: &s.tableName,
			Key: map[string]ddbtypes.AttributeValue{
				"PK": &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
				"SK": &ddbtypes.AttributeValueMemberS{Value: sk},
			},
		})
		if err != nil {
			return &types.PersistenceError{Op: "delete reschedule", Err: err}
		}
	}
	return nil
}

// ListReschedules returns a booking's generation history, newest first.
func (s *DynamoDBStore) ListReschedules(ctx context.Context, bookingID string, limit int) ([]types.RescheduleEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixResched},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list reschedules", Err: err}
	}

	var entries []types.RescheduleEntry
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt reschedule data", "error", err)
			continue
		}
		var entry types.RescheduleEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping corrupt reschedule data", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
