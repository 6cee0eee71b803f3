package dynamodb

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// AppendAudit writes one delivery-audit row under the booking. Keys carry a
// millisecond timestamp plus a random nonce so concurrent appends never
// collide.
func (s *DynamoDBStore) AppendAudit(ctx context.Context, bookingID string, entry types.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":   &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
			"SK":   &ddbtypes.AttributeValueMemberS{Value: auditSK(entry.CreatedAt)},
			"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
		},
	})
	if err != nil {
		return &types.PersistenceError{Op: "append audit", Err: err}
	}
	return nil
}

// ListAudit returns a booking's delivery audit rows, newest first.
func (s *DynamoDBStore) ListAudit(ctx context.Context, bookingID string, limit int) ([]types.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: bookingPK(bookingID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixAudit},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list audit", Err: err}
	}

	var entries []types.AuditEntry
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt audit data", "error", err)
			continue
		}
		var entry types.AuditEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping corrupt audit data", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
