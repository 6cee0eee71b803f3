package dynamodb

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// AppendError writes one operator error-log row.
func (s *DynamoDBStore) AppendError(ctx context.Context, entry types.ErrorEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":   &ddbtypes.AttributeValueMemberS{Value: pkErrorLog},
			"SK":   &ddbtypes.AttributeValueMemberS{Value: errorSK(entry.Timestamp, entry.ID)},
			"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
		},
	})
	if err != nil {
		return &types.PersistenceError{Op: "append error", Err: err}
	}
	return nil
}

// ListErrors returns recent operator error-log rows, newest first.
func (s *DynamoDBStore) ListErrors(ctx context.Context, limit int) ([]types.ErrorEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: pkErrorLog},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixError},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list errors", Err: err}
	}

	var entries []types.ErrorEntry
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt error data", "error", err)
			continue
		}
		var entry types.ErrorEntry
		if err := json.Unmarshal([]byte(data), &entry); err != nil {
			s.logger.Warn("skipping corrupt error data", "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
