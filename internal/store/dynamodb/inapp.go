package dynamodb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// PutInAppNotification upserts the event row. The key is derived from
// (user, booking, type), so repeat writes refresh the same row instead of
// duplicating it. An existing row keeps its original createdAt. The unread
// flag is stored as a native attribute so listing can filter without
// decoding payloads.
func (s *DynamoDBStore) PutInAppNotification(ctx context.Context, n types.InAppNotification) error {
	if existing, err := s.getInAppNotification(ctx, n.UserID, n.BookingID, n.Type); err == nil && existing != nil && !existing.CreatedAt.IsZero() {
		n.CreatedAt = existing.CreatedAt
	}
	return s.writeInAppNotification(ctx, n, nil)
}

// EnsureInAppNotification writes the event row only when none exists yet.
// An existing row is left untouched, whatever its read state.
func (s *DynamoDBStore) EnsureInAppNotification(ctx context.Context, n types.InAppNotification) error {
	err := s.writeInAppNotification(ctx, n, aws.String("attribute_not_exists(PK)"))
	if isConditionalCheckFailed(err) {
		return nil
	}
	return err
}

func (s *DynamoDBStore) writeInAppNotification(ctx context.Context, n types.InAppNotification, condition *string) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item: map[string]ddbtypes.AttributeValue{
			"PK":     &ddbtypes.AttributeValueMemberS{Value: userPK(n.UserID)},
			"SK":     &ddbtypes.AttributeValueMemberS{Value: notifySK(n.BookingID, n.Type)},
			"data":   &ddbtypes.AttributeValueMemberS{Value: string(data)},
			"isRead": &ddbtypes.AttributeValueMemberBOOL{Value: n.Read},
		},
		ConditionExpression: condition,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return err
		}
		return &types.PersistenceError{Op: "put in-app notification", Err: err}
	}
	return nil
}

func (s *DynamoDBStore) getInAppNotification(ctx context.Context, userID, bookingID string, notifType types.NotificationType) (*types.InAppNotification, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: userPK(userID)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: notifySK(bookingID, notifType)},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "get in-app notification", Err: err}
	}
	if out.Item == nil {
		return nil, nil
	}
	data, err := attributeStr(out.Item, "data")
	if err != nil {
		return nil, err
	}
	var n types.InAppNotification
	if err := json.Unmarshal([]byte(data), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListUnreadNotifications returns a user's unread events, newest first by
// createdAt. The sort key orders by booking and type, so ordering happens
// after decode.
func (s *DynamoDBStore) ListUnreadNotifications(ctx context.Context, userID string) ([]types.InAppNotification, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		FilterExpression:       aws.String("isRead = :unread"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixNotify},
			":unread": &ddbtypes.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list unread notifications", Err: err}
	}

	var notifications []types.InAppNotification
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt notification data", "error", err)
			continue
		}
		var n types.InAppNotification
		if err := json.Unmarshal([]byte(data), &n); err != nil {
			s.logger.Warn("skipping corrupt notification data", "error", err)
			continue
		}
		notifications = append(notifications, n)
	}
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID < notifications[j].ID
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return notifications, nil
}

// MarkNotificationRead flips the unread flag on one event row. The row is
// located by scanning the user's events for the matching ID, since callers
// hold the synthetic ID rather than the (booking, type) pair.
func (s *DynamoDBStore) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: userPK(userID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixNotify},
		},
	})
	if err != nil {
		return &types.PersistenceError{Op: "mark notification read", Err: err}
	}

	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			continue
		}
		var n types.InAppNotification
		if err := json.Unmarshal([]byte(data), &n); err != nil || n.ID != notificationID {
			continue
		}
		n.Read = true
		return s.writeInAppNotification(ctx, n, nil)
	}
	return nil
}
