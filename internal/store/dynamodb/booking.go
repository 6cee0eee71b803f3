package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// PutBooking stores a booking using dual-write: truth item + per-student list
// copy. The truth item carries the GSI1 attributes while the booking is
// scheduled.
func (s *DynamoDBStore) PutBooking(ctx context.Context, booking types.Booking) error {
	data, err := json.Marshal(booking)
	if err != nil {
		return err
	}

	truth := map[string]ddbtypes.AttributeValue{
		"PK":   &ddbtypes.AttributeValueMemberS{Value: bookingPK(booking.ID)},
		"SK":   &ddbtypes.AttributeValueMemberS{Value: skRecord},
		"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
	}
	if gsiPK, gsiSK, ok := bookingGSI1(booking); ok {
		truth["GSI1PK"] = &ddbtypes.AttributeValueMemberS{Value: gsiPK}
		truth["GSI1SK"] = &ddbtypes.AttributeValueMemberS{Value: gsiSK}
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []ddbtypes.TransactWriteItem{
			{
				Put: &ddbtypes.Put{
					TableName: &s.tableName,
					Item:      truth,
				},
			},
			{
				Put: &ddbtypes.Put{
					TableName: &s.tableName,
					Item: map[string]ddbtypes.AttributeValue{
						"PK":   &ddbtypes.AttributeValueMemberS{Value: studentPK(booking.StudentID)},
						"SK":   &ddbtypes.AttributeValueMemberS{Value: bookingListSK(booking.ScheduledDate, booking.ID)},
						"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
					},
				},
			},
		},
	})
	if err != nil {
		return &types.PersistenceError{Op: "put booking", Err: err}
	}
	return nil
}

// GetBooking retrieves a booking from the truth item (strongly consistent).
func (s *DynamoDBStore) GetBooking(ctx context.Context, id string) (*types.Booking, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &s.tableName,
		ConsistentRead: aws.Bool(true),
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: bookingPK(id)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skRecord},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "get booking", Err: err}
	}
	if out.Item == nil {
		return nil, fmt.Errorf("booking %q not found", id)
	}

	data, err := attributeStr(out.Item, "data")
	if err != nil {
		return nil, err
	}
	var booking types.Booking
	if err := json.Unmarshal([]byte(data), &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListScheduledBookings returns scheduled bookings in the inclusive date
// window, ordered by date.
func (s *DynamoDBStore) ListScheduledBookings(ctx context.Context, fromDate, toDate string) ([]types.Booking, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":   &ddbtypes.AttributeValueMemberS{Value: prefixStatus + string(types.BookingScheduled)},
			":from": &ddbtypes.AttributeValueMemberS{Value: fromDate},
			// "#~" sorts after any "date#id" key for the upper-bound date.
			":to": &ddbtypes.AttributeValueMemberS{Value: toDate + "#~"},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list scheduled bookings", Err: err}
	}
	return s.decodeBookings(out.Items), nil
}

// ListStudentBookings returns a student's bookings, newest date first.
func (s *DynamoDBStore) ListStudentBookings(ctx context.Context, studentID string, limit int) ([]types.Booking, error) {
	if limit <= 0 {
		limit = 20
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk":     &ddbtypes.AttributeValueMemberS{Value: studentPK(studentID)},
			":prefix": &ddbtypes.AttributeValueMemberS{Value: prefixBooking},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list student bookings", Err: err}
	}
	return s.decodeBookings(out.Items), nil
}

func (s *DynamoDBStore) decodeBookings(items []map[string]ddbtypes.AttributeValue) []types.Booking {
	var bookings []types.Booking
	for _, item := range items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt booking data", "error", err)
			continue
		}
		var booking types.Booking
		if err := json.Unmarshal([]byte(data), &booking); err != nil {
			s.logger.Warn("skipping corrupt booking data", "error", err)
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings
}
