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

// PutStudent stores a profile. Instructors additionally land on the role
// index so they can be listed without knowing their IDs.
func (s *DynamoDBStore) PutStudent(ctx context.Context, student types.Student) error {
	data, err := json.Marshal(student)
	if err != nil {
		return err
	}

	item := map[string]ddbtypes.AttributeValue{
		"PK":   &ddbtypes.AttributeValueMemberS{Value: studentPK(student.ID)},
		"SK":   &ddbtypes.AttributeValueMemberS{Value: skProfile},
		"data": &ddbtypes.AttributeValueMemberS{Value: string(data)},
	}
	if student.Role == types.RoleInstructor {
		item["GSI1PK"] = &ddbtypes.AttributeValueMemberS{Value: instructorGSI1PK()}
		item["GSI1SK"] = &ddbtypes.AttributeValueMemberS{Value: student.Name + "#" + student.ID}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return &types.PersistenceError{Op: "put student", Err: err}
	}
	return nil
}

// GetStudent retrieves a profile by ID.
func (s *DynamoDBStore) GetStudent(ctx context.Context, id string) (*types.Student, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]ddbtypes.AttributeValue{
			"PK": &ddbtypes.AttributeValueMemberS{Value: studentPK(id)},
			"SK": &ddbtypes.AttributeValueMemberS{Value: skProfile},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "get student", Err: err}
	}
	if out.Item == nil {
		return nil, fmt.Errorf("student %q not found", id)
	}

	data, err := attributeStr(out.Item, "data")
	if err != nil {
		return nil, err
	}
	var student types.Student
	if err := json.Unmarshal([]byte(data), &student); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListInstructors returns all instructor profiles ordered by name.
func (s *DynamoDBStore) ListInstructors(ctx context.Context) ([]types.Student, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              &s.tableName,
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":pk": &ddbtypes.AttributeValueMemberS{Value: instructorGSI1PK()},
		},
	})
	if err != nil {
		return nil, &types.PersistenceError{Op: "list instructors", Err: err}
	}

	var instructors []types.Student
	for _, item := range out.Items {
		data, err := attributeStr(item, "data")
		if err != nil {
			s.logger.Warn("skipping corrupt student data", "error", err)
			continue
		}
		var student types.Student
		if err := json.Unmarshal([]byte(data), &student); err != nil {
			s.logger.Warn("skipping corrupt student data", "error", err)
			continue
		}
		instructors = append(instructors, student)
	}
	return instructors, nil
}
