package docstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type mockDynamo struct {
	getOut      *dynamodb.GetItemOutput
	queryPages  []*dynamodb.QueryOutput
	transactErr error

	putInputs      []*dynamodb.PutItemInput
	updateInputs   []*dynamodb.UpdateItemInput
	queryInputs    []dynamodb.QueryInput
	transactInputs []*dynamodb.TransactWriteItemsInput
}

func (m *mockDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOut, nil
}

func (m *mockDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInputs = append(m.putInputs, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, in)
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInputs = append(m.queryInputs, *in)
	if len(m.queryPages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := m.queryPages[0]
	m.queryPages = m.queryPages[1:]
	return page, nil
}

func (m *mockDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	m.transactInputs = append(m.transactInputs, in)
	if m.transactErr != nil {
		return nil, m.transactErr
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func TestDynamo_CommitBuildsTransaction(t *testing.T) {
	mock := &mockDynamo{}
	store := NewDynamoFromClient(mock, "leadflow_documents", "")

	err := store.Commit(context.Background(), []Write{
		{Path: "leads/jane@x.com", Data: Data{"email": "jane@x.com", "createdAt": ServerTime}, Op: OpCreate},
		{Path: "countries/brazil", Data: Data{"name": "Brazil", "updatedAt": ServerTime}, Op: OpMerge},
	})
	if err != nil {
		t.Fatalf("Commit returned error: %v", err)
	}
	if len(mock.transactInputs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(mock.transactInputs))
	}
	items := mock.transactInputs[0].TransactItems
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	put := items[0].Put
	if put == nil {
		t.Fatal("expected create to be a Put")
	}
	if expr := aws.ToString(put.ConditionExpression); expr != "attribute_not_exists(#p)" {
		t.Fatalf("expected create-if-absent condition, got %q", expr)
	}
	if got := put.Item[dynamoCollectionKey].(*types.AttributeValueMemberS).Value; got != "leads" {
		t.Fatalf("collection = %q, want leads", got)
	}
	if _, ok := put.Item["createdAt"].(*types.AttributeValueMemberS); !ok {
		t.Fatalf("expected createdAt to be marshalled as a timestamp string, got %T", put.Item["createdAt"])
	}

	upd := items[1].Update
	if upd == nil {
		t.Fatal("expected merge to be an Update")
	}
	if got := aws.ToString(upd.UpdateExpression); got != "SET #c = :c, #f0 = :v0, #f1 = :v1" {
		t.Fatalf("unexpected update expression %q", got)
	}
	if upd.ExpressionAttributeNames["#f0"] != "name" || upd.ExpressionAttributeNames["#f1"] != "updatedAt" {
		t.Fatalf("unexpected attribute names %v", upd.ExpressionAttributeNames)
	}
}

func TestDynamo_CommitConditionFailureIsAlreadyExists(t *testing.T) {
	mock := &mockDynamo{transactErr: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}}
	store := NewDynamoFromClient(mock, "leadflow_documents", "")

	err := store.Commit(context.Background(), []Write{
		{Path: "leads/jane@x.com", Data: Data{"email": "jane@x.com"}, Op: OpCreate},
	})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestDynamo_RejectsReservedFields(t *testing.T) {
	store := NewDynamoFromClient(&mockDynamo{}, "leadflow_documents", "")
	err := store.Apply(context.Background(), Write{Path: "leads/a@x.com", Data: Data{"_path": "x"}})
	if err == nil {
		t.Fatal("expected reserved field error")
	}
}

func TestDynamo_GetDecodesItem(t *testing.T) {
	mock := &mockDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		dynamoPathKey:       &types.AttributeValueMemberS{Value: "leads/jane@x.com"},
		dynamoCollectionKey: &types.AttributeValueMemberS{Value: "leads"},
		"email":             &types.AttributeValueMemberS{Value: "jane@x.com"},
	}}}
	store := NewDynamoFromClient(mock, "leadflow_documents", "")

	snap, err := store.Get(context.Background(), "leads/jane@x.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if snap.Path != "leads/jane@x.com" || snap.Data["email"] != "jane@x.com" {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if _, leaked := snap.Data[dynamoCollectionKey]; leaked {
		t.Fatal("reserved keys must not leak into document data")
	}
}

func TestDynamo_GetMissing(t *testing.T) {
	store := NewDynamoFromClient(&mockDynamo{}, "leadflow_documents", "")
	if _, err := store.Get(context.Background(), "leads/nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDynamo_QueryFollowsPages(t *testing.T) {
	item := func(path string) map[string]types.AttributeValue {
		return map[string]types.AttributeValue{
			dynamoPathKey: &types.AttributeValueMemberS{Value: path},
			"email":       &types.AttributeValueMemberS{Value: "jane@x.com"},
		}
	}
	mock := &mockDynamo{queryPages: []*dynamodb.QueryOutput{
		{Items: []map[string]types.AttributeValue{item("leads/b")}, LastEvaluatedKey: item("leads/b")},
		{Items: []map[string]types.AttributeValue{item("leads/a")}},
	}}
	store := NewDynamoFromClient(mock, "leadflow_documents", "")

	got, err := store.QueryEqual(context.Background(), "leads", "email", "jane@x.com")
	if err != nil {
		t.Fatalf("QueryEqual returned error: %v", err)
	}
	if len(got) != 2 || got[0].Path != "leads/a" {
		t.Fatalf("unexpected result %#v", got)
	}
	if len(mock.queryInputs) != 2 || mock.queryInputs[1].ExclusiveStartKey == nil {
		t.Fatal("expected second page request with ExclusiveStartKey")
	}
	if aws.ToString(mock.queryInputs[0].IndexName) != DefaultCollectionIndex {
		t.Fatalf("unexpected index %q", aws.ToString(mock.queryInputs[0].IndexName))
	}
}
