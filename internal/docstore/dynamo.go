// internal/docstore/dynamo.go
//
// Amazon DynamoDB backend.
//
// Context
//   Every document is one item in a single table:
//
//      _path        S   partition key, full document path
//      _collection  S   parent collection path, GSI partition key
//      <field>      *   document fields as top-level attributes
//
//   Listing and equality queries use the “collection-index” GSI.  Commit is
//   TransactWriteItems, so a failed Create condition cancels the whole batch.
//
// Notes
//   •  Field names beginning with “_” are reserved for the keys above.
//   •  ServerTime resolves to the web node’s UTC clock; DynamoDB has no
//      server timestamp.
//
//------------------------------------------------------------------------------

package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	dynamoPathKey       = "_path"
	dynamoCollectionKey = "_collection"
	dynamoMaxBatch      = 100
)

// DefaultCollectionIndex is the GSI keyed on _collection.
const DefaultCollectionIndex = "collection-index"

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(context.Context, *dynamodb.TransactWriteItemsInput, ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoOptions configures NewDynamo.
type DynamoOptions struct {
	Region   string
	Endpoint string // optional, e.g. DynamoDB Local
	Table    string
	Index    string // defaults to DefaultCollectionIndex
}

// Dynamo is a Store and Batcher backed by one DynamoDB table.
type Dynamo struct {
	client dynamoAPI
	table  string
	index  string
	now    func() time.Time
}

var (
	_ Store   = (*Dynamo)(nil)
	_ Batcher = (*Dynamo)(nil)
)

// NewDynamo loads the default AWS config chain and builds a client.
func NewDynamo(ctx context.Context, o DynamoOptions) (*Dynamo, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(o.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("docstore: aws config: %w", err)
	}
	client := dynamodb.NewFromConfig(cfg, func(opt *dynamodb.Options) {
		if o.Endpoint != "" {
			opt.BaseEndpoint = aws.String(o.Endpoint)
		}
	})
	return NewDynamoFromClient(client, o.Table, o.Index), nil
}

// NewDynamoFromClient wraps an existing client.  Panics on empty table name,
// mirroring the other constructors that take required wiring.
func NewDynamoFromClient(client dynamoAPI, table, index string) *Dynamo {
	if client == nil {
		panic("docstore: dynamodb client cannot be nil")
	}
	if table == "" {
		panic("docstore: dynamodb table name cannot be empty")
	}
	if index == "" {
		index = DefaultCollectionIndex
	}
	return &Dynamo{
		client: client,
		table:  table,
		index:  index,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get implements Store.
func (d *Dynamo) Get(ctx context.Context, path string) (Snapshot, error) {
	if _, _, err := Split(path); err != nil {
		return Snapshot{}, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            pathKey(path),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Snapshot{}, mapDynamoErr(err)
	}
	if out.Item == nil {
		return Snapshot{}, ErrNotFound
	}
	return decodeItem(out.Item)
}

// QueryEqual implements Store.
func (d *Dynamo) QueryEqual(ctx context.Context, collection, field string, value any) ([]Snapshot, error) {
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("docstore: marshal query value: %w", err)
	}
	return d.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		IndexName:              aws.String(d.index),
		KeyConditionExpression: aws.String("#c = :c"),
		FilterExpression:       aws.String("#f = :v"),
		ExpressionAttributeNames: map[string]string{
			"#c": dynamoCollectionKey,
			"#f": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
			":v": av,
		},
	})
}

// List implements Store.
func (d *Dynamo) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return d.query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(d.table),
		IndexName:                aws.String(d.index),
		KeyConditionExpression:   aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": dynamoCollectionKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: collection},
		},
	})
}

func (d *Dynamo) query(ctx context.Context, in *dynamodb.QueryInput) ([]Snapshot, error) {
	var out []Snapshot
	for {
		page, err := d.client.Query(ctx, in)
		if err != nil {
			return nil, mapDynamoErr(err)
		}
		for _, item := range page.Items {
			s, err := decodeItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
	sortSnapshots(out)
	return out, nil
}

// Apply implements Store.
func (d *Dynamo) Apply(ctx context.Context, w Write) error {
	item, err := d.transactItem(w)
	if err != nil {
		return err
	}
	switch {
	case item.Put != nil:
		_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                aws.String(d.table),
			Item:                     item.Put.Item,
			ConditionExpression:      item.Put.ConditionExpression,
			ExpressionAttributeNames: item.Put.ExpressionAttributeNames,
		})
	case item.Update != nil:
		_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(d.table),
			Key:                       item.Update.Key,
			UpdateExpression:          item.Update.UpdateExpression,
			ExpressionAttributeNames:  item.Update.ExpressionAttributeNames,
			ExpressionAttributeValues: item.Update.ExpressionAttributeValues,
		})
	}
	return mapDynamoErr(err)
}

// Commit implements Batcher.
func (d *Dynamo) Commit(ctx context.Context, writes []Write) error {
	if len(writes) > dynamoMaxBatch {
		return fmt.Errorf("docstore: dynamodb batch of %d exceeds %d writes", len(writes), dynamoMaxBatch)
	}
	items := make([]types.TransactWriteItem, 0, len(writes))
	for _, w := range writes {
		item, err := d.transactItem(w)
		if err != nil {
			return err
		}
		items = append(items, item)
	}
	_, err := d.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapDynamoErr(err)
}

// Close implements Store.  The SDK client holds no resources to release.
func (d *Dynamo) Close() error { return nil }

// -----------------------------------------------------------------------------
// encoding
// -----------------------------------------------------------------------------

func (d *Dynamo) transactItem(w Write) (types.TransactWriteItem, error) {
	collection, _, err := Split(w.Path)
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	data := resolveServerTime(w.Data, d.now())
	for k := range data {
		if strings.HasPrefix(k, "_") {
			return types.TransactWriteItem{}, fmt.Errorf("docstore: field %q uses reserved prefix", k)
		}
	}
	attrs, err := attributevalue.MarshalMap(map[string]any(data))
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("docstore: marshal %s: %w", w.Path, err)
	}

	if w.Op == OpMerge {
		return types.TransactWriteItem{Update: mergeUpdate(d.table, w.Path, collection, attrs)}, nil
	}

	attrs[dynamoPathKey] = &types.AttributeValueMemberS{Value: w.Path}
	attrs[dynamoCollectionKey] = &types.AttributeValueMemberS{Value: collection}
	put := &types.Put{
		TableName: aws.String(d.table),
		Item:      attrs,
	}
	if w.Op == OpCreate {
		put.ConditionExpression = aws.String("attribute_not_exists(#p)")
		put.ExpressionAttributeNames = map[string]string{"#p": dynamoPathKey}
	}
	return types.TransactWriteItem{Put: put}, nil
}

// mergeUpdate builds “SET #c = :c, #f0 = :v0, …” in stable field order.
func mergeUpdate(table, path, collection string, attrs map[string]types.AttributeValue) *types.Update {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := map[string]string{"#c": dynamoCollectionKey}
	values := map[string]types.AttributeValue{
		":c": &types.AttributeValueMemberS{Value: collection},
	}
	sets := []string{"#c = :c"}
	for i, k := range keys {
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":v%d", i)
		names[n] = k
		values[v] = attrs[k]
		sets = append(sets, n+" = "+v)
	}
	return &types.Update{
		TableName:                 aws.String(table),
		Key:                       pathKey(path),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}
}

func pathKey(path string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		dynamoPathKey: &types.AttributeValueMemberS{Value: path},
	}
}

func decodeItem(item map[string]types.AttributeValue) (Snapshot, error) {
	var raw map[string]any
	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("docstore: decode item: %w", err)
	}
	path, _ := raw[dynamoPathKey].(string)
	delete(raw, dynamoPathKey)
	delete(raw, dynamoCollectionKey)
	return Snapshot{Path: path, Data: Data(raw)}, nil
}

func mapDynamoErr(err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" {
				return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
			}
		}
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException":
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("docstore: dynamodb: %w", err)
}
