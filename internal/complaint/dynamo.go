package complaint

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is an interface around the AWS SDK DynamoDB client. It has
// been added to aid unit testing.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

var _ DynamoAPI = &dynamodb.Client{}

// DynamoClientOptions carries the optional overrides for building a
// DynamoDB client on top of the AWS default config chain.
type DynamoClientOptions struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewDynamoClient creates a DynamoDB client from the AWS default config
// chain. Region and static credentials override the chain when set;
// Endpoint points the client at a non-AWS deployment such as a local
// emulator.
func NewDynamoClient(ctx context.Context, opts DynamoClientOptions) (*dynamodb.Client, error) {
	loadOptions := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOptions = append(loadOptions,
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					opts.AccessKeyID,
					opts.SecretAccessKey,
					"")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var clientOptions []func(*dynamodb.Options)
	if opts.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		})
	}
	return dynamodb.NewFromConfig(cfg, clientOptions...), nil
}

// DynamoStore persists complaints in a DynamoDB table keyed by uuid.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// NewDynamoStore wraps a DynamoDB client for the given table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Put inserts a record.
func (s *DynamoStore) Put(ctx context.Context, rec Record) error {
	item := map[string]types.AttributeValue{
		"uuid":      &types.AttributeValueMemberS{Value: rec.ID},
		"timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.At.Unix(), 10)},
		"complaint": &types.AttributeValueMemberS{Value: rec.Text},
		"reporter":  &types.AttributeValueMemberS{Value: rec.Reporter},
	}
	if rec.Channel != "" {
		item["channel"] = &types.AttributeValueMemberS{Value: rec.Channel}
	}
	if rec.Command != "" {
		item["command"] = &types.AttributeValueMemberS{Value: rec.Command}
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put complaint: %w", err)
	}
	return nil
}

// Count returns the total number of recorded complaints. It scans the
// whole table; complaint volume keeps that cheap.
func (s *DynamoStore) Count(ctx context.Context) (int64, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.table),
		Select:    types.SelectCount,
	}

	var total int64
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("count complaints: %w", err)
		}
		total += int64(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return total, nil
}

// Recent returns up to limit complaints, newest first. DynamoDB scans
// return items in key order, so ordering happens client-side.
func (s *DynamoStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, nil
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	}

	var all []Record
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list complaints: %w", err)
		}
		for _, item := range out.Items {
			all = append(all, recordFromItem(item))
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.Slice(all, func(i, j int) bool { return all[i].At.After(all[j].At) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func recordFromItem(item map[string]types.AttributeValue) Record {
	rec := Record{
		ID:       stringAttr(item, "uuid"),
		Text:     stringAttr(item, "complaint"),
		Reporter: stringAttr(item, "reporter"),
		Channel:  stringAttr(item, "channel"),
		Command:  stringAttr(item, "command"),
	}
	if n, ok := item["timestamp"].(*types.AttributeValueMemberN); ok {
		if sec, err := strconv.ParseFloat(n.Value, 64); err == nil {
			rec.At = time.Unix(int64(sec), 0).UTC()
		}
	}
	return rec
}

func stringAttr(item map[string]types.AttributeValue, key string) string {
	if s, ok := item[key].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
