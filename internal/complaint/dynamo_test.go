package complaint

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamoClient implements DynamoAPI in memory with optional paging.
type fakeDynamoClient struct {
	items    []map[string]types.AttributeValue
	pageSize int
	putErr   error
	scanErr  error

	lastPut   *dynamodb.PutItemInput
	scanCalls int
}

func (f *fakeDynamoClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.lastPut = params
	f.items = append(f.items, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoClient) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	f.scanCalls++

	start := 0
	if cursor, ok := params.ExclusiveStartKey["cursor"].(*types.AttributeValueMemberN); ok {
		start, _ = strconv.Atoi(cursor.Value)
	}

	end := len(f.items)
	if f.pageSize > 0 && start+f.pageSize < end {
		end = start + f.pageSize
	}

	out := &dynamodb.ScanOutput{
		Count: int32(end - start),
	}
	if params.Select != types.SelectCount {
		out.Items = f.items[start:end]
	}
	if end < len(f.items) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"cursor": &types.AttributeValueMemberN{Value: strconv.Itoa(end)},
		}
	}
	return out, nil
}

func dynamoItem(id string, at time.Time, reporter, text string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"uuid":      &types.AttributeValueMemberS{Value: id},
		"timestamp": &types.AttributeValueMemberN{Value: strconv.FormatInt(at.Unix(), 10)},
		"complaint": &types.AttributeValueMemberS{Value: text},
		"reporter":  &types.AttributeValueMemberS{Value: reporter},
	}
}

func TestDynamoStorePut(t *testing.T) {
	t.Parallel()

	client := &fakeDynamoClient{}
	store := NewDynamoStore(client, "CurtisComplaints")

	at := time.Date(2018, 7, 12, 18, 36, 58, 0, time.UTC)
	rec := Record{
		ID:       "abc-123",
		At:       at,
		Reporter: "roadrunner",
		Text:     "the coyote again",
		Channel:  "foobar",
		Command:  "/complain",
	}
	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if got := *client.lastPut.TableName; got != "CurtisComplaints" {
		t.Errorf("TableName = %q, want %q", got, "CurtisComplaints")
	}
	item := client.lastPut.Item
	if got := stringAttr(item, "uuid"); got != "abc-123" {
		t.Errorf("uuid = %q, want %q", got, "abc-123")
	}
	ts, ok := item["timestamp"].(*types.AttributeValueMemberN)
	if !ok || ts.Value != strconv.FormatInt(at.Unix(), 10) {
		t.Errorf("timestamp attr = %v, want N %d", item["timestamp"], at.Unix())
	}
	if got := stringAttr(item, "complaint"); got != "the coyote again" {
		t.Errorf("complaint = %q, want %q", got, "the coyote again")
	}
	if got := stringAttr(item, "reporter"); got != "roadrunner" {
		t.Errorf("reporter = %q, want %q", got, "roadrunner")
	}
	if got := stringAttr(item, "channel"); got != "foobar" {
		t.Errorf("channel = %q, want %q", got, "foobar")
	}
}

func TestDynamoStorePutOmitsEmptyOptionalAttrs(t *testing.T) {
	t.Parallel()

	client := &fakeDynamoClient{}
	store := NewDynamoStore(client, "CurtisComplaints")

	rec := Record{ID: "x", At: time.Now(), Reporter: "r", Text: ""}
	if err := store.Put(context.Background(), rec); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok := client.lastPut.Item["channel"]; ok {
		t.Error("channel attr present, want omitted")
	}
	if _, ok := client.lastPut.Item["command"]; ok {
		t.Error("command attr present, want omitted")
	}
}

func TestDynamoStoreCountPaginates(t *testing.T) {
	t.Parallel()

	client := &fakeDynamoClient{pageSize: 2}
	base := time.Date(2018, 7, 12, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		client.items = append(client.items, dynamoItem("id-"+strconv.Itoa(i), base, "r", "c"))
	}

	store := NewDynamoStore(client, "CurtisComplaints")
	n, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 5 {
		t.Errorf("Count = %d, want 5", n)
	}
	if client.scanCalls != 3 {
		t.Errorf("scan calls = %d, want 3", client.scanCalls)
	}
}

func TestDynamoStoreRecent(t *testing.T) {
	t.Parallel()

	base := time.Date(2018, 7, 12, 18, 0, 0, 0, time.UTC)
	client := &fakeDynamoClient{
		pageSize: 2,
		items: []map[string]types.AttributeValue{
			dynamoItem("old", base, "r", "oldest"),
			dynamoItem("new", base.Add(2*time.Hour), "r", "newest"),
			dynamoItem("mid", base.Add(time.Hour), "r", "middle"),
		},
	}

	store := NewDynamoStore(client, "CurtisComplaints")
	recent, err := store.Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d records, want 2", len(recent))
	}
	if recent[0].ID != "new" || recent[1].ID != "mid" {
		t.Errorf("Recent order = [%s %s], want [new mid]", recent[0].ID, recent[1].ID)
	}
	if recent[0].Text != "newest" {
		t.Errorf("Text = %q, want %q", recent[0].Text, "newest")
	}
}

func TestDynamoStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("throughput exceeded")
	store := NewDynamoStore(&fakeDynamoClient{putErr: boom, scanErr: boom}, "CurtisComplaints")

	if err := store.Put(context.Background(), Record{ID: "x"}); !errors.Is(err, boom) {
		t.Errorf("Put error = %v, want wrapped %v", err, boom)
	}
	if _, err := store.Count(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Count error = %v, want wrapped %v", err, boom)
	}
	if _, err := store.Recent(context.Background(), 5); !errors.Is(err, boom) {
		t.Errorf("Recent error = %v, want wrapped %v", err, boom)
	}
}
