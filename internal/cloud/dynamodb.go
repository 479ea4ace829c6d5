package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/domain"
	"github.com/ANIKETSHETTY47/central-monitoring-hub/internal/telemetry"
)

const (
	batchSize = 25 // DynamoDB batch write limit

	// Unprocessed items are resent at most this many times per batch.
	maxBatchRetries = 8
	maxBatchBackoff = 5 * time.Second
)

// BucketItem is an archived bucket. The table is keyed by series (owner and
// granularity) and the bucket's canonical date, so a query returns buckets
// in chronological order.
type BucketItem struct {
	Series     string `dynamodbav:"series"`
	BucketDate string `dynamodbav:"bucketDate"`
	OwnerID    string `dynamodbav:"ownerId"`
	domain.ChartRow
}

// DynamoDBClient archives buckets in a DynamoDB table.
type DynamoDBClient struct {
	svc     *dynamodb.Client
	table   string
	backoff func(attempt int) time.Duration
}

func NewDynamoDBClient(cfg aws.Config, table string, optFns ...func(*dynamodb.Options)) *DynamoDBClient {
	jitter := retry.NewExponentialJitterBackoff(maxBatchBackoff)
	return &DynamoDBClient{
		svc:   dynamodb.NewFromConfig(cfg, optFns...),
		table: table,
		backoff: func(attempt int) time.Duration {
			d, err := jitter.BackoffDelay(attempt, nil)
			if err != nil {
				return maxBatchBackoff
			}
			return d
		},
	}
}

func seriesKey(owner string, g telemetry.Granularity) string {
	return owner + "#" + string(g)
}

// ToBucketItems keys each chart row by series and canonical date.
func ToBucketItems(owner string, g telemetry.Granularity, rows []domain.ChartRow) ([]BucketItem, error) {
	out := make([]BucketItem, 0, len(rows))
	for _, row := range rows {
		date, err := telemetry.CanonicalDate(row.Timestamp, g)
		if err != nil {
			return nil, err
		}
		out = append(out, BucketItem{
			Series:     seriesKey(owner, g),
			BucketDate: date.Format("2006-01-02"),
			OwnerID:    owner,
			ChartRow:   row,
		})
	}
	return out, nil
}

// SaveBuckets writes rows in batches of 25. Existing buckets are replaced.
func (c *DynamoDBClient) SaveBuckets(ctx context.Context, owner string, g telemetry.Granularity, rows []domain.ChartRow) error {
	items, err := ToBucketItems(owner, g, rows)
	if err != nil {
		return err
	}
	for i := 0; i < len(items); i += batchSize {
		batch := items[i:min(i+batchSize, len(items))]
		writes := make([]types.WriteRequest, len(batch))
		for j, it := range batch {
			av, err := attributevalue.MarshalMap(it)
			if err != nil {
				return fmt.Errorf("failed to marshal bucket %s: %w", it.Timestamp, err)
			}
			writes[j] = types.WriteRequest{PutRequest: &types.PutRequest{Item: av}}
		}
		if err := c.writeBatch(ctx, writes); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch resends unprocessed items with jittered exponential backoff
// until the table accepts all of them or the retries run out.
func (c *DynamoDBClient) writeBatch(ctx context.Context, writes []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{c.table: writes}
	for attempt := 0; ; attempt++ {
		out, err := c.svc.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return fmt.Errorf("failed to batch write buckets: %w", err)
		}
		pending = out.UnprocessedItems
		if len(pending[c.table]) == 0 {
			return nil
		}
		if attempt == maxBatchRetries {
			return fmt.Errorf("failed to batch write buckets: %d items unprocessed after %d retries", len(pending[c.table]), maxBatchRetries)
		}
		t := time.NewTimer(c.backoff(attempt + 1))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *DynamoDBClient) ListBuckets(ctx context.Context, owner string, g telemetry.Granularity) ([]domain.ChartRow, error) {
	p := dynamodb.NewQueryPaginator(c.svc, &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("series = :s"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: seriesKey(owner, g)},
		},
		ScanIndexForward: aws.Bool(true),
	})
	rows := make([]domain.ChartRow, 0)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query buckets: %w", err)
		}
		var items []BucketItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal buckets: %w", err)
		}
		for _, it := range items {
			rows = append(rows, it.ChartRow)
		}
	}
	return rows, nil
}
