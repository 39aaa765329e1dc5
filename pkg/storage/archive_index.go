package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ArchiveEntry describes one archived report object
type ArchiveEntry struct {
	Key         string    `dynamodbav:"key" json:"key"`
	Bucket      string    `dynamodbav:"bucket" json:"bucket"`
	Filename    string    `dynamodbav:"filename" json:"filename"`
	Format      string    `dynamodbav:"format" json:"format"`
	Rows        int       `dynamodbav:"rows" json:"rows"`
	SizeBytes   int       `dynamodbav:"size_bytes" json:"size_bytes"`
	GeneratedAt time.Time `dynamodbav:"generated_at" json:"generated_at"`
}

// DynamoAPI is the subset of the DynamoDB client used by ArchiveIndex
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// ArchiveIndex records archived reports in a DynamoDB table keyed by "key"
type ArchiveIndex struct {
	client DynamoAPI
	table  string
}

// NewArchiveIndex creates an index over table
func NewArchiveIndex(client DynamoAPI, table string) *ArchiveIndex {
	return &ArchiveIndex{client: client, table: table}
}

// NewArchiveIndexFromConfig creates an index backed by a real DynamoDB client
func NewArchiveIndexFromConfig(cfg aws.Config, table string) *ArchiveIndex {
	return NewArchiveIndex(dynamodb.NewFromConfig(cfg), table)
}

// Put stores entry
func (i *ArchiveIndex) Put(ctx context.Context, entry ArchiveEntry) error {
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal archive entry: %w", err)
	}

	_, err = i.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(i.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", entry.Key, err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 means all.
func (i *ArchiveIndex) List(ctx context.Context, limit int) ([]ArchiveEntry, error) {
	var entries []ArchiveEntry
	var start map[string]types.AttributeValue

	for {
		out, err := i.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(i.table),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan archive index: %w", err)
		}

		var page []ArchiveEntry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archive entries: %w", err)
		}
		entries = append(entries, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].GeneratedAt.After(entries[b].GeneratedAt)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
