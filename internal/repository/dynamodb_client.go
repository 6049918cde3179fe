package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"reads-agent/internal/domain"
)

const (
	pkPrefixLink  = "LINK#"
	skItem        = "ITEM"
	listPartition = "LIST#reads"
	recencyIndex  = "GSI1"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table holding the published reads list. Items are
// keyed by their link so the backend itself rejects duplicate submissions;
// a recency index serves the "newest page" read the duplicate guard uses.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// CreateItem writes a published item, refusing to overwrite an existing
// entry for the same link. Failures are mapped onto the domain sentinels the
// conversation layer branches on.
func (c *Client) CreateItem(ctx context.Context, item domain.Item) error {
	if strings.TrimSpace(item.Link) == "" {
		return errors.New("repository: CreateItem: item link is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                itemAttrs(item),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: CreateItem: %w", mapWriteError(err))
	}
	return nil
}

// RecentLinks returns the link strings of the newest limit items, newest
// first, via the recency index.
func (c *Client) RecentLinks(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, errors.New("repository: RecentLinks: limit must be positive")
	}

	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		IndexName:              aws.String(recencyIndex),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: listPartition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: RecentLinks query: %w", err)
	}

	links := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		link, err := strAttr(item, "link")
		if err != nil {
			return nil, fmt.Errorf("repository: RecentLinks unmarshal: %w", err)
		}
		links = append(links, link)
	}
	return links, nil
}

// mapWriteError translates DynamoDB write failures into domain sentinels.
// Anything unrecognized passes through unchanged and reads as "unknown"
// upstream.
func mapWriteError(err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %v", domain.ErrDuplicateItem, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "ExpiredTokenException":
			return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	return err
}

// linkPK returns the partition key for a link-keyed item.
func linkPK(link string) string {
	return pkPrefixLink + link
}

func itemAttrs(item domain.Item) map[string]types.AttributeValue {
	createdAt := item.CreatedAt.UTC().Format(time.RFC3339Nano)
	return map[string]types.AttributeValue{
		"PK":          &types.AttributeValueMemberS{Value: linkPK(item.Link)},
		"SK":          &types.AttributeValueMemberS{Value: skItem},
		"GSI1PK":      &types.AttributeValueMemberS{Value: listPartition},
		"GSI1SK":      &types.AttributeValueMemberS{Value: createdAt},
		"id":          &types.AttributeValueMemberS{Value: item.ID},
		"link":        &types.AttributeValueMemberS{Value: item.Link},
		"title":       &types.AttributeValueMemberS{Value: item.Title},
		"description": &types.AttributeValueMemberS{Value: item.Description},
		"imageUrl":    &types.AttributeValueMemberS{Value: item.ImageURL},
		"sector":      &types.AttributeValueMemberS{Value: string(item.Sector)},
		"tag":         &types.AttributeValueMemberS{Value: string(item.Tag)},
		"submittedBy": &types.AttributeValueMemberS{Value: item.SubmittedBy},
		"createdAt":   &types.AttributeValueMemberS{Value: createdAt},
	}
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
