package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"reads-agent/internal/domain"
)

type fakeDynamo struct {
	putErr      error
	queryOut    *dynamodb.QueryOutput
	queryErr    error
	lastPutIn   *dynamodb.PutItemInput
	lastQueryIn *dynamodb.QueryInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryIn = in
	return f.queryOut, f.queryErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "reads-table")
	require.NoError(t, err)
	return c
}

func sampleItem() domain.Item {
	return domain.Item{
		ID:          "item-1",
		Link:        "https://example.com/a",
		Title:       "A Good Read",
		Description: "Why it matters.",
		ImageURL:    "https://example.com/img.png",
		Sector:      domain.SectorFinance,
		Tag:         domain.TagReads,
		SubmittedBy: "alice",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func linkItem(link string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":   &types.AttributeValueMemberS{Value: linkPK(link)},
		"SK":   &types.AttributeValueMemberS{Value: skItem},
		"link": &types.AttributeValueMemberS{Value: link},
	}
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "reads-table")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "  ")
	require.Error(t, err)
}

func TestCreateItem_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)

	require.NoError(t, c.CreateItem(context.Background(), sampleItem()))

	in := db.lastPutIn
	require.NotNil(t, in)
	require.Equal(t, "reads-table", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK)", *in.ConditionExpression)

	pk := in.Item["PK"].(*types.AttributeValueMemberS).Value
	require.Equal(t, "LINK#https://example.com/a", pk)
	require.Equal(t, skItem, in.Item["SK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, listPartition, in.Item["GSI1PK"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "A Good Read", in.Item["title"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "finance", in.Item["sector"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "reads", in.Item["tag"].(*types.AttributeValueMemberS).Value)
	require.Equal(t, "alice", in.Item["submittedBy"].(*types.AttributeValueMemberS).Value)
}

func TestCreateItem_RequiresLink(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	item := sampleItem()
	item.Link = " "
	require.Error(t, c.CreateItem(context.Background(), item))
}

func TestCreateItem_ConditionalFailure_IsDuplicate(t *testing.T) {
	db := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{}}
	c := mustNewClient(t, db)

	err := c.CreateItem(context.Background(), sampleItem())
	require.ErrorIs(t, err, domain.ErrDuplicateItem)
}

func TestCreateItem_AccessDenied_IsUnauthorized(t *testing.T) {
	db := &fakeDynamo{putErr: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no"}}
	c := mustNewClient(t, db)

	err := c.CreateItem(context.Background(), sampleItem())
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCreateItem_OtherFailure_PassesThrough(t *testing.T) {
	boom := errors.New("throughput exceeded")
	db := &fakeDynamo{putErr: boom}
	c := mustNewClient(t, db)

	err := c.CreateItem(context.Background(), sampleItem())
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrDuplicateItem)
	require.NotErrorIs(t, err, domain.ErrUnauthorized)
	require.ErrorIs(t, err, boom)
}

func TestRecentLinks_HappyPath(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		linkItem("https://example.com/newest"),
		linkItem("https://example.com/older"),
	}}}
	c := mustNewClient(t, db)

	links, err := c.RecentLinks(context.Background(), 50)
	require.NoError(t, err)
	require.Equal(t, []string{"https://example.com/newest", "https://example.com/older"}, links)

	in := db.lastQueryIn
	require.Equal(t, recencyIndex, *in.IndexName)
	require.Equal(t, int32(50), *in.Limit)
	require.False(t, *in.ScanIndexForward)
	require.Equal(t, listPartition, in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value)
}

func TestRecentLinks_RequiresPositiveLimit(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	_, err := c.RecentLinks(context.Background(), 0)
	require.Error(t, err)
}

func TestRecentLinks_QueryError(t *testing.T) {
	db := &fakeDynamo{queryErr: errors.New("index unavailable")}
	c := mustNewClient(t, db)

	_, err := c.RecentLinks(context.Background(), 10)
	require.Error(t, err)
}

func TestRecentLinks_MissingLinkAttribute(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		{"PK": &types.AttributeValueMemberS{Value: "LINK#x"}},
	}}}
	c := mustNewClient(t, db)

	_, err := c.RecentLinks(context.Background(), 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing attribute")
}
