package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/quickcart/internal/aws/awsmock"
)

const testTable = "idempotency-table"

func newTestStore(t *testing.T) (*Store, *awsmock.Dynamo) {
	t.Helper()
	mock := awsmock.NewDynamo()
	mock.CreateTable(testTable, KeyAttribute)
	s := NewStore(mock, testTable, 48*time.Hour)
	s.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestNewRecord(t *testing.T) {
	s, _ := newTestStore(t)

	rec := s.NewRecord("evt-1", "order/created", "evt-1")
	if rec.Status != StatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", rec.Status)
	}
	want := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC).Unix()
	if rec.ExpiresAt != want {
		t.Fatalf("expires_at: want %d, got %d", want, rec.ExpiresAt)
	}
	if s.TableName() != testTable {
		t.Fatalf("table name mismatch")
	}
}

func TestGet_MarkDone(t *testing.T) {
	s, mock := newTestStore(t)
	ctx := context.Background()

	item, err := attributevalue.MarshalMap(s.NewRecord("evt-1", "order/created", "order-1"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mock.Seed(testTable, item)

	rec, err := s.Get(ctx, "evt-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.OrderID != "order-1" {
		t.Fatalf("order id mismatch: %s", rec.OrderID)
	}

	if err := s.MarkDone(ctx, "evt-1"); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}

	raw := mock.Item(testTable, "evt-1")
	if st, ok := raw["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusDone {
		t.Fatalf("expected status DONE, got %#v", raw["status"])
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	rec, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestMarkDone_MissingRecord(t *testing.T) {
	s, mock := newTestStore(t)

	if err := s.MarkDone(context.Background(), "ghost"); err == nil {
		t.Fatalf("expected error for missing record")
	}
	if mock.Len(testTable) != 0 {
		t.Fatalf("MarkDone must not create records")
	}
}
