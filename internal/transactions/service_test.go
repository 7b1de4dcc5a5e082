package transactions_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"bitbucket.org/ConcurrentDragon/paghiper-bridge/internal/transactions"
)

// integration tests against a live Postgres, enabled by env like
// PAGHIPER_BRIDGE_TEST_PG="username:password@localhost:5432/database"
func setupTest(t *testing.T, ctx context.Context) transactions.Service {
	t.Helper()

	dsn := os.Getenv("PAGHIPER_BRIDGE_TEST_PG")
	if dsn == "" {
		t.Skip("PAGHIPER_BRIDGE_TEST_PG is unset, skipping Postgres integration test")
	}
	queriesPath := os.Getenv("PAGHIPER_BRIDGE_TEST_QUERIES_PATH")
	if queriesPath == "" {
		queriesPath = "../../sql"
	}

	credentials, hostAndDatabase, ok := strings.Cut(dsn, "@")
	if !ok {
		t.Fatalf("invalid PAGHIPER_BRIDGE_TEST_PG %q", dsn)
	}
	username, password, _ := strings.Cut(credentials, ":")
	host, database, ok := strings.Cut(hostAndDatabase, "/")
	if !ok {
		t.Fatalf("invalid PAGHIPER_BRIDGE_TEST_PG %q", dsn)
	}

	service, err := transactions.New(ctx, username, password, host, database, queriesPath)
	if err != nil {
		t.Fatalf("failed to create transactions service: %+v", err)
	}
	t.Cleanup(service.Close)

	return service
}

func TestGenerateULID(t *testing.T) {
	ctx := context.Background()
	service := setupTest(t, ctx)

	first := service.GenerateULID("EVENT")
	second := service.GenerateULID("EVENT")

	if !strings.HasPrefix(first, "EVENT-") {
		t.Errorf("ULID %q must carry the prefix", first)
	}
	if first == second {
		t.Errorf("consecutive ULIDs must differ")
	}
}

func TestInsertAndGetTransaction(t *testing.T) {
	ctx := context.Background()
	service := setupTest(t, ctx)

	transactionCode := service.GenerateULID("TEST-TX")
	err := service.InsertTransaction(ctx, transactions.Transaction{
		TransactionCode:  transactionCode,
		StoreID:          "100",
		NotificationCode: "N1",
	})
	if err != nil {
		t.Fatalf("insert transaction failed: %+v", err)
	}

	transaction, err := service.GetTransaction(ctx, transactionCode)
	if err != nil {
		t.Fatalf("get transaction failed: %+v", err)
	}
	if transaction.StoreID != "100" || transaction.NotificationCode != "N1" {
		t.Errorf("transaction mismatch: %+v", transaction)
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	ctx := context.Background()
	service := setupTest(t, ctx)

	_, err := service.GetTransaction(ctx, "TX-DOES-NOT-EXIST")
	if !errors.Is(err, transactions.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordNotificationEvent(t *testing.T) {
	ctx := context.Background()
	service := setupTest(t, ctx)

	err := service.RecordNotificationEvent(ctx, transactions.NotificationEvent{
		EventID:          service.GenerateULID("EVENT"),
		TransactionCode:  "T1",
		StoreID:          "100",
		NotificationCode: "N1",
		Status:           "paid",
		Result:           "updated",
	})
	if err != nil {
		t.Fatalf("record notification event failed: %+v", err)
	}
}
