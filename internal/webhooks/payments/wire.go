package payments

import (
	"github.com/angelmondragon/printshop-backend/internal/ledger"
	"github.com/angelmondragon/printshop-backend/internal/orders"
	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
	"github.com/angelmondragon/printshop-backend/pkg/outbox"
)

// NewDBProcessor builds a Processor on the shared database client. The API
// and the payments worker both use it so they reconcile identically.
func NewDBProcessor(client *db.Client, verifier eventVerifier, counter resultCounter, logg *logger.Logger, maxAttempts int) (*Processor, error) {
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(client.DB()))
	if err != nil {
		return nil, err
	}
	return NewProcessor(ProcessorParams{
		TransactionRunner: client,
		Inbox:             NewInbox(client.DB()),
		Verifier:          verifier,
		OrdersRepo:        orders.NewRepository(client.DB()),
		Ledger:            ledgerSvc,
		Outbox:            outbox.NewService(outbox.NewRepository(client.DB()), logg),
		Metrics:           counter,
		Logger:            logg,
		MaxAttempts:       maxAttempts,
	})
}
