package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/angelmondragon/printshop-backend/api/responses"
	"github.com/angelmondragon/printshop-backend/internal/webhooks/payments"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// Stripe caps webhook bodies well below this.
const maxWebhookBodyBytes = 1 << 20

type paymentEventProcessor interface {
	Ingest(ctx context.Context, payload []byte, signature string) (*payments.IngestResult, error)
	Process(ctx context.Context, inboxID int64) (string, error)
}

// StripeWebhook verifies and stores payment events, then acknowledges with an
// empty 200. Inline mode also reconciles the event before responding; a
// failed reconciliation stays in the inbox for the payments worker.
func StripeWebhook(processor paymentEventProcessor, inline bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if processor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook processor unavailable"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		stored, err := processor.Ingest(ctx, payload, r.Header.Get("Stripe-Signature"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			ctx = logg.WithFields(logg.WithEventID(ctx, stored.EventID), map[string]any{
				"event_type": stored.EventType,
				"inbox_id":   stored.InboxID,
				"duplicate":  stored.Duplicate,
			})
			logg.Info(ctx, "payment webhook stored")
		}

		if inline {
			result, procErr := processor.Process(ctx, stored.InboxID)
			if procErr != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "result", result), "payment webhook processing deferred to worker")
			}
		}

		responses.WriteEmpty(w, http.StatusOK)
	}
}
