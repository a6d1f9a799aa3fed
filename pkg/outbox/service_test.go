package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/printshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	"github.com/angelmondragon/printshop-backend/pkg/enums"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc := NewService(repo, nil)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   42,
			Actor:         &ActorRef{UserID: 7, Source: "checkout"},
			Data:          map[string]any{"order_id": 42},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, client.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotEqual(t, uuid.Nil, rows[0].ID)
	require.EqualValues(t, 42, rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	require.Equal(t, 1, envelope.Version)
	require.Equal(t, rows[0].ID.String(), envelope.EventID)
	require.EqualValues(t, 7, envelope.Actor.UserID)
	require.JSONEq(t, `{"order_id":42}`, string(envelope.Data))
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   1,
			Data:          map[string]any{},
		}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
	require.Error(t, svc.EmitIfNotExists(context.Background(), nil, DomainEvent{}))
}

func TestEmitRejectsInvalidEvents(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	ctx := context.Background()

	for _, event := range []DomainEvent{
		{EventType: "order.shipped", AggregateType: enums.AggregateOrder, AggregateID: 1},
		{EventType: enums.EventOrderPaid, AggregateType: enums.AggregateOrder, AggregateID: 0},
	} {
		err := client.WithTx(ctx, func(tx *gorm.DB) error {
			return svc.Emit(ctx, tx, event)
		})
		require.Error(t, err)
	}
}

func TestDecodeEnvelopeDefaultsVersion(t *testing.T) {
	envelope, err := DecodeEnvelope([]byte(`{"eventId":"e-1","data":{"order_id":3}}`))
	require.NoError(t, err)
	require.Equal(t, CurrentEnvelopeVersion, envelope.Version)

	_, err = DecodeEnvelope([]byte(`not json`))
	require.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicates(t *testing.T) {
	client := dbtest.Open(t)
	svc := NewService(NewRepository(client.DB()), nil)
	ctx := context.Background()
	event := DomainEvent{
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   9,
		Data:          map[string]any{"order_id": 9},
	}

	for i := 0; i < 2; i++ {
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(ctx, tx, event)
		}))
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	first := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: 1, Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{ID: uuid.New(), EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: 2, Payload: json.RawMessage(`{}`)}
	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := repo.Insert(tx, first); err != nil {
			return err
		}
		return repo.Insert(tx, second)
	}))

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		require.NoError(t, repo.MarkPublishedTx(tx, first.ID))
		require.NoError(t, repo.MarkFailedTx(tx, second.ID, errors.New("pubsub down")))
		return nil
	}))

	var stored models.OutboxEvent
	require.NoError(t, client.DB().First(&stored, "id = ?", second.ID).Error)
	require.Equal(t, 1, stored.AttemptCount)
	require.NotNil(t, stored.LastError)
	require.Equal(t, "pubsub down", *stored.LastError)

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, second.ID, rows[0].ID)

		require.NoError(t, repo.MarkTerminalTx(tx, second.ID, errors.New("gave up"), 3))
		rows, err = repo.FetchUnpublishedForPublish(tx, 10, 3)
		require.NoError(t, err)
		require.Empty(t, rows)
		return nil
	}))
}

func TestDLQRepositoryParksEventOnce(t *testing.T) {
	client := dbtest.Open(t)
	dlq := NewDLQRepository(client.DB())
	ctx := context.Background()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderPaid,
		AggregateType: enums.AggregateOrder,
		AggregateID:   5,
		Payload:       json.RawMessage(`{}`),
		AttemptCount:  3,
	}
	failedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := NewDLQEntry(event, enums.OutboxDLQReasonMaxAttempts, errors.New(strings.Repeat("x", maxDLQErrorLen+100)), failedAt)
	require.Equal(t, event.ID, entry.EventID)
	require.Equal(t, 3, entry.AttemptCount)

	for i := 0; i < 2; i++ {
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			return dlq.InsertTx(tx, entry)
		}))
	}

	var count int64
	require.NoError(t, client.DB().Model(&models.OutboxDLQ{}).Where("event_id = ?", event.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	stored, err := dlq.Lookup(ctx, event.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, *stored.ErrorMessage, maxDLQErrorLen)
	require.Equal(t, enums.OutboxDLQReasonMaxAttempts, stored.ErrorReason)

	missing, err := dlq.Lookup(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestTruncateDLQErrorKeepsRunesWhole(t *testing.T) {
	msg := strings.Repeat("a", maxDLQErrorLen-1) + "é"
	got := truncateDLQError(msg)
	require.Len(t, got, maxDLQErrorLen-1)
	require.Equal(t, "short", truncateDLQError("short"))
}
