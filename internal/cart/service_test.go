package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/printshop-backend/pkg/db"
	"github.com/angelmondragon/printshop-backend/pkg/db/dbtest"
	"github.com/angelmondragon/printshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/printshop-backend/pkg/errors"
)

type fixture struct {
	client *db.Client
	svc    Service
	user   models.User
	photo  models.Photo
	format models.Format
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	svc, err := NewService(NewRepository(client.DB()), client)
	require.NoError(t, err)

	user := dbtest.SeedUser(t, client, "ada")
	return fixture{
		client: client,
		svc:    svc,
		user:   user,
		photo:  dbtest.SeedPhoto(t, client, user.ID),
		format: dbtest.SeedFormat(t, client, "8x10", "10.00"),
	}
}

func TestServiceAddMergesExistingLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Add(ctx, f.user.ID, AddItemInput{PhotoID: f.photo.ID, FormatID: f.format.ID, Quantity: 2})
	require.NoError(t, err)
	require.False(t, first.Merged)
	require.Equal(t, 2, first.Quantity)

	second, err := f.svc.Add(ctx, f.user.ID, AddItemInput{PhotoID: f.photo.ID, FormatID: f.format.ID, Quantity: 3})
	require.NoError(t, err)
	require.True(t, second.Merged)
	require.Equal(t, first.CartItemID, second.CartItemID)
	require.Equal(t, 5, second.Quantity)

	items, err := f.svc.List(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 5, items[0].Quantity)
	require.Equal(t, f.photo.ImageURL, items[0].Photo.ImageURL)
	require.Equal(t, "8x10", items[0].Format.Name)
	require.Equal(t, "10.00", items[0].Format.Price)
}

func TestServiceAddRejectsForeignPhotoAndUnknownFormat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.SeedUser(t, f.client, "mallory")
	foreign := dbtest.SeedPhoto(t, f.client, other.ID)

	_, err := f.svc.Add(ctx, f.user.ID, AddItemInput{PhotoID: foreign.ID, FormatID: f.format.ID, Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Add(ctx, f.user.ID, AddItemInput{PhotoID: f.photo.ID, FormatID: f.format.ID + 50, Quantity: 1})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Add(ctx, f.user.ID, AddItemInput{PhotoID: f.photo.ID, FormatID: f.format.ID, Quantity: 0})
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceSetQuantityIsScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := dbtest.SeedCartItem(t, f.client, f.user.ID, f.photo.ID, f.format.ID, 1)
	other := dbtest.SeedUser(t, f.client, "mallory")

	err := f.svc.SetQuantity(ctx, other.ID, item.ID, 9)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, f.svc.SetQuantity(ctx, f.user.ID, item.ID, 4))

	var stored models.CartItem
	require.NoError(t, f.client.DB().First(&stored, "cart_item_id = ?", item.ID).Error)
	require.Equal(t, 4, stored.Quantity)

	err = f.svc.SetQuantity(ctx, f.user.ID, item.ID, 0)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestServiceRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := dbtest.SeedCartItem(t, f.client, f.user.ID, f.photo.ID, f.format.ID, 1)

	require.NoError(t, f.svc.Remove(ctx, f.user.ID, item.ID))

	err := f.svc.Remove(ctx, f.user.ID, item.ID)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRepositoryDeleteByUserLeavesOtherCarts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := dbtest.SeedUser(t, f.client, "bob")
	otherPhoto := dbtest.SeedPhoto(t, f.client, other.ID)
	dbtest.SeedCartItem(t, f.client, f.user.ID, f.photo.ID, f.format.ID, 1)
	dbtest.SeedCartItem(t, f.client, other.ID, otherPhoto.ID, f.format.ID, 1)

	deleted, err := NewRepository(f.client.DB()).DeleteByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	var remaining int64
	require.NoError(t, f.client.DB().Model(&models.CartItem{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil, nil)
	require.Error(t, err)
}
