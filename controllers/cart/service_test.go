package cartControllers

import (
	"context"
	"math"
	"testing"

	"github.com/PePeVeraz-ux/barcoda/apperr"
	"github.com/PePeVeraz-ux/barcoda/models"
	"github.com/PePeVeraz-ux/barcoda/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddItemCreatesCartLazily(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Charizard", "100", 5)

	item, err := AddItem(ctx, db, "alice", card.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	var carts []models.Cart
	require.NoError(t, db.Find(&carts, "user_id = ?", "alice").Error)
	require.Len(t, carts, 1)
	assert.Equal(t, carts[0].ID, item.CartID)

	// Re-adding merges into the same line and reuses the cart.
	item, err = AddItem(ctx, db, "alice", card.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAddItemRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	_, err := AddItem(ctx, db, "alice", "nope", 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = AddItem(ctx, db, "alice", "nope", 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAddItemStockConflict(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Lugia", "40", 5)

	// Another customer holds three units.
	bob := testutil.SeedCart(t, db, "bob")
	testutil.SeedCartItem(t, db, bob.ID, card.ID, 3)

	_, err := AddItem(ctx, db, "alice", card.ID, 1)
	require.NoError(t, err)

	_, err = AddItem(ctx, db, "alice", card.ID, 2)
	require.Error(t, err)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, "You can only add 1 unit(s) to your cart (you already have 1)", e.Message)
	assert.Equal(t, 2, e.Fields["availableStock"])
	assert.Equal(t, 1, e.Fields["currentInCart"])

	_, err = AddItem(ctx, db, "carol", card.ID, 3)
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Only 1 unit(s) available", e.Message)
}

func TestAddItemOversizedQuantityOnExistingLine(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Mew", "60", 3)

	line, err := AddItem(ctx, db, "alice", card.ID, 1)
	require.NoError(t, err)

	_, err = AddItem(ctx, db, "alice", card.ID, math.MaxInt)
	require.Error(t, err)

	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, apperr.KindConflict, e.Kind)
	assert.Equal(t, 3, e.Fields["availableStock"])
	assert.Equal(t, 1, e.Fields["currentInCart"])

	var stored models.CartItem
	require.NoError(t, db.First(&stored, "id = ?", line.ID).Error)
	assert.Equal(t, 1, stored.Quantity)

	var product models.Product
	require.NoError(t, db.First(&product, "id = ?", card.ID).Error)
	assert.Equal(t, 3, product.Stock)

	res, err := CheckCart(ctx, db, "alice", line.CartID)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Gengar", "20", 4)
	cart := testutil.SeedCart(t, db, "alice")
	line := testutil.SeedCartItem(t, db, cart.ID, card.ID, 1)

	item, err := SetQuantity(ctx, db, "alice", line.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, item.Quantity)

	_, err = SetQuantity(ctx, db, "alice", line.ID, 5)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = SetQuantity(ctx, db, "alice", line.ID, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = SetQuantity(ctx, db, "mallory", line.ID, 1)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = SetQuantity(ctx, db, "alice", "missing", 1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Mew", "60", 1)
	cart := testutil.SeedCart(t, db, "alice")
	line := testutil.SeedCartItem(t, db, cart.ID, card.ID, 1)

	assert.True(t, apperr.Is(RemoveItem(ctx, db, "mallory", line.ID), apperr.KindUnauthorized))
	require.NoError(t, RemoveItem(ctx, db, "alice", line.ID))
	assert.True(t, apperr.Is(RemoveItem(ctx, db, "alice", line.ID), apperr.KindNotFound))
}

func TestGetSnapshot(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)

	empty, err := GetSnapshot(ctx, db, "nobody")
	require.NoError(t, err)
	assert.Nil(t, empty.CartID)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Subtotal.IsZero())

	onSale := testutil.SeedProduct(t, db, "Booster", "100", 10, testutil.WithSale("80"))
	brokenSale := testutil.SeedProduct(t, db, "Sleeve", "10", 10, testutil.WithSale("15"))
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, onSale.ID, 2)
	testutil.SeedCartItem(t, db, cart.ID, brokenSale.ID, 1)

	// A stale discount larger than the subtotal is clamped.
	require.NoError(t, db.Model(cart).Update("discount_amount", decimal.NewFromInt(500)).Error)

	snap, err := GetSnapshot(ctx, db, "alice")
	require.NoError(t, err)
	require.NotNil(t, snap.CartID)
	assert.Equal(t, cart.ID, *snap.CartID)
	assert.Equal(t, 2, snap.ItemCount)
	assert.True(t, snap.Subtotal.Equal(decimal.NewFromInt(170)), snap.Subtotal.String())
	assert.True(t, snap.Discount.Equal(snap.Subtotal))
	assert.True(t, snap.Total.IsZero())
	assert.Equal(t, 1, snap.Shipping.Boxes)
}

func TestCheckCart(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	card := testutil.SeedProduct(t, db, "Ho-Oh", "30", 2)
	cart := testutil.SeedCart(t, db, "alice")
	testutil.SeedCartItem(t, db, cart.ID, card.ID, 2)

	res, err := CheckCart(ctx, db, "alice", cart.ID)
	require.NoError(t, err)
	assert.True(t, res.Valid)

	_, err = CheckCart(ctx, db, "mallory", cart.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = CheckCart(ctx, db, "alice", "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestBuildSnapshotShipsOnlyPricedLines(t *testing.T) {
	heavy := &models.Product{Name: "Display Case", Price: decimal.NewFromInt(50), Weight: decimal.NewNullDecimal(decimal.RequireFromString("0.75"))}
	cart := &models.Cart{
		ID: "cart-1",
		Items: []models.CartItem{
			{ID: "a", ProductID: "p1", Quantity: 2, Product: heavy},
			{ID: "b", ProductID: "gone", Quantity: 8},
		},
	}

	snap := BuildSnapshot(cart)
	require.Len(t, snap.Items, 1)
	assert.True(t, snap.Shipping.TotalWeight.Equal(decimal.RequireFromString("1.5")), snap.Shipping.TotalWeight.String())
	assert.Equal(t, 2, snap.Shipping.Boxes)
}
