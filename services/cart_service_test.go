package services

import (
	"context"
	"testing"

	"smartorder/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_SaveOverwritesWholesale(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	user := createUser(t, fx.db, "c@example.com", entity.RoleCustomer)
	uid := *user.UserID

	empty, err := fx.carts.Get(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.Zero(t, empty.Subtotal)

	v, err := fx.carts.Save(ctx, uid, &SaveCartReq{Items: []CartItemIn{{ProductID: 1, Quantity: 2}, {ProductID: 3, Quantity: 1}}})
	require.NoError(t, err)
	require.Len(t, v.Items, 2)
	assert.Equal(t, "Zinger Burger", v.Items[0].Name)
	assert.Equal(t, 499.0*2+350, v.Subtotal)

	v, err = fx.carts.Save(ctx, uid, &SaveCartReq{Items: []CartItemIn{{ProductID: 5, Quantity: 3}}})
	require.NoError(t, err)
	require.Len(t, v.Items, 1)

	got, err := fx.carts.Get(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Mint Margarita", got.Items[0].Name)
	assert.Equal(t, 3, got.Items[0].Quantity)

	require.NoError(t, fx.carts.Clear(ctx, uid))
	got, err = fx.carts.Get(ctx, uid)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCart_RejectsUnknownProduct(t *testing.T) {
	fx := newFixture(t)
	user := createUser(t, fx.db, "c@example.com", entity.RoleCustomer)

	_, err := fx.carts.Save(context.Background(), *user.UserID, &SaveCartReq{Items: []CartItemIn{{ProductID: 999, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrValidation)
}
