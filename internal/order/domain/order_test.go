package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAggregateItemsMergesDuplicates(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	got := AggregateItems([]LineItem{
		{Product: a, Quantity: 2},
		{Product: b, Quantity: 1},
		{Product: a, Quantity: 3},
	})

	assert.Equal(t, []LineItem{
		{Product: a, Quantity: 5},
		{Product: b, Quantity: 1},
	}, got)
}

func TestAggregateItemsIdempotentOnUniqueList(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	c := primitive.NewObjectID()

	items := []LineItem{
		{Product: c, Quantity: 1},
		{Product: a, Quantity: 4},
		{Product: b, Quantity: 2},
	}
	assert.Equal(t, items, AggregateItems(items))
}

func TestAggregateItemsEmpty(t *testing.T) {
	assert.Empty(t, AggregateItems(nil))
}

func validOrder() Order {
	return Order{
		CustomerName: "Somchai",
		PhoneNumber:  "0812345678",
		Address:      "1 Main Road, Bangkok",
		Items:        []LineItem{{Product: primitive.NewObjectID(), Quantity: 1}},
	}
}

func TestOrderValidate(t *testing.T) {
	assert.NoError(t, validOrder().Validate())

	cases := []struct {
		name   string
		mutate func(*Order)
	}{
		{"missing customerName", func(o *Order) { o.CustomerName = "" }},
		{"customerName too long", func(o *Order) { o.CustomerName = strings.Repeat("x", 101) }},
		{"missing phoneNumber", func(o *Order) { o.PhoneNumber = "" }},
		{"phoneNumber too long", func(o *Order) { o.PhoneNumber = strings.Repeat("9", 16) }},
		{"missing address", func(o *Order) { o.Address = "" }},
		{"address too long", func(o *Order) { o.Address = strings.Repeat("x", 256) }},
		{"no items", func(o *Order) { o.Items = nil }},
		{"zero quantity", func(o *Order) { o.Items[0].Quantity = 0 }},
		{"missing product ref", func(o *Order) { o.Items[0].Product = primitive.NilObjectID }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := validOrder()
			tc.mutate(&o)
			assert.ErrorIs(t, o.Validate(), ErrValidation)
		})
	}
}
