package domain

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	catalog "github.com/watchara-p/inventory-order-service/internal/catalog/domain"
)

var ErrValidation = errors.New("validation failed")

const (
	MaxCustomerNameLen = 100
	MaxPhoneNumberLen  = 15
	MaxAddressLen      = 255
)

// LineItem is one (product reference, quantity) pair. The reference is
// weak: the product may be deleted out from under historical orders.
type LineItem struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Quantity int                `bson:"quantity" json:"quantity"`
}

// Order is a persisted customer order. Total is derived server-side
// from catalog prices at order time, never taken from the client.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerName string             `bson:"customerName" json:"customerName"`
	PhoneNumber  string             `bson:"phoneNumber" json:"phoneNumber"`
	Address      string             `bson:"address" json:"address"`
	CODService   bool               `bson:"codService" json:"codService"`
	Items        []LineItem         `bson:"products" json:"products"`
	Total        float64            `bson:"total" json:"total"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

func (o Order) Validate() error {
	if o.CustomerName == "" {
		return fmt.Errorf("%w: customerName is required", ErrValidation)
	}
	if utf8.RuneCountInString(o.CustomerName) > MaxCustomerNameLen {
		return fmt.Errorf("%w: customerName exceeds %d characters", ErrValidation, MaxCustomerNameLen)
	}
	if o.PhoneNumber == "" {
		return fmt.Errorf("%w: phoneNumber is required", ErrValidation)
	}
	if utf8.RuneCountInString(o.PhoneNumber) > MaxPhoneNumberLen {
		return fmt.Errorf("%w: phoneNumber exceeds %d characters", ErrValidation, MaxPhoneNumberLen)
	}
	if o.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if utf8.RuneCountInString(o.Address) > MaxAddressLen {
		return fmt.Errorf("%w: address exceeds %d characters", ErrValidation, MaxAddressLen)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: order needs at least one line item", ErrValidation)
	}
	for _, item := range o.Items {
		if item.Product.IsZero() {
			return fmt.Errorf("%w: line item is missing a product reference", ErrValidation)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("%w: line item quantity must be at least 1", ErrValidation)
		}
	}
	return nil
}

// AggregateItems merges line items that reference the same product
// into one entry summing their quantities. First-occurrence order is
// preserved. Runs before validation and before any stock mutation:
// duplicate lines submitted by a client would otherwise be checked and
// decremented per line instead of per product.
func AggregateItems(items []LineItem) []LineItem {
	merged := make([]LineItem, 0, len(items))
	index := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		if i, ok := index[item.Product]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.Product] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

// ExpandedItem is the read-side view of a line item with the product
// reference resolved. Product is nil when the reference dangles.
type ExpandedItem struct {
	Product  *catalog.Product `json:"product"`
	Quantity int              `json:"quantity"`
}

type ExpandedOrder struct {
	ID           primitive.ObjectID `json:"id"`
	CustomerName string             `json:"customerName"`
	PhoneNumber  string             `json:"phoneNumber"`
	Address      string             `json:"address"`
	CODService   bool               `json:"codService"`
	Items        []ExpandedItem     `json:"products"`
	Total        float64            `json:"total"`
	CreatedAt    time.Time          `json:"createdAt"`
}
