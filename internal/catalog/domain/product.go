package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrValidation = errors.New("validation failed")

const (
	MaxProductIDLen   = 20
	MaxProductNameLen = 100
	MaxPrice          = 10000
	MaxQuantity       = 10000
)

// Product is one sellable catalog entry. Quantity is the on-hand
// stock count mutated by order processing; it never goes negative.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID   string             `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Price       float64            `bson:"price" json:"price"`
	Quantity    int                `bson:"quantity" json:"quantity"`
}

func (p Product) Validate() error {
	if p.ProductID == "" {
		return fmt.Errorf("%w: productId is required", ErrValidation)
	}
	if utf8.RuneCountInString(p.ProductID) > MaxProductIDLen {
		return fmt.Errorf("%w: productId exceeds %d characters", ErrValidation, MaxProductIDLen)
	}
	if p.ProductName == "" {
		return fmt.Errorf("%w: productName is required", ErrValidation)
	}
	if utf8.RuneCountInString(p.ProductName) > MaxProductNameLen {
		return fmt.Errorf("%w: productName exceeds %d characters", ErrValidation, MaxProductNameLen)
	}
	if p.Price < 0 || p.Price > MaxPrice {
		return fmt.Errorf("%w: price must be between 0 and %d", ErrValidation, MaxPrice)
	}
	if p.Quantity < 0 || p.Quantity > MaxQuantity {
		return fmt.Errorf("%w: quantity must be between 0 and %d", ErrValidation, MaxQuantity)
	}
	return nil
}

// Patch carries the fields of a partial product update; nil fields are
// left untouched by the merge.
type Patch struct {
	ProductID   *string  `json:"productId"`
	ProductName *string  `json:"productName"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

func (p Patch) Validate() error {
	if p.ProductID != nil {
		if *p.ProductID == "" {
			return fmt.Errorf("%w: productId cannot be empty", ErrValidation)
		}
		if utf8.RuneCountInString(*p.ProductID) > MaxProductIDLen {
			return fmt.Errorf("%w: productId exceeds %d characters", ErrValidation, MaxProductIDLen)
		}
	}
	if p.ProductName != nil {
		if *p.ProductName == "" {
			return fmt.Errorf("%w: productName cannot be empty", ErrValidation)
		}
		if utf8.RuneCountInString(*p.ProductName) > MaxProductNameLen {
			return fmt.Errorf("%w: productName exceeds %d characters", ErrValidation, MaxProductNameLen)
		}
	}
	if p.Price != nil && (*p.Price < 0 || *p.Price > MaxPrice) {
		return fmt.Errorf("%w: price must be between 0 and %d", ErrValidation, MaxPrice)
	}
	if p.Quantity != nil && (*p.Quantity < 0 || *p.Quantity > MaxQuantity) {
		return fmt.Errorf("%w: quantity must be between 0 and %d", ErrValidation, MaxQuantity)
	}
	return nil
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.ProductID == nil && p.ProductName == nil && p.Price == nil && p.Quantity == nil
}
