package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          uint64
	OrderNumber string

	Name  string
	Email string
	Phone string

	// Catalog snapshot taken at order time. Later price changes must not
	// rewrite existing orders.
	Bundle     string
	BundleName string
	Price      float64
	Gummies    int
	Days       int

	Status OrderStatus
	Notes  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderCreateInput struct {
	Name  string
	Email string
	Phone string

	Bundle     string
	BundleName string
	Price      float64
	Gummies    int
	Days       int
}

// OrderPatch carries the admin-editable fields; nil means "leave as is".
type OrderPatch struct {
	Status *OrderStatus
	Notes  *string
}
