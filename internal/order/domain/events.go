package domain

// Events recorded to the outbox on each order state change.

type OrderCreated struct {
	OrderID      string     `json:"orderId"`
	CustomerName string     `json:"customerName"`
	Total        float64    `json:"total"`
	Items        []LineItem `json:"items"`
}

type OrderUpdated struct {
	OrderID string     `json:"orderId"`
	Total   float64    `json:"total"`
	Items   []LineItem `json:"items"`
}

type OrderDeleted struct {
	OrderID string `json:"orderId"`
}
