package domain

import "time"

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentPickup         PaymentMethod = "PICKUP"
)

// DeliveryPaymentMethod is the combined delivery/payment selection offered at
// checkout.
type DeliveryPaymentMethod string

const (
	DeliveryPaymentCashOnDelivery DeliveryPaymentMethod = "CASH_ON_DELIVERY"
	DeliveryPaymentPickupCash     DeliveryPaymentMethod = "PICKUP_CASH"
)

func ParsePaymentMethod(v string) (PaymentMethod, bool) {
	switch PaymentMethod(v) {
	case PaymentCashOnDelivery, PaymentPickup:
		return PaymentMethod(v), true
	}
	return "", false
}

func ParseDeliveryPaymentMethod(v string) (DeliveryPaymentMethod, bool) {
	switch DeliveryPaymentMethod(v) {
	case DeliveryPaymentCashOnDelivery, DeliveryPaymentPickupCash:
		return DeliveryPaymentMethod(v), true
	}
	return "", false
}

// Line is an immutable snapshot of a cart line taken at order time. The unit
// price is the cart's, not the product's current price. Prices are integer
// cents.
type Line struct {
	ID        int64  `json:"id"`
	OrderID   int64  `json:"order_id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
}

// Order references its user and products by id only; there are no entity
// back-references. TotalPrice is fixed at creation and never recomputed.
type Order struct {
	ID                    int64                 `json:"id"`
	UserID                int64                 `json:"user_id"`
	Status                Status                `json:"status"`
	PaymentMethod         PaymentMethod         `json:"payment_method"`
	DeliveryPaymentMethod DeliveryPaymentMethod `json:"delivery_payment_method,omitempty"`
	RecipientName         string                `json:"recipient_name"`
	RecipientPhone        string                `json:"recipient_phone"`
	RecipientEmail        string                `json:"recipient_email"`
	RecipientAddress      string                `json:"recipient_address"`
	TotalPrice            int64                 `json:"total_price"`
	Lines                 []Line                `json:"lines"`
	CreatedAt             time.Time             `json:"created_at"`
}
