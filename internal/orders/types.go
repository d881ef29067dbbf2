package orders

// Order status values. Payment is cash on delivery, so every order is
// recorded as placed with payment pending.
const (
	StatusPlaced         = "Order Placed"
	PaymentTypeCOD       = "COD"
	PaymentStatusPending = "pending"
)

// Address is the shipping address embedded in an order.
type Address struct {
	FullName    string `json:"fullName" dynamodbav:"full_name" validate:"required"`
	PhoneNumber string `json:"phoneNumber" dynamodbav:"phone_number" validate:"required"`
	Area        string `json:"area" dynamodbav:"area" validate:"required"`
	City        string `json:"city" dynamodbav:"city" validate:"required"`
	State       string `json:"state" dynamodbav:"state" validate:"required"`
	Pincode     string `json:"pincode,omitempty" dynamodbav:"pincode,omitempty"`
}

// Item is a single order line: a product reference and a quantity.
type Item struct {
	Product  string `json:"product" dynamodbav:"product" validate:"required"`
	Quantity int    `json:"quantity" dynamodbav:"quantity" validate:"required,min=1"`
}

// Order represents the item stored in the Orders DynamoDB table.
type Order struct {
	OrderID       string  `json:"_id" dynamodbav:"order_id"` // PK
	UserID        string  `json:"userId" dynamodbav:"user_id"`
	Items         []Item  `json:"items" dynamodbav:"items"`
	Address       Address `json:"address" dynamodbav:"address"`
	Amount        float64 `json:"amount" dynamodbav:"amount"`
	Date          int64   `json:"date" dynamodbav:"date"` // epoch millis, index range key
	Status        string  `json:"status" dynamodbav:"status"`
	PaymentType   string  `json:"paymentType" dynamodbav:"payment_type"`
	PaymentStatus string  `json:"paymentStatus" dynamodbav:"payment_status"`
}
