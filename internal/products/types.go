package products

// Product represents the item stored in the Products DynamoDB table. It is
// owned by the seller workflow; this service only reads it.
type Product struct {
	ProductID   string   `json:"_id" dynamodbav:"product_id"` // PK
	SellerID    string   `json:"userId,omitempty" dynamodbav:"seller_id,omitempty"`
	Name        string   `json:"name" dynamodbav:"name"`
	Description string   `json:"description" dynamodbav:"description"`
	Category    string   `json:"category" dynamodbav:"category"`
	Price       float64  `json:"price" dynamodbav:"price"`
	OfferPrice  float64  `json:"offerPrice" dynamodbav:"offer_price"`
	Image       []string `json:"image" dynamodbav:"image"`
	Date        int64    `json:"date" dynamodbav:"date"`
}

// Snapshot is the display subset of a product joined into order listings.
type Snapshot struct {
	ID         string   `json:"_id" dynamodbav:"product_id"`
	Name       string   `json:"name" dynamodbav:"name"`
	OfferPrice float64  `json:"offerPrice" dynamodbav:"offer_price"`
	Image      []string `json:"image" dynamodbav:"image"`
}
