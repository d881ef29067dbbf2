package users

// User is the local profile of an authenticated shopper, keyed by the
// identity provider's user id.
type User struct {
	UserID    string         `json:"_id" dynamodbav:"user_id"` // PK
	Name      string         `json:"name" dynamodbav:"name"`
	Email     string         `json:"email" dynamodbav:"email"`
	ImageURL  string         `json:"imageUrl" dynamodbav:"image_url"`
	CartItems map[string]int `json:"cartItems" dynamodbav:"cart_items"`
}
