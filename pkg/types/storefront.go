package types

// Wire shapes for the /orders/api and /notifications endpoints. They are
// shared by the HTTP controllers and the storefront client.

type ProductPayload struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Price       float64 `json:"price" validate:"gte=0"`
	Unit        string  `json:"unit,omitempty" validate:"omitempty,max=20"`
	Category    string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
}

type SupplierPayload struct {
	PlaceID   string   `json:"place_id,omitempty" validate:"omitempty,max=200"`
	Name      string   `json:"name" validate:"required,max=200"`
	Address   string   `json:"address,omitempty"`
	Phone     string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	Rating    float64  `json:"rating,omitempty" validate:"gte=0,lte=5"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type AddToCartRequest struct {
	Product  ProductPayload  `json:"product" validate:"required"`
	Supplier SupplierPayload `json:"supplier" validate:"required"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=10000"`
}

// CartActionResponse is returned by every cart mutation.
type CartActionResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	CartCount int     `json:"cart_count"`
	ItemTotal float64 `json:"item_total,omitempty"`
}

type CartCountResponse struct {
	CartCount int     `json:"cart_count"`
	Subtotal  float64 `json:"subtotal"`
}

type UpdateCartRequest struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity"`
}

type RemoveFromCartRequest struct {
	ItemID string `json:"item_id" validate:"required,uuid"`
}

type PlaceOrderRequest struct {
	VendorName    string `json:"vendor_name" validate:"required,max=200"`
	VendorPhone   string `json:"vendor_phone,omitempty" validate:"omitempty,max=30"`
	VendorAddress string `json:"vendor_address,omitempty"`
}

type PlaceOrderResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	OrderID string  `json:"order_id,omitempty"`
	Total   float64 `json:"total,omitempty"`
}
