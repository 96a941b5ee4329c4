package backend

import (
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// --- Accounts ---

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type EmailUpdate struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordUpdate struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// --- Catalog ---

// FlavorShare is one flavor of a cake with its share of the cake in percent.
type FlavorShare struct {
	Name          string          `json:"name"`
	Percentage    decimal.Decimal `json:"percentage"`
	Special       string          `json:"special,omitempty"`
	Specification string          `json:"specification,omitempty"`
}

// Cake is a catalog item: a gallery picture, a ready-made cake or a modify base.
type Cake struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Shape       string          `json:"shape,omitempty"`
	Tiers       int             `json:"tiers,omitempty"`
	Flavors     []FlavorShare   `json:"flavors,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	Deleted     bool            `json:"isDeleted,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
}

// CakeInput creates or updates a catalog item.
type CakeInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Shape       string          `json:"shape,omitempty"`
	Tiers       int             `json:"tiers,omitempty"`
	Flavors     []FlavorShare   `json:"flavors,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

type CakeList struct {
	Items []Cake `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// Upload is a design picture a customer attached to an order.
type Upload struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"orderId,omitempty"`
	CustomerName string    `json:"customerName,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	Note         string    `json:"note,omitempty"`
	Deleted      bool      `json:"isDeleted,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type UploadList struct {
	Items []Upload `json:"items"`
	Total int      `json:"total"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
}

type PriceQuote struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency,omitempty"`
}

// --- Orders ---

// OrderPayload is the body of the custom and modify order endpoints.
type OrderPayload struct {
	OrderType       string        `json:"orderType"`
	BaseCakeID      string        `json:"baseCakeId,omitempty"`
	Shape           string        `json:"shape"`
	NumberOfTiers   int           `json:"numberOfTiers"`
	Tiers           []TierPayload `json:"tiers"`
	Covering        string        `json:"covering"`
	CustomerNote    string        `json:"customerNote,omitempty"`
	DeliveryMethod  string        `json:"deliveryMethod"`
	DeliveryAddress string        `json:"deliveryAddress,omitempty"`
	DeliveryDate    string        `json:"deliveryDate"`
}

type TierPayload struct {
	TierNumber      int           `json:"tierNumber"`
	Size            string        `json:"size"`
	NumberOfFlavors int           `json:"numberOfFlavors"`
	Flavors         []FlavorShare `json:"flavors"`
}

// ReadyMadeOrder is the body of the ready-made order endpoint.
type ReadyMadeOrder struct {
	CakeID          string `json:"cakeId"`
	Quantity        int    `json:"quantity"`
	CustomerNote    string `json:"customerNote,omitempty"`
	DeliveryMethod  string `json:"deliveryMethod"`
	DeliveryAddress string `json:"deliveryAddress,omitempty"`
	DeliveryDate    string `json:"deliveryDate"`
}

// OrderResult is returned by every order-creation endpoint. ChatLink is an
// external messaging link to finalize payment; it is passed through as is.
type OrderResult struct {
	OrderID  string `json:"orderId"`
	Status   string `json:"status,omitempty"`
	ChatLink string `json:"whatsappLink,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	OrderType       string          `json:"orderType"`
	Status          string          `json:"status"`
	CustomerName    string          `json:"customerName,omitempty"`
	CustomerEmail   string          `json:"customerEmail,omitempty"`
	Total           decimal.Decimal `json:"total"`
	DeliveryMethod  string          `json:"deliveryMethod,omitempty"`
	DeliveryAddress string          `json:"deliveryAddress,omitempty"`
	DeliveryDate    string          `json:"deliveryDate,omitempty"`
	Details         *OrderPayload   `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type DashboardStats struct {
	TotalOrders     int             `json:"totalOrders"`
	PendingOrders   int             `json:"pendingOrders"`
	CompletedOrders int             `json:"completedOrders"`
	TotalCustomers  int             `json:"totalCustomers"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	GalleryItems    int             `json:"galleryItems"`
	ReadyMadeCakes  int             `json:"readyMadeCakes"`
}

// --- Reviews ---

type Review struct {
	ID        string    `json:"id"`
	CakeID    string    `json:"cakeId,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReviewInput struct {
	CakeID  string `json:"cakeId,omitempty"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// --- Contact ---

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// ListParams filters and pages admin lists.
type ListParams struct {
	Page    int
	Limit   int
	Status  string
	Search  string
	Deleted bool
}

func (p ListParams) query() string {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Deleted {
		q.Set("deleted", "true")
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
