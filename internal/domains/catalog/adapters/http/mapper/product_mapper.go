package mapper

import (
	"github.com/shopspring/decimal"

	catalogdomain "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
)

// Product is the transport representation of a catalog product.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       string   `json:"price"`
	Stock       int      `json:"stock"`
	Sold        int      `json:"sold"`
	Categories  []string `json:"categories,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
}

// CreateProduct is the request body for POST /products.
type CreateProduct struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
	Categories  []string        `json:"categories"`
	ImageURL    string          `json:"imageUrl" binding:"omitempty,url"`
}

// MaxRestockQuantity caps a single restock request.
const MaxRestockQuantity = 1_000_000

// Restock is the request body for POST /products/:productId/restock.
type Restock struct {
	Quantity int `json:"quantity" binding:"required,gt=0,max=1000000"`
}

// ToProductInput converts the request body into a service input.
func ToProductInput(body CreateProduct) catalogports.ProductInput {
	return catalogports.ProductInput{
		Name:        body.Name,
		Description: body.Description,
		Price:       body.Price,
		Stock:       body.Stock,
		Categories:  body.Categories,
		ImageURL:    body.ImageURL,
	}
}

// FromDomainProduct converts a domain product to the transport representation.
func FromDomainProduct(p *catalogdomain.Product) Product {
	if p == nil {
		return Product{}
	}
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		Stock:       p.Stock,
		Sold:        p.Sold,
		Categories:  p.Categories,
		ImageURL:    p.ImageURL,
	}
}

// FromDomainProducts converts a list of products.
func FromDomainProducts(products []*catalogdomain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, FromDomainProduct(p))
	}
	return out
}
