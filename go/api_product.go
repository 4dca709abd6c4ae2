package shopserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	producthttpmapper "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/adapters/http/mapper"
	catalogports "github.com/Apurer/go-gin-shop-api/internal/domains/catalog/ports"
	apierrors "github.com/Apurer/go-gin-shop-api/internal/shared/errors"
)

// ProductAPI wires HTTP transport with the catalog bounded context.
type ProductAPI struct {
	service catalogports.Service
}

func NewProductAPI(service catalogports.Service) ProductAPI {
	return ProductAPI{service: service}
}

// Get /products
// Lists products, optionally filtered by category and availability
func (api *ProductAPI) ListProducts(c *gin.Context) {
	filter := catalogports.ListFilter{Category: strings.TrimSpace(c.Query("category"))}
	if raw := c.Query("inStock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			respondProblem(c, apierrors.ErrBadRequest.WithDetail("inStock must be a boolean"))
			return
		}
		filter.InStock = inStock
	}
	products, err := api.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, producthttpmapper.FromDomainProducts(products))
}

// Get /products/:productId
// Find product by ID
func (api *ProductAPI) GetProduct(c *gin.Context) {
	id, ok := requireParam(c, "productId")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, producthttpmapper.FromDomainProduct(product))
}

// Post /products
// Adds a product to the catalog (admin)
func (api *ProductAPI) CreateProduct(c *gin.Context) {
	var payload producthttpmapper.CreateProduct
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), producthttpmapper.ToProductInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Location", "/products/"+product.ID)
	c.JSON(http.StatusCreated, producthttpmapper.FromDomainProduct(product))
}

// Post /products/:productId/restock
// Adds units to a product's stock (admin)
func (api *ProductAPI) RestockProduct(c *gin.Context) {
	id, ok := requireParam(c, "productId")
	if !ok {
		return
	}
	var payload producthttpmapper.Restock
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	product, err := api.service.Restock(c.Request.Context(), id, payload.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, producthttpmapper.FromDomainProduct(product))
}

func requireParam(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		respondProblem(c, apierrors.ErrBadRequest.WithDetail(name+" is required"))
		return "", false
	}
	return value, true
}
