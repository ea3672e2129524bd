package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/apperr"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
	"github.com/MikeMC777/vendor-backoffice/internal/product"
)

// listProductsHandler godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        status  query  string  false  "active | inactive | archived"
// @Param        q       query  string  false  "name contains (case-insensitive)"
// @Param        offset  query  int     false  "offset"  default(0)
// @Param        limit   query  int     false  "limit"   default(20)
// @Success      200  {object}  product.ListResponse
// @Failure      400  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /products [get]
func listProductsHandler(svc *product.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := product.Query{
			Status: product.Status(c.Query("status")),
			Q:      c.Query("q"),
		}
		var err error
		if q.Offset, err = intQuery(c, "offset"); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		if q.Limit, err = intQuery(c, "limit"); err != nil {
			httpx.Fail(c, log, err)
			return
		}
		res, err := svc.List(c.Request.Context(), q)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func intQuery(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validationf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// getProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "product id"
// @Success      200  {object}  product.Product
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /products/{id} [get]
func getProductHandler(svc *product.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// createProductHandler godoc
// @Summary      Create product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body  product.CreateProductRequest  true  "product"
// @Success      201  {object}  product.Product
// @Failure      400  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /products [post]
func createProductHandler(svc *product.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.CreateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// updateProductHandler godoc
// @Summary      Update product (partial)
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "product id"
// @Param        body  body  product.UpdateProductRequest  true  "fields to change"
// @Success      200  {object}  product.Product
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /products/{id} [put]
func updateProductHandler(svc *product.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in product.UpdateProductRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		p, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// deleteProductHandler godoc
// @Summary      Delete product
// @Description  Order items keep their snapshot; their productId becomes null.
// @Tags         products
// @Produce      json
// @Param        id   path  string  true  "product id"
// @Success      200  {object}  product.DeleteResponse
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /products/{id} [delete]
func deleteProductHandler(svc *product.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, product.DeleteResponse{Message: "product deleted", Product: *p})
	}
}
