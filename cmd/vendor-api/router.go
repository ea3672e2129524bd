package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/docs"
	"github.com/MikeMC777/vendor-backoffice/internal/apikey"
	"github.com/MikeMC777/vendor-backoffice/internal/customer"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
	"github.com/MikeMC777/vendor-backoffice/internal/order"
	"github.com/MikeMC777/vendor-backoffice/internal/product"
)

type app struct {
	log       *zap.Logger
	auth      *httpx.Auth
	products  *product.Service
	customers *customer.Service
	orders    *order.Service
	apiKeys   *apikey.Service
	ping      func(ctx context.Context) error
}

func newRouter(a app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(a.log), httpx.Actor(), a.auth.Middleware())

	r.GET("/", infoHandler)
	r.GET("/healthz", healthHandler(a.ping))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/v1")

	v1.GET("/products", listProductsHandler(a.products, a.log))
	v1.GET("/products/:id", getProductHandler(a.products, a.log))
	v1.POST("/products", createProductHandler(a.products, a.log))
	v1.PUT("/products/:id", updateProductHandler(a.products, a.log))
	v1.DELETE("/products/:id", deleteProductHandler(a.products, a.log))

	v1.GET("/customers", listCustomersHandler(a.customers, a.log))
	v1.GET("/customers/:id", getCustomerHandler(a.customers, a.log))
	v1.POST("/customers", createCustomerHandler(a.customers, a.log))
	v1.PUT("/customers/:id", updateCustomerHandler(a.customers, a.log))
	v1.DELETE("/customers/:id", deleteCustomerHandler(a.customers, a.log))

	v1.GET("/orders", listOrdersHandler(a.orders, a.log))
	v1.GET("/orders/:id", getOrderHandler(a.orders, a.log))
	v1.POST("/orders", createOrderHandler(a.orders, a.log))
	v1.PUT("/orders/:id", updateOrderHandler(a.orders, a.log))
	v1.DELETE("/orders/:id", deleteOrderHandler(a.orders, a.log))
	v1.PUT("/orders/:id/status", updateOrderStatusHandler(a.orders, a.log))
	v1.POST("/orders/:id/payments", recordPaymentHandler(a.orders, a.log))

	keys := v1.Group("/api-keys", httpx.RequireScope(apikey.ScopeWrite))
	keys.GET("", listAPIKeysHandler(a.apiKeys, a.log))
	keys.GET("/:id", getAPIKeyHandler(a.apiKeys, a.log))
	keys.POST("", createAPIKeyHandler(a.apiKeys, a.log))
	keys.PUT("/:id", updateAPIKeyHandler(a.apiKeys, a.log))
	keys.DELETE("/:id", revokeAPIKeyHandler(a.apiKeys, a.log))

	return r
}

// infoHandler godoc
// @Summary  API info
// @Tags     meta
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   / [get]
func infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    docs.SwaggerInfo.Title,
		"version": docs.SwaggerInfo.Version,
		"docs":    "/swagger/index.html",
	})
}

// healthHandler godoc
// @Summary  Liveness and database reachability
// @Tags     meta
// @Produce  plain
// @Success  200  {string}  string  "ok"
// @Failure  503  {string}  string  "database unavailable"
// @Router   /healthz [get]
func healthHandler(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if ping != nil {
			if err := ping(ctx); err != nil {
				c.String(http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}
