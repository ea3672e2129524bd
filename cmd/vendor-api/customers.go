package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/customer"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
)

// listCustomersHandler godoc
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        q    query  string  false  "name or email contains"
// @Success      200  {array}  customer.Customer
// @Security     ApiKeyAuth
// @Router       /customers [get]
func listCustomersHandler(svc *customer.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context(), c.Query("q"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getCustomerHandler godoc
// @Summary      Get customer
// @Tags         customers
// @Produce      json
// @Param        id   path  string  true  "customer id"
// @Success      200  {object}  customer.Customer
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /customers/{id} [get]
func getCustomerHandler(svc *customer.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// createCustomerHandler godoc
// @Summary      Create customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body  customer.CreateCustomerRequest  true  "customer"
// @Success      201  {object}  customer.Customer
// @Failure      400  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /customers [post]
func createCustomerHandler(svc *customer.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customer.CreateCustomerRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		out, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

// updateCustomerHandler godoc
// @Summary      Update customer (partial)
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "customer id"
// @Param        body  body  customer.UpdateCustomerRequest  true  "fields to change"
// @Success      200  {object}  customer.Customer
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /customers/{id} [put]
func updateCustomerHandler(svc *customer.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in customer.UpdateCustomerRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		out, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// deleteCustomerHandler godoc
// @Summary      Delete customer
// @Description  Also deletes the customer's orders.
// @Tags         customers
// @Produce      json
// @Param        id   path  string  true  "customer id"
// @Success      200  {object}  customer.DeleteResponse
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /customers/{id} [delete]
func deleteCustomerHandler(svc *customer.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, customer.DeleteResponse{Message: "customer deleted", Customer: *out})
	}
}
