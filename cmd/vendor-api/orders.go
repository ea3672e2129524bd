package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
	"github.com/MikeMC777/vendor-backoffice/internal/order"
)

// listOrdersHandler godoc
// @Summary      List orders, newest first
// @Tags         orders
// @Produce      json
// @Success      200  {array}  order.Summary
// @Security     ApiKeyAuth
// @Router       /orders [get]
func listOrdersHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context())
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getOrderHandler godoc
// @Summary      Get order with items, payments and status history
// @Tags         orders
// @Produce      json
// @Param        id   path  string  true  "order id"
// @Success      200  {object}  order.Aggregate
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders/{id} [get]
func getOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// createOrderHandler godoc
// @Summary      Create order
// @Description  Prices the lines, stores the order and checks stock for each line.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body  order.CreateOrderRequest  true  "order"
// @Success      201  {object}  order.Aggregate
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders [post]
func createOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.CreateOrderRequest
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

// updateOrderHandler godoc
// @Summary      Update order header
// @Description  Does not add a status event; use PUT /orders/{id}/status for transitions.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "order id"
// @Param        body  body  order.UpdateOrderRequest  true  "fields to change"
// @Success      200  {object}  order.Aggregate
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders/{id} [put]
func updateOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateOrderRequest
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

// updateOrderStatusHandler godoc
// @Summary      Change order status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "order id"
// @Param        body  body  order.UpdateStatusRequest  true  "transition"
// @Success      200  {object}  order.Aggregate
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders/{id}/status [put]
func updateOrderStatusHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.UpdateStatusRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		out, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// deleteOrderHandler godoc
// @Summary      Delete order
// @Tags         orders
// @Produce      json
// @Param        id   path  string  true  "order id"
// @Success      200  {object}  order.DeleteResponse
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders/{id} [delete]
func deleteOrderHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, order.DeleteResponse{Message: "order deleted", Order: *out})
	}
}

// recordPaymentHandler godoc
// @Summary      Record a bank transfer
// @Description  Stored as confirmed and replicated to finance; a finance outage does not fail the request.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "order id"
// @Param        body  body  order.RecordPaymentRequest  true  "payment"
// @Success      201  {object}  order.Payment
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /orders/{id}/payments [post]
func recordPaymentHandler(svc *order.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in order.RecordPaymentRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.BadRequest(c, err)
			return
		}
		out, err := svc.RecordPayment(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}
