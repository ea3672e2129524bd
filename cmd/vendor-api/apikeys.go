package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MikeMC777/vendor-backoffice/internal/apikey"
	"github.com/MikeMC777/vendor-backoffice/internal/httpx"
)

// listAPIKeysHandler godoc
// @Summary      List API keys
// @Tags         api-keys
// @Produce      json
// @Success      200  {array}  apikey.ApiKey
// @Failure      403  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /api-keys [get]
func listAPIKeysHandler(svc *apikey.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.List(c.Request.Context())
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// getAPIKeyHandler godoc
// @Summary      Get API key
// @Tags         api-keys
// @Produce      json
// @Param        id   path  string  true  "api key id"
// @Success      200  {object}  apikey.ApiKey
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /api-keys/{id} [get]
func getAPIKeyHandler(svc *apikey.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// createAPIKeyHandler godoc
// @Summary      Create API key
// @Description  The plaintext key is only returned here.
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        body  body  apikey.CreateApiKeyRequest  true  "key"
// @Success      201  {object}  apikey.CreatedKey
// @Failure      400  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /api-keys [post]
func createAPIKeyHandler(svc *apikey.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in apikey.CreateApiKeyRequest
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

// updateAPIKeyHandler godoc
// @Summary      Update API key (partial)
// @Tags         api-keys
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "api key id"
// @Param        body  body  apikey.UpdateApiKeyRequest  true  "fields to change"
// @Success      200  {object}  apikey.ApiKey
// @Failure      400  {object}  httpx.HTTPError
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /api-keys/{id} [put]
func updateAPIKeyHandler(svc *apikey.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in apikey.UpdateApiKeyRequest
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

// revokeAPIKeyHandler godoc
// @Summary      Revoke API key
// @Tags         api-keys
// @Produce      json
// @Param        id   path  string  true  "api key id"
// @Success      200  {object}  apikey.RevokeResponse
// @Failure      404  {object}  httpx.HTTPError
// @Security     ApiKeyAuth
// @Router       /api-keys/{id} [delete]
func revokeAPIKeyHandler(svc *apikey.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Revoke(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, log, err)
			return
		}
		c.JSON(http.StatusOK, apikey.RevokeResponse{Message: "api key revoked", ApiKey: out})
	}
}
