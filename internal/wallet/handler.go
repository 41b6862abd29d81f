package wallet

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/httpapi"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/create-wallet", h.createWallet)
	router.POST("/purchase-credits", h.purchaseCredits)
	router.GET("/wallet", h.getWallet)
	router.GET("/wallet/assets", h.listAssets)
	router.GET("/wallet/transactions", h.listTransactions)
	router.GET("/purchases", h.listPurchases)
}

// createWallet handles POST /api/v1/create-wallet
func (h *Handler) createWallet(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	w, created, err := h.service.CreateWallet(c.Request.Context(), identity)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	if !created {
		c.JSON(http.StatusOK, gin.H{"wallet": w})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "wallet": w})
}

// purchaseCredits handles POST /api/v1/purchase-credits
func (h *Handler) purchaseCredits(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	var req PurchaseRequest
	if err := httpapi.BindJSON(c, &req); err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	purchase, err := h.service.Purchase(c.Request.Context(), identity, &req)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "purchase": purchase})
}

func (h *Handler) getWallet(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	w, err := h.service.GetWallet(c.Request.Context(), identity.UserID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet": w})
}

func (h *Handler) listAssets(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	assets, err := h.service.Assets(c.Request.Context(), identity.UserID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

func (h *Handler) listTransactions(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	txs, err := h.service.Transactions(c.Request.Context(), identity.UserID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (h *Handler) listPurchases(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	purchases, err := h.service.Purchases(c.Request.Context(), identity.UserID)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": purchases})
}
