package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/httpx"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/idempotency"
	ord "github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/order"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/payment"
)

const headerReplayed = "Idempotent-Replayed"

func actorOf(c *gin.Context) (ord.Actor, bool) {
	u, ok := httpx.CurrentUser(c)
	if !ok {
		httpx.Abort(c, http.StatusUnauthorized, "authentication required")
		return ord.Actor{}, false
	}
	return ord.Actor{UserID: u.ID, Role: u.Role}, true
}

// POST /orders (buyer)
//
// With an Idempotency-Key header a retried request returns the order the
// first attempt created instead of creating another one.
func createOrderHandler(svc *ord.Service, idem idempotency.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		var req ord.CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, apperr.Validation("invalid json: %v", err))
			return
		}

		var key string
		if k := idempotency.Key(c.Request); k != "" && idem != nil {
			key = actor.UserID + ":" + k
			orderID, claimed, err := idem.Claim(c.Request.Context(), key)
			if errors.Is(err, idempotency.ErrInFlight) {
				httpx.Fail(c, apperr.BusinessRule("a request with this %s is still in progress", idempotency.Header))
				return
			}
			if err != nil {
				httpx.Fail(c, err)
				return
			}
			if !claimed {
				o, err := svc.Get(c.Request.Context(), orderID)
				if err != nil {
					httpx.Fail(c, err)
					return
				}
				c.Header(headerReplayed, "true")
				c.JSON(http.StatusCreated, o)
				return
			}
		}

		// A claim that was not bound to an order is dropped on every exit,
		// panics included, so the client may retry with the same key.
		bound := false
		if key != "" {
			defer func() {
				if bound {
					return
				}
				if err := idem.Release(context.WithoutCancel(c.Request.Context()), key); err != nil {
					log.Warn("idempotency release failed", zap.String("key", key), zap.Error(err))
				}
			}()
		}

		o, err := svc.Create(c.Request.Context(), actor.UserID, req.Items)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		if key != "" {
			// The order exists from here on; keep the claim even if binding fails.
			bound = true
			if err := idem.Complete(c.Request.Context(), key, o.ID); err != nil {
				log.Warn("idempotency complete failed", zap.String("key", key), zap.String("order_id", o.ID), zap.Error(err))
			}
		}
		c.JSON(http.StatusCreated, o)
	}
}

// GET /orders
func listOrdersHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		orders, err := svc.List(c.Request.Context(), actor)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /orders/:id
func getOrderHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// PATCH /orders/:id/status
func updateOrderStatusHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		var req ord.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, apperr.Validation("invalid json: %v", err))
			return
		}
		to, err := ord.ParseStatus(req.Status)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), to, actor)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// POST /orders/:id/payment (buyer)
func processPaymentHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		var req ord.ProcessPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httpx.Fail(c, apperr.Validation("invalid json: %v", err))
			return
		}
		provider := payment.Provider(req.Provider)
		if provider == "" {
			provider = payment.ProviderMock
		}
		o, err := svc.ProcessPayment(c.Request.Context(), c.Param("id"), provider, actor.UserID)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// GET /payments (admin)
func listPaymentsHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		payments, err := svc.ListPayments(c.Request.Context(), actor)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

// GET /payments/:id
func getPaymentHandler(svc *ord.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorOf(c)
		if !ok {
			return
		}
		p, err := svc.GetPayment(c.Request.Context(), c.Param("id"), actor)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
