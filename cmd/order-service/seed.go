package main

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/memstore"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/product"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/seller"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

// seedDemo fills a memory store with one user per role and a small catalog
// so the HTTP surface is usable without a database.
func seedDemo(ms *memstore.Store, log *zap.Logger) {
	now := time.Now().UTC()
	users := map[user.Role]string{}
	for _, role := range []user.Role{user.RoleBuyer, user.RoleSeller, user.RoleAdmin} {
		id := uuid.NewString()
		ms.PutUser(user.User{ID: id, Email: string(role) + "@demo.local", Role: role, IsActive: true, CreatedAt: now})
		users[role] = id
	}

	profile := seller.Profile{ID: uuid.NewString(), UserID: users[user.RoleSeller], CompanyName: "Demo Parts", Verified: true, CreatedAt: now}
	ms.PutSeller(profile)

	var products []string
	for _, p := range []struct {
		name  string
		price string
		stock int
	}{
		{"Brake pad set", "10000", 10},
		{"Oil filter", "5000", 25},
	} {
		id := uuid.NewString()
		ms.PutProduct(product.Product{
			ID: id, SellerID: profile.ID, Name: p.name,
			Price: decimal.RequireFromString(p.price), Stock: p.stock, IsActive: true,
			CreatedAt: now, UpdatedAt: now,
		})
		products = append(products, id)
	}

	log.Info("memory store seeded",
		zap.String("buyer_id", users[user.RoleBuyer]),
		zap.String("seller_id", users[user.RoleSeller]),
		zap.String("admin_id", users[user.RoleAdmin]),
		zap.Strings("product_ids", products))
}
