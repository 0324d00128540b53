package order

import (
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

var transitions = map[Status]map[Status]bool{
	StatusPending:   {StatusPaid: true, StatusCanceled: true},
	StatusPaid:      {StatusShipped: true, StatusCanceled: true},
	StatusShipped:   {StatusCompleted: true},
	StatusCompleted: {},
	StatusCanceled:  {},
}

func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

func (s Status) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// rolePolicy runs after the structural check. related is true when the actor
// owns the order (buyer) or sells a product in it (seller).
type rolePolicy func(from, to Status, related bool) error

var policies = map[user.Role]rolePolicy{
	user.RoleBuyer:  buyerPolicy,
	user.RoleSeller: sellerPolicy,
	user.RoleAdmin:  adminPolicy,
}

// Decide reports whether role may move an order from one status to another.
// A transition outside the table is an apperr.ErrBusinessRule for every role;
// a role or ownership denial is an apperr.ErrForbidden.
func Decide(from, to Status, role user.Role, related bool) error {
	if !CanTransition(from, to) {
		return apperr.BusinessRule("Invalid status transition from %s to %s", from, to)
	}
	policy, ok := policies[role]
	if !ok {
		return apperr.Forbidden("role %q may not change order status", role)
	}
	return policy(from, to, related)
}

func sellerPolicy(_, to Status, related bool) error {
	if !related {
		return apperr.Forbidden("You can only update orders containing your products")
	}
	if to != StatusShipped {
		return apperr.Forbidden("Sellers can only mark orders as shipped")
	}
	return nil
}

func buyerPolicy(from, to Status, related bool) error {
	if !related {
		return apperr.Forbidden("You can only update your own orders")
	}
	if to != StatusCompleted && to != StatusCanceled {
		return apperr.Forbidden("Buyers can only complete or cancel orders")
	}
	if to == StatusCompleted && from != StatusShipped {
		return apperr.BusinessRule("Order must be shipped before it can be completed")
	}
	return nil
}

// Admins are bound by the transition table only.
func adminPolicy(Status, Status, bool) error { return nil }
