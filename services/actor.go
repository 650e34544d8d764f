package services

import (
	"github.com/washwala/laundry-api/models"
)

// ActorKind tags which kind of authenticated caller an Actor is
type ActorKind int

const (
	ActorNone ActorKind = iota
	ActorCustomer
	ActorLaundry
	ActorAdmin
)

func (k ActorKind) String() string {
	switch k {
	case ActorCustomer:
		return models.RoleCustomer
	case ActorLaundry:
		return models.RoleLaundry
	case ActorAdmin:
		return models.RoleAdmin
	default:
		return "NONE"
	}
}

// Actor is the authenticated caller of a service operation.
// The zero value is an anonymous caller with no capabilities.
type Actor struct {
	Kind      ActorKind
	UserID    uint
	LaundryID uint // set for ActorLaundry only
}

func Customer(userID uint) Actor {
	return Actor{Kind: ActorCustomer, UserID: userID}
}

func LaundryOwner(userID, laundryID uint) Actor {
	return Actor{Kind: ActorLaundry, UserID: userID, LaundryID: laundryID}
}

func Admin(userID uint) Actor {
	return Actor{Kind: ActorAdmin, UserID: userID}
}

func (a Actor) IsCustomer() bool { return a.Kind == ActorCustomer && a.UserID != 0 }
func (a Actor) IsLaundry() bool  { return a.Kind == ActorLaundry && a.LaundryID != 0 }
func (a Actor) IsAdmin() bool    { return a.Kind == ActorAdmin }

// CanPlaceOrder reports whether the actor may create orders for itself
func (a Actor) CanPlaceOrder() bool {
	return a.IsCustomer()
}

// CanViewOrder reports whether the order is visible to the actor
func (a Actor) CanViewOrder(o *models.Order) bool {
	switch {
	case a.IsAdmin():
		return true
	case a.IsCustomer():
		return o.CustomerID == a.UserID
	case a.IsLaundry():
		return o.LaundryID == a.LaundryID
	}
	return false
}

// CanAdvanceOrder reports whether the actor drives the order's status
func (a Actor) CanAdvanceOrder(o *models.Order) bool {
	return a.IsLaundry() && o.LaundryID == a.LaundryID
}

// CanCancelOrder reports whether the actor is a party to the order
func (a Actor) CanCancelOrder(o *models.Order) bool {
	return (a.IsCustomer() && o.CustomerID == a.UserID) || a.CanAdvanceOrder(o)
}

// CanReviewOrder reports whether the actor placed the order
func (a Actor) CanReviewOrder(o *models.Order) bool {
	return a.IsCustomer() && o.CustomerID == a.UserID
}

// CanManageLaundry reports whether the actor may change a laundry's catalog or stats
func (a Actor) CanManageLaundry(laundryID uint) bool {
	return a.IsAdmin() || (a.IsLaundry() && a.LaundryID == laundryID)
}

// CanManagePromos reports whether the actor may administer promo codes
func (a Actor) CanManagePromos() bool {
	return a.IsAdmin()
}
