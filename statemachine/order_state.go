package statemachine

import (
	"fmt"
	"strings"

	"github.com/washwala/laundry-api/models"
)

// Transition defines a valid state change
type Transition struct {
	From models.OrderStatus `json:"from"`
	To   models.OrderStatus `json:"to"`
}

// validTransitions is the authoritative state machine definition.
// DELIVERED -> COMPLETED is only taken through review submission.
var validTransitions = []Transition{
	{From: models.StatusPending, To: models.StatusAccepted},
	{From: models.StatusPending, To: models.StatusRejected},
	{From: models.StatusPending, To: models.StatusCancelled},
	{From: models.StatusAccepted, To: models.StatusPickupScheduled},
	{From: models.StatusAccepted, To: models.StatusCancelled},
	{From: models.StatusPickupScheduled, To: models.StatusPickedUp},
	{From: models.StatusPickupScheduled, To: models.StatusCancelled},
	{From: models.StatusPickedUp, To: models.StatusProcessing},
	{From: models.StatusPickedUp, To: models.StatusCancelled},
	{From: models.StatusProcessing, To: models.StatusReady},
	{From: models.StatusReady, To: models.StatusOutForDelivery},
	{From: models.StatusOutForDelivery, To: models.StatusDelivered},
	{From: models.StatusDelivered, To: models.StatusCompleted},
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

var cancellable = map[models.OrderStatus]bool{
	models.StatusPending:         true,
	models.StatusAccepted:        true,
	models.StatusPickupScheduled: true,
	models.StatusPickedUp:        true,
}

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	for _, t := range validTransitions {
		if t.From == status {
			nexts = append(nexts, t.To)
		}
	}
	return nexts
}

// CanTransition reports whether from -> to is in the table
func CanTransition(from, to models.OrderStatus) bool {
	return transitionMap[Transition{From: from, To: to}]
}

// IsTerminal reports whether no transition leaves status
func IsTerminal(status models.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// IsCancellable reports whether an order in status may still be cancelled
func IsCancellable(status models.OrderStatus) bool {
	return cancellable[status]
}

// IsKnown reports whether status is part of the lifecycle
func IsKnown(status models.OrderStatus) bool {
	_, ok := statusInfo[status]
	return ok
}

// DescribeValidFrom renders the allowed next states for error messages
func DescribeValidFrom(status models.OrderStatus) string {
	if IsTerminal(status) {
		return "none (terminal state)"
	}
	nexts := ValidTransitionsFrom(status)
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

// GetAllTransitions returns the full state machine, served to clients as-is
func GetAllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}

// Info is the timeline presentation and timestamp column for a status
type Info struct {
	Event       string
	Title       string
	Icon        string
	Description string
	Column      string
}

var statusInfo = map[models.OrderStatus]Info{
	models.StatusPending: {
		Event: "ORDER_PLACED", Title: "Order Placed", Icon: "receipt",
		Description: "Your order has been placed and is waiting for the laundry to accept it.",
	},
	models.StatusAccepted: {
		Event: "ORDER_ACCEPTED", Title: "Order Accepted", Icon: "check-circle",
		Description: "The laundry has accepted your order.", Column: "accepted_at",
	},
	models.StatusPickupScheduled: {
		Event: "PICKUP_SCHEDULED", Title: "Pickup Scheduled", Icon: "calendar",
		Description: "A pickup has been scheduled for your clothes.", Column: "pickup_scheduled_at",
	},
	models.StatusPickedUp: {
		Event: "PICKED_UP", Title: "Picked Up", Icon: "truck",
		Description: "Your clothes have been picked up.", Column: "picked_up_at",
	},
	models.StatusProcessing: {
		Event: "PROCESSING", Title: "Processing", Icon: "washing-machine",
		Description: "Your clothes are being cleaned.", Column: "processing_at",
	},
	models.StatusReady: {
		Event: "READY", Title: "Ready", Icon: "package",
		Description: "Your order is ready for delivery.", Column: "ready_at",
	},
	models.StatusOutForDelivery: {
		Event: "OUT_FOR_DELIVERY", Title: "Out for Delivery", Icon: "bike",
		Description: "Your order is on its way.", Column: "out_for_delivery_at",
	},
	models.StatusDelivered: {
		Event: "DELIVERED", Title: "Delivered", Icon: "home",
		Description: "Your order has been delivered.", Column: "delivered_at",
	},
	models.StatusCompleted: {
		Event: "COMPLETED", Title: "Completed", Icon: "star",
		Description: "Thanks for reviewing your order.", Column: "completed_at",
	},
	models.StatusCancelled: {
		Event: "ORDER_CANCELLED", Title: "Order Cancelled", Icon: "x-circle",
		Description: "The order has been cancelled.", Column: "cancelled_at",
	},
	models.StatusRejected: {
		Event: "ORDER_REJECTED", Title: "Order Rejected", Icon: "slash",
		Description: "The laundry could not take this order.", Column: "rejected_at",
	},
}

// InfoFor returns the presentation metadata for status
func InfoFor(status models.OrderStatus) (Info, error) {
	info, ok := statusInfo[status]
	if !ok {
		return Info{}, fmt.Errorf("unknown order status %q", status)
	}
	return info, nil
}
