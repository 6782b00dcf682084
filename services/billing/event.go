package billing

import (
	"encoding/json"
	"fmt"
)

// EventKind is the closed set of billing lifecycle transitions the service
// models. Anything else parses as EventUnrecognized, which is accepted and
// ignored rather than rejected, so new provider event types never bounce
// deliveries.
type EventKind string

const (
	EventCheckoutCompleted    EventKind = "checkout.session.completed"
	EventInvoicePaid          EventKind = "invoice.paid"
	EventSubscriptionCanceled EventKind = "customer.subscription.deleted"
	EventUnrecognized         EventKind = "unrecognized"
)

// Event is the tagged-variant decoding of a verified provider payload.
// Exactly one of the variant pointers matching Kind is set.
type Event struct {
	ID   string
	Kind EventKind

	CheckoutCompleted    *CheckoutCompleted
	InvoicePaid          *InvoicePaid
	SubscriptionCanceled *SubscriptionCanceled
}

// CheckoutCompleted carries the buyer identity straight from the checkout
// session; no customer lookup is needed on this path.
type CheckoutCompleted struct {
	Email          string
	CustomerID     string
	SubscriptionID string
}

// InvoicePaid is keyed by customer only; the identity is resolved through
// the provider API.
type InvoicePaid struct {
	CustomerID     string
	SubscriptionID string
}

type SubscriptionCanceled struct {
	CustomerID string
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	Customer        string `json:"customer"`
	CustomerEmail   string `json:"customer_email"`
	Subscription    string `json:"subscription"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type invoiceObject struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type subscriptionObject struct {
	Customer string `json:"customer"`
}

// ParseEvent decodes a provider payload into the closed variant set. A
// decoding failure is an event-shape error: the delivery is acknowledged
// upstream but the event is dropped.
func ParseEvent(payload []byte) (*Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}

	event := &Event{ID: envelope.ID}

	switch EventKind(envelope.Type) {
	case EventCheckoutCompleted:
		var object checkoutSessionObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		email := object.CustomerDetails.Email
		if email == "" {
			email = object.CustomerEmail
		}
		event.Kind = EventCheckoutCompleted
		event.CheckoutCompleted = &CheckoutCompleted{
			Email:          email,
			CustomerID:     object.Customer,
			SubscriptionID: object.Subscription,
		}

	case EventInvoicePaid:
		var object invoiceObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		event.Kind = EventInvoicePaid
		event.InvoicePaid = &InvoicePaid{
			CustomerID:     object.Customer,
			SubscriptionID: object.Subscription,
		}

	case EventSubscriptionCanceled:
		var object subscriptionObject
		if err := json.Unmarshal(envelope.Data.Object, &object); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		event.Kind = EventSubscriptionCanceled
		event.SubscriptionCanceled = &SubscriptionCanceled{
			CustomerID: object.Customer,
		}

	default:
		event.Kind = EventUnrecognized
	}

	return event, nil
}
