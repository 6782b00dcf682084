package rediskey

import "fmt"

// Billing keys (global convention across services)
const (
	BillingEventPrefix = "billing:event"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildBillingEventKey returns "billing:event:{eventID}"
func BuildBillingEventKey(eventID string) string {
	return NamespaceKey(BillingEventPrefix, eventID)
}
