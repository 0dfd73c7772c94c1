package events

const (
	TopicOrderEvents     = "order-events"
	TopicInventoryEvents = "inventory-events"
	TopicPaymentEvents   = "payment-events"
)

const (
	GroupOrderService   = "order-service-group"
	GroupProductService = "product-service-group"
	GroupPaymentService = "payment-service-group"
)

// PartitionKey keys OrderCreated by order number. Inventory and payment
// events are published unkeyed, so two events for the same order may land on
// different partitions; consumers must tolerate reordering and duplicates.
func PartitionKey(orderNumber string) []byte { return []byte(orderNumber) }
