package enums

// OutboxEventType names the domain events emitted by checkout.
type OutboxEventType string

const (
	EventOrderPlaced  OutboxEventType = "order.placed"
	EventOrderPaid    OutboxEventType = "order.paid"
	EventOrderExpired OutboxEventType = "order.expired"
)

// OutboxAggregateType names the aggregate an event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)
