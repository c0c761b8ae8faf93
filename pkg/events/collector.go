package events

// EventCollector is embedded in aggregates to collect events during state
// transitions until the application layer drains them.
type EventCollector struct {
	events []DomainEvent
}

// Record appends an event.
func (c *EventCollector) Record(event DomainEvent) {
	c.events = append(c.events, event)
}

// Events returns the collected events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	return c.events
}

// ClearEvents returns the collected events and resets the collector.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.events
	c.events = nil
	return collected
}
