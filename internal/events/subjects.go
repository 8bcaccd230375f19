// Package events publishes case and alert lifecycle events to NATS.
package events

// Subject constants for the opencase message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// Case lifecycle subjects
	SubjectCasesCreated = "opencase.cases.created" // New case opened
	SubjectCasesUpdated = "opencase.cases.updated" // Case fields or status changed
	SubjectCasesDeleted = "opencase.cases.deleted" // Case and children removed

	// Alert lifecycle subjects
	SubjectAlertsCreated = "opencase.alerts.created" // New alert recorded
	SubjectAlertsUpdated = "opencase.alerts.updated" // Alert status changed or linked to a case
)
