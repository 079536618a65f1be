package pubsub

import "attrschema/internal/domain/service"

// Subscription name the local publisher stamps on simulated push messages.
const localSubscription = "projects/local/subscriptions/schema-events"

// eventAttributes builds the message attributes subscribers filter on.
func eventAttributes(event *service.SchemaEvent) map[string]string {
	attributes := map[string]string{
		"event_type": event.Type,
		"event_id":   event.EventID,
	}
	if event.DefinitionID != "" {
		attributes["definition_id"] = event.DefinitionID
	}
	if event.DefinitionName != "" {
		attributes["definition_name"] = event.DefinitionName
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return attributes
}
