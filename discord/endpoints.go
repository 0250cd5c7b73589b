package discord

import "net/http"

// endpoints.go contains the endpoints used by the rest wrappers.

func EndpointGuildScheduledEvents(guildID string) string {
	return "/guilds/" + guildID + "/scheduled-events"
}

func EndpointGuildScheduledEvent(guildID, eventID string) string {
	return "/guilds/" + guildID + "/scheduled-events/" + eventID
}

func EndpointGuildScheduledEventUsers(guildID, eventID string) string {
	return "/guilds/" + guildID + "/scheduled-events/" + eventID + "/users"
}

func EndpointScheduledEventCover(eventID, hash string) string {
	return EndpointCDN + "/guild-events/" + eventID + "/" + hash + ".png"
}

// auditReasonHeaders returns headers carrying an optional audit log
// reason.
func auditReasonHeaders(reason *string) http.Header {
	if reason == nil {
		return nil
	}

	headers := make(http.Header)
	headers.Set(AuditLogReasonHeader, *reason)

	return headers
}
