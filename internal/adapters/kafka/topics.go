package kafka

// Topic names for chat telemetry events
const (
	// TopicChatSessions receives one event per completed (or failed) chat session
	TopicChatSessions = "chat.sessions"
)
