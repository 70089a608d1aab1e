package mqtt

// Topic identifies one of the broker topics this client consumes or
// publishes. The set is closed: the TOMMY hub only speaks on the zone
// topics, and handler registration is validated against this set instead
// of accepting free-form strings.
type Topic string

// Topics consumed from the TOMMY hub.
const (
	// TopicZoneConfig carries zone roster snapshots.
	TopicZoneConfig Topic = "/topic/zone-config"

	// TopicZoneState carries zone motion state (and an embedded roster).
	TopicZoneState Topic = "/topic/zone-state"
)

// TopicStatus is where this service publishes its own online/offline status,
// including the Last Will message on unexpected disconnect.
const TopicStatus Topic = "tommy/core/status"

// SubscribedTopics returns the fixed set of hub topics, in subscription
// order. These are (re-)subscribed on every successful connect.
func SubscribedTopics() []Topic {
	return []Topic{TopicZoneConfig, TopicZoneState}
}

// ParseTopic maps a raw broker topic string onto the closed Topic set.
// Returns false for any topic this client does not consume.
func ParseTopic(raw string) (Topic, bool) {
	switch Topic(raw) {
	case TopicZoneConfig:
		return TopicZoneConfig, true
	case TopicZoneState:
		return TopicZoneState, true
	default:
		return "", false
	}
}

// String returns the raw broker topic string.
func (t Topic) String() string {
	return string(t)
}
