package rabbitmq

import "strings"

// RequestIDPlaceholder is replaced by FormatTopic.
const RequestIDPlaceholder = "{request_id}"

// FormatTopic fills the request id into a topic template such as
// "advisor/result/{request_id}". A template without the placeholder gets the
// id appended as a last level.
func FormatTopic(template, requestID string) string {
	if strings.Contains(template, RequestIDPlaceholder) {
		return strings.ReplaceAll(template, RequestIDPlaceholder, requestID)
	}
	return strings.TrimRight(template, "/") + "/" + requestID
}

// LastLevel returns the final level of a topic ("advisor/request/abc" -> "abc").
func LastLevel(topic string) string {
	if i := strings.LastIndexByte(topic, '/'); i >= 0 {
		return topic[i+1:]
	}
	return topic
}
