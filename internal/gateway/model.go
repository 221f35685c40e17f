package gateway

type MessageType string

const (
	// client to server
	MessageTypeUtterance MessageType = "utterance"
	MessageTypeFrame     MessageType = "frame"

	// server to client
	MessageTypeSession MessageType = "session"
	MessageTypeSpeak   MessageType = "speak"
	MessageTypeError   MessageType = "error"
)

// SpeechMessage is the single envelope on the speech socket. Text
// carries utterances and replies; Frame carries JPEG stills, base64
// encoded by the JSON layer.
type SpeechMessage struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Text      string      `json:"text,omitempty"`
	Intent    string      `json:"intent,omitempty"`
	Topic     string      `json:"topic,omitempty"`
	Frame     []byte      `json:"frame,omitempty"`
	Timestamp int64       `json:"timestamp,omitempty"`
	Code      string      `json:"code,omitempty"`
}
