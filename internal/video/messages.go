package video

// TopicFrames carries sampled camera frames from the sampler to the
// describe consumer.
const TopicFrames = "video.frames"

// FrameMessage is the pub/sub payload for one sampled frame.
type FrameMessage struct {
	SessionID  string `json:"session_id"`
	CapturedAt int64  `json:"captured_at"`
	Frame      []byte `json:"frame"`
}
