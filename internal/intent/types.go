package intent

import (
	"github.com/eleven-am/sight-backend/internal/shared"
)

// Kind is a classified voice command. The set is closed: every utterance
// maps to exactly one Kind and the session dispatches on it.
type Kind string

const (
	KindScene        Kind = "scene"
	KindObject       Kind = "object"
	KindText         Kind = "text"
	KindFace         Kind = "face"
	KindNavigation   Kind = "navigation"
	KindEmergency    Kind = "emergency"
	KindDocument     Kind = "document"
	KindVideo        Kind = "video"
	KindExit         Kind = "exit"
	KindFollowUp     Kind = "follow_up"
	KindUnrecognized Kind = "unrecognized"
)

func (k Kind) String() string { return string(k) }

// Topic is the context bucket results of this intent land in. Intents
// that never produce carryable context map to TopicNone.
func (k Kind) Topic() shared.Topic {
	switch k {
	case KindScene, KindObject, KindFace:
		return shared.TopicObject
	case KindText, KindDocument:
		return shared.TopicDocument
	case KindNavigation:
		return shared.TopicNavigation
	case KindVideo:
		return shared.TopicVideo
	default:
		return shared.TopicNone
	}
}

// Intent is the routing result for one utterance. For follow-ups, Topic
// names the context entry the utterance was bound to.
type Intent struct {
	Kind      Kind
	Topic     shared.Topic
	Utterance string
}

// ContextView is the router's read-only view of a session's live
// context, supplied by the caller at routing time.
type ContextView struct {
	MostRecent shared.Topic
	Live       map[shared.Topic]bool
}

func (v ContextView) hasAny() bool {
	return v.MostRecent != shared.TopicNone
}

func (v ContextView) isLive(topic shared.Topic) bool {
	return v.Live[topic]
}
