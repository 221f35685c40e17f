package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func readMessage(t *testing.T, ws *websocket.Conn) *SpeechMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg SpeechMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message %q: %v", data, err)
	}
	return &msg
}

func TestSpeechSocket_UtteranceRoundTrip(t *testing.T) {
	f := newGatewayFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/speech"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()

	hello := readMessage(t, ws)
	if hello.Type != MessageTypeSession || hello.SessionID == "" {
		t.Fatalf("first message %+v", hello)
	}
	if f.sessions.Count() != 1 {
		t.Fatalf("manager holds %d sessions", f.sessions.Count())
	}

	out, _ := json.Marshal(SpeechMessage{Type: MessageTypeUtterance, Text: "describe the scene"})
	if err := ws.WriteMessage(websocket.TextMessage, out); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	reply := readMessage(t, ws)
	if reply.Type != MessageTypeSpeak {
		t.Fatalf("reply type %s", reply.Type)
	}
	if reply.Text != "a hallway with a coat rack" {
		t.Errorf("reply text %q", reply.Text)
	}
	if reply.Intent != "scene" {
		t.Errorf("reply intent %q", reply.Intent)
	}
}

func TestSpeechSocket_EmptyUtteranceRejected(t *testing.T) {
	f := newGatewayFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/speech"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer ws.Close()

	readMessage(t, ws)

	out, _ := json.Marshal(SpeechMessage{Type: MessageTypeUtterance})
	ws.WriteMessage(websocket.TextMessage, out)

	reply := readMessage(t, ws)
	if reply.Type != MessageTypeError || reply.Code != "empty_utterance" {
		t.Errorf("reply %+v", reply)
	}
}

func TestSpeechSocket_DisconnectEndsSession(t *testing.T) {
	f := newGatewayFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/speech"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	readMessage(t, ws)
	ws.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f.sessions.Count() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("session survived disconnect")
}
