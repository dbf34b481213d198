package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn frames one call session over a websocket connection. Reads are decoded
// into Inbound events; writes are serialized through a single mutex so any
// session goroutine may send.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Inbound starts the read loop and returns its event channel. The channel is
// closed when the connection drops or the peer closes it.
func (c *Conn) Inbound(bufferSize int) <-chan Inbound {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	ch := make(chan Inbound, bufferSize)
	go c.readLoop(ch)
	return ch
}

func (c *Conn) readLoop(ch chan<- Inbound) {
	defer close(ch)

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Transport: read error: %v", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			ch <- Inbound{Kind: InboundAudio, Audio: data}
		case websocket.TextMessage:
			if in, ok := c.decodeText(data); ok {
				ch <- in
			}
		}
	}
}

// decodeText parses a JSON envelope. Malformed messages are reported back to
// the client and dropped; unknown types are ignored so newer clients keep
// working against older daemons.
func (c *Conn) decodeText(data []byte) (Inbound, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Printf("Transport: malformed message: %v", err)
		c.sendError("malformed message: invalid JSON")
		return Inbound{}, false
	}

	switch env.Type {
	case TypeAudioChunk:
		var p AudioChunkPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.Printf("Transport: malformed audio-chunk payload: %v", err)
			c.sendError("malformed audio-chunk payload")
			return Inbound{}, false
		}
		audio, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			log.Printf("Transport: invalid audio-chunk base64: %v", err)
			c.sendError("malformed audio-chunk payload: invalid base64")
			return Inbound{}, false
		}
		return Inbound{Kind: InboundAudio, Audio: audio}, true

	case TypeEndOfSession:
		return Inbound{Kind: InboundEnd}, true

	default:
		log.Printf("Transport: ignoring unknown message type %q", env.Type)
		return Inbound{}, false
	}
}

func (c *Conn) SendTranscriptDelta(text string) error {
	return c.send(TypeTranscriptDelta, TranscriptDeltaPayload{Text: text, IsPartial: true})
}

func (c *Conn) SendTranscriptFinal(text string) error {
	return c.send(TypeTranscriptFinal, TranscriptFinalPayload{Text: text})
}

func (c *Conn) SendRecommendation(p RecommendationPayload) error {
	return c.send(TypeRecommendationUpdate, p)
}

func (c *Conn) SendError(message string) error {
	return c.send(TypeError, ErrorPayload{Message: message})
}

// sendError is the read-path variant: failures only get logged because the
// connection is usually already gone.
func (c *Conn) sendError(message string) {
	if err := c.SendError(message); err != nil {
		log.Printf("Transport: failed to send error message: %v", err)
	}
}

func (c *Conn) send(msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(Envelope{Type: msgType, Payload: raw})
}

func (c *Conn) Close() error {
	c.mu.Lock()
	deadline := time.Now().Add(time.Second)
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.mu.Unlock()

	return c.ws.Close()
}
