package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	A ServiceTransport backed by a JSON-over-websocket cloud
 *		link, grounded on original_source/thirdparty/nopoll (the C
 *		port's websocket client library) and built here on
 *		github.com/gorilla/websocket, the pack's equivalent. The wire
 *		protocol itself (message schema, auth handshake) is a
 *		Non-goal (§1 "no server implementation"); this is the seam
 *		a concrete deployment fills in, reusing the envelope format
 *		below as the starting point.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// wireEnvelope is the JSON frame this reference transport speaks:
// {"type": "command"|"status"|"tts", ...}. A real deployment's wire
// format is free to differ entirely; only the ServiceTransport interface
// is load-bearing.
type wireEnvelope struct {
	Type string `json:"type"`

	Domain       Domain      `json:"domain,omitempty"`
	Kind         CommandKind `json:"kind,omitempty"`
	URL          string      `json:"url,omitempty"`
	ExpectSpeech bool        `json:"expect_speech,omitempty"`
	Volume       int         `json:"volume,omitempty"`
	Muted        bool        `json:"muted,omitempty"`
	Text         string      `json:"text,omitempty"`

	StatusKind StatusKind `json:"status_kind,omitempty"`
	Wakeword   string     `json:"wakeword,omitempty"`
	DOA        int        `json:"doa,omitempty"`
	Confidence int        `json:"confidence,omitempty"`

	TTSData  []byte `json:"tts_data,omitempty"`
	TTSFinal bool   `json:"tts_final,omitempty"`
}

// WebsocketTransport dials a single websocket connection and decodes
// wireEnvelope frames off it, one reader goroutine per connection,
// matching the teacher's one-goroutine-per-I/O-channel shape.
type WebsocketTransport struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	active bool
	cb     ServiceCallback

	onCmd    func(Command)
	onStatus func(Status)
	onTTS    func([]byte, bool)
}

// NewWebsocketTransport builds a transport that will dial url on Start.
// cb receives every event the core publishes outward.
func NewWebsocketTransport(url string, cb ServiceCallback) *WebsocketTransport {
	return &WebsocketTransport{url: url, cb: cb}
}

func (t *WebsocketTransport) Start(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.url, nil)
	if err != nil {
		return newCoreError(ErrNetworkDown, "WebsocketTransport.Start", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.active = true
	t.mu.Unlock()

	go t.readLoop(conn)
	return nil
}

func (t *WebsocketTransport) Stop() error {
	t.mu.Lock()
	conn := t.conn
	t.active = false
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *WebsocketTransport) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *WebsocketTransport) Callback() ServiceCallback { return t.cb }

func (t *WebsocketTransport) RegisterCommandListener(f func(Command)) {
	t.mu.Lock()
	t.onCmd = f
	t.mu.Unlock()
}

func (t *WebsocketTransport) RegisterStatusListener(f func(Status)) {
	t.mu.Lock()
	t.onStatus = f
	t.mu.Unlock()
}

func (t *WebsocketTransport) RegisterTTSListener(f func([]byte, bool)) {
	t.mu.Lock()
	t.onTTS = f
	t.mu.Unlock()
}

func (t *WebsocketTransport) readLoop(conn *websocket.Conn) {
	for {
		var env wireEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			log.Error("websocket transport read failed", "err", err)
			t.mu.Lock()
			t.active = false
			t.mu.Unlock()
			return
		}
		t.dispatch(env)
	}
}

func (t *WebsocketTransport) dispatch(env wireEnvelope) {
	t.mu.Lock()
	onCmd, onStatus, onTTS := t.onCmd, t.onStatus, t.onTTS
	t.mu.Unlock()

	switch env.Type {
	case "command":
		if onCmd != nil {
			onCmd(Command{
				Domain:       env.Domain,
				Kind:         env.Kind,
				URL:          env.URL,
				ExpectSpeech: env.ExpectSpeech,
				Volume:       env.Volume,
				Muted:        env.Muted,
				Text:         env.Text,
			})
		}
	case "status":
		if onStatus != nil {
			onStatus(Status{
				Kind:       env.StatusKind,
				Wakeword:   env.Wakeword,
				DOA:        env.DOA,
				Confidence: env.Confidence,
			})
		}
	case "tts":
		if onTTS != nil {
			onTTS(env.TTSData, env.TTSFinal)
		}
	default:
		log.Warn("websocket transport: unknown envelope type", "type", env.Type)
	}
}
