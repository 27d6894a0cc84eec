package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"t4studio/internal/middleware"
	"t4studio/internal/wizard"
)

const (
	streamWriteWait = 10 * time.Second
	// streamHelloWait bounds how long the client may take to send its
	// generate message after the upgrade.
	streamHelloWait = 30 * time.Second
	streamSendQueue = 8
)

type streamHello struct {
	Type   string `json:"type"`
	APIKey string `json:"api_key"`
}

type streamMessage struct {
	Type    string       `json:"type"`
	Result  *resultView  `json:"result,omitempty"`
	Image   []byte       `json:"image,omitempty"`
	Session *sessionView `json:"session,omitempty"`
	Error   *errorBody   `json:"error,omitempty"`
}

func (a *App) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(a.AllowedOrigins) == 0 || slices.Contains(a.AllowedOrigins, "*") {
				return true
			}
			return slices.Contains(a.AllowedOrigins, origin)
		},
	}
}

// WizardStream generates the campaign over a websocket, pushing every
// variant the moment it finishes. The client opens the socket and sends
// {"type":"generate","api_key":"..."}; the server answers with one
// "variant" message per variant and a final "done" or "error".
func (a *App) WizardStream(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader().Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	locale := middleware.LocaleFromContext(r.Context())
	sessionID := middleware.SessionIDFromContext(r.Context())

	_ = conn.SetReadDeadline(time.Now().Add(streamHelloWait))
	var hello streamHello
	if err := conn.ReadJSON(&hello); err != nil {
		a.Logger.Debug().Err(err).Str("session_id", sessionID).Msg("websocket hello not received")
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	send := make(chan streamMessage, streamSendQueue)
	done := make(chan struct{})
	go a.writePump(conn, send, done)

	// Reader only watches for the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					a.Logger.Debug().Err(err).Str("session_id", sessionID).Msg("websocket closed")
				}
				cancel()
				return
			}
		}
	}()

	apiKey := strings.TrimSpace(hello.APIKey)
	if apiKey == "" {
		apiKey = a.apiKey(r)
	}
	if hello.Type != "" && hello.Type != string(wizard.CmdGenerate) {
		send <- a.streamError(locale, errors.New("unsupported message type "+hello.Type), nil)
	} else {
		sess, err := a.Wizard.Generate(ctx, sessionID, apiKey, func(res wizard.VariantResult) {
			rv := resultView{Variant: res.Variant, Label: res.Label, Prompt: res.Prompt, OK: res.OK(), Error: res.Error}
			if rv.OK {
				rv.DownloadURL = "/v1/wizard/results/" + string(res.Variant)
			}
			select {
			case send <- streamMessage{Type: "variant", Result: &rv, Image: res.Image}:
			case <-ctx.Done():
			}
		})
		if err != nil {
			send <- a.streamError(locale, err, sess)
		} else {
			view := newSessionView(sess)
			send <- streamMessage{Type: "done", Session: &view}
		}
	}
	close(send)
	<-done
}

func (a *App) streamError(locale string, err error, sess *wizard.Session) streamMessage {
	_, code := classify(err)
	msg := streamMessage{Type: "error", Error: &errorBody{Code: code, Message: message(locale, code), Detail: err.Error()}}
	if sess != nil {
		view := newSessionView(sess)
		msg.Session = &view
	}
	return msg
}

func (a *App) writePump(conn *websocket.Conn, send <-chan streamMessage, done chan<- struct{}) {
	defer close(done)
	failed := false
	for msg := range send {
		if failed {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			a.Logger.Debug().Err(err).Msg("websocket write failed")
			failed = true
		}
	}
	if !failed {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
