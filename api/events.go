package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/the-lightning-land/pourd/dispenser"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

func (a *Api) handleGetStatusEvents() http.HandlerFunc {
	upgrader := &websocket.Upgrader{}

	return func(w http.ResponseWriter, r *http.Request) {
		// Subscribe before taking the snapshot so nothing happening in
		// between or during the handshake is missed.
		client := a.dispenser.SubscribeStatus()
		defer client.Cancel()

		status, err := a.dispenser.Status()
		if err != nil {
			a.dispenserError(w, err)
			return
		}

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Errorf("Could not upgrade status connection: %v", err)
			return
		}

		defer c.Close()

		closed := make(chan struct{})

		// read pump
		go func() {
			defer close(closed)

			c.SetReadLimit(512)
			c.SetReadDeadline(time.Now().Add(pongWait))
			c.SetPongHandler(func(string) error {
				c.SetReadDeadline(time.Now().Add(pongWait))
				return nil
			})

			for {
				_, _, err := c.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						a.log.Errorf("unexpected websocket closure: %v", err)
					}
					break
				}
			}
		}()

		// write pump
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		c.SetWriteDeadline(time.Now().Add(writeWait))
		err = c.WriteJSON(&dispenser.Event{Type: dispenser.EventStatusChanged, Status: status})
		if err != nil {
			return
		}

		for {
			select {
			case e := <-client.Events:
				c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteJSON(&e); err != nil {
					return
				}
			case <-ticker.C:
				c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-a.dispenser.Stopped():
				c.SetWriteDeadline(time.Now().Add(writeWait))
				c.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "dispenser stopped"))
				return
			case <-closed:
				return
			}
		}
	}
}
