package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sharebutes/sharebutes/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	statsPushPeriod = 15 * time.Second
)

// StatsSocket streams the platform stats snapshot over a websocket. A fresh
// snapshot is sent on connect and then every statsPushPeriod.
func StatsSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			for _, allowed := range types.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	defer func() {
		conn.Close()
		log.Printf("Stats socket closed for %s", c.ClientIP())
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("Failed to set read deadline in pong handler: %v", err)
		}
		return nil
	})

	sendStats := func() error {
		stats, err := fetchPlatformStats(c.Request.Context())
		if err != nil {
			log.Printf("Failed to fetch stats for socket: %v", err)
			return nil
		}

		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}

		return conn.WriteJSON(gin.H{
			"type":  "stats",
			"stats": stats,
		})
	}

	if err := sendStats(); err != nil {
		log.Printf("Failed to send initial stats: %v", err)
		return
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		statsTicker := time.NewTicker(statsPushPeriod)
		pingTicker := time.NewTicker(pingPeriod)
		defer statsTicker.Stop()
		defer pingTicker.Stop()

		for {
			select {
			case <-statsTicker.C:
				if err := sendStats(); err != nil {
					log.Printf("Failed to push stats: %v", err)
					return
				}
			case <-pingTicker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					log.Printf("Ping failed: %v", err)
					return
				}
			}
		}
	}()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Stats socket error: %v", err)
			}
			break
		}
	}

	conn.Close()
	<-done
}
