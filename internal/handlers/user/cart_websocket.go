package user

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"shopblog_back_end/internal/models"
	"shopblog_back_end/internal/session"
)

const (
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

// NewUpgrader n'accepte que les origines autorisées par CORS (toutes si vide)
func NewUpgrader(allowedOrigins []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 {
				return true
			}
			for _, o := range allowedOrigins {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
}

// CartWebSocket pousse un instantané du panier à chaque changement
func (h *CartHandler) CartWebSocket(upgrader *websocket.Upgrader) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := session.From(c)

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("❌ Erreur upgrade WebSocket: %v", err)
			return
		}
		defer conn.Close()

		updates := make(chan []models.CartItem, 8)
		unsubscribe := s.Cart.Subscribe(func(items []models.CartItem) {
			select {
			case updates <- items:
			default:
				// client trop lent : l'instantané suivant remplacera celui-ci
			}
		})
		defer unsubscribe()

		// un pong prouve que le client est là : la session n'est pas inactive
		conn.SetPongHandler(func(string) error {
			s.Touch()
			return nil
		})

		// Lecture : détecte la fermeture côté client
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		if err := writeCart(conn, "connected", s.Cart.Items()); err != nil {
			return
		}

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case items := <-updates:
				if err := writeCart(conn, "cart_updated", items); err != nil {
					log.Printf("❌ Erreur envoi WebSocket: %v", err)
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-closed:
				return
			case <-s.Done():
				// session libérée : le client doit se reconnecter pour suivre la nouvelle
				_ = writeCart(conn, "session_closed", []models.CartItem{})
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expirée"),
					time.Now().Add(writeWait))
				return
			case <-c.Request.Context().Done():
				return
			}
		}
	}
}

func writeCart(conn *websocket.Conn, kind string, items []models.CartItem) error {
	msg := cartResponse(items)
	msg["type"] = kind
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}
