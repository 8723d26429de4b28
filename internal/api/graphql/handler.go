package graphqlapi

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/graphql-go/graphql"

	"github.com/pdash/dashboard-gateway/internal/gateway"
	"github.com/pdash/dashboard-gateway/internal/pubsub"
	"github.com/pdash/dashboard-gateway/internal/subscription"
)

// Handler serves GraphQL queries over POST and subscriptions over a
// websocket speaking the graphql-transport-ws message set.
type Handler struct {
	schema graphql.Schema
}

func NewHandler(svc *gateway.Service, poller *subscription.Poller, bus *pubsub.Bus) (*Handler, error) {
	schema, err := NewSchema(svc, poller, bus)
	if err != nil {
		return nil, err
	}
	return &Handler{schema: schema}, nil
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Query handles POST /graphql.
func (h *Handler) Query(c *fiber.Ctx) error {
	var req graphqlRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid GraphQL request body")
	}
	if req.Query == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query is required")
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        c.UserContext(),
	})
	return c.JSON(result)
}

// wsMessage is the graphql-transport-ws frame shape.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Subscriptions returns the websocket handler for /graphql/ws. It supports
// connection_init/connection_ack, subscribe, next, complete; per-operation
// contexts are canceled on complete and when the connection closes.
func (h *Handler) Subscriptions() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		var (
			writeMu sync.Mutex
			opsMu   sync.Mutex
			ops     = make(map[string]context.CancelFunc)
		)

		write := func(msg wsMessage) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("graphql ws: write failed: %v", err)
			}
		}

		cancelAll := func() {
			opsMu.Lock()
			defer opsMu.Unlock()
			for id, cancel := range ops {
				cancel()
				delete(ops, id)
			}
		}
		defer cancelAll()

		for {
			var msg wsMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			switch msg.Type {
			case "connection_init":
				write(wsMessage{Type: "connection_ack"})

			case "subscribe":
				var req graphqlRequest
				if err := json.Unmarshal(msg.Payload, &req); err != nil {
					write(wsMessage{ID: msg.ID, Type: "error", Payload: jsonError("invalid subscribe payload")})
					continue
				}

				ctx, cancel := context.WithCancel(context.Background())
				opsMu.Lock()
				if prior, ok := ops[msg.ID]; ok {
					prior()
				}
				ops[msg.ID] = cancel
				opsMu.Unlock()

				results := graphql.Subscribe(graphql.Params{
					Schema:         h.schema,
					RequestString:  req.Query,
					OperationName:  req.OperationName,
					VariableValues: req.Variables,
					Context:        ctx,
				})

				go func(id string) {
					for result := range results {
						payload, err := json.Marshal(result)
						if err != nil {
							log.Printf("graphql ws: marshal failed: %v", err)
							continue
						}
						write(wsMessage{ID: id, Type: "next", Payload: payload})
					}
					write(wsMessage{ID: id, Type: "complete"})
				}(msg.ID)

			case "complete":
				opsMu.Lock()
				if cancel, ok := ops[msg.ID]; ok {
					cancel()
					delete(ops, msg.ID)
				}
				opsMu.Unlock()

			case "ping":
				write(wsMessage{Type: "pong"})
			}
		}
	})
}

// Upgrade gates the websocket route, rejecting plain HTTP requests.
func Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func jsonError(message string) json.RawMessage {
	payload, _ := json.Marshal([]map[string]string{{"message": message}})
	return payload
}
