package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by channel
	clients  map[*Client]bool
	channels map[string]map[*Client]bool // channel -> clients

	// Subscription management
	subscriptions map[string]map[*Client]bool // topic -> clients

	// Inbound messages from clients
	broadcast chan []byte

	// Register/unregister requests
	register   chan *Client
	unregister chan *Client

	// Channel subscription requests
	subscribe   chan *SubscriptionRequest
	unsubscribe chan *SubscriptionRequest

	// Message buffers for interval broadcasts
	rateBuffer  map[string]*RateMessage
	priceBuffer map[string]*PriceMessage
	poolBuffer  *PoolMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Configuration
	config *HubConfig
}

// HubConfig contains hub configuration
type HubConfig struct {
	// Update intervals
	RateInterval  time.Duration // Default: 1s
	PriceInterval time.Duration // Default: 1s

	// Connection limits
	MaxClientsPerIP  int
	MaxSubscriptions int

	// Rate limiting
	MessageRateLimit int // Messages per second per client
}

// DefaultHubConfig returns default hub configuration
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		RateInterval:     time.Second,
		PriceInterval:    time.Second,
		MaxClientsPerIP:  10,
		MaxSubscriptions: 50,
		MessageRateLimit: 100,
	}
}

// SubscriptionRequest represents a subscription request
type SubscriptionRequest struct {
	Client  *Client
	Channel string
	Action  string // "subscribe" or "unsubscribe"
}

// NewHub creates a new Hub
func NewHub(config *HubConfig) *Hub {
	if config == nil {
		config = DefaultHubConfig()
	}

	return &Hub{
		clients:       make(map[*Client]bool),
		channels:      make(map[string]map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
		broadcast:     make(chan []byte, 256),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *SubscriptionRequest, 256),
		unsubscribe:   make(chan *SubscriptionRequest, 256),
		rateBuffer:    make(map[string]*RateMessage),
		priceBuffer:   make(map[string]*PriceMessage),
		config:        config,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	rateTicker := time.NewTicker(h.config.RateInterval)
	priceTicker := time.NewTicker(h.config.PriceInterval)

	defer rateTicker.Stop()
	defer priceTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case req := <-h.subscribe:
			h.handleSubscription(req)

		case req := <-h.unsubscribe:
			h.handleUnsubscription(req)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-rateTicker.C:
			h.broadcastRates()
			h.broadcastPool()

		case <-priceTicker.C:
			h.broadcastPrices()
		}
	}
}

// registerClient adds a new client
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
}

// unregisterClient removes a client
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		// Remove from all channels
		for channel, clients := range h.channels {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.channels, channel)
			}
		}

		// Remove from all subscriptions
		for topic := range h.subscriptions {
			delete(h.subscriptions[topic], client)
		}

		close(client.send)
	}
}

// handleSubscription handles a subscription request
func (h *Hub) handleSubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][client] = true

	// Send subscription confirmation
	confirmation := &WSMessage{
		Type:    "subscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// handleUnsubscription handles an unsubscription request
func (h *Hub) handleUnsubscription(req *SubscriptionRequest) {
	h.mu.Lock()
	defer h.mu.Unlock()

	channel := req.Channel
	client := req.Client

	if clients, ok := h.channels[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.channels, channel)
		}
	}

	// Send unsubscription confirmation
	confirmation := &WSMessage{
		Type:    "unsubscribed",
		Channel: channel,
		Data:    nil,
	}
	data, _ := json.Marshal(confirmation)
	client.send <- data
}

// broadcastMessage sends a message to all clients in a channel
func (h *Hub) broadcastMessage(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			// Client buffer is full, skip
		}
	}
}

// BroadcastToChannel sends a message to all clients subscribed to a channel
func (h *Hub) BroadcastToChannel(channel string, message interface{}) {
	h.mu.RLock()
	clients, ok := h.channels[channel]
	if !ok {
		h.mu.RUnlock()
		return
	}

	// Make a copy of clients to avoid holding lock during send
	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		return
	}

	for _, client := range clientList {
		select {
		case client.send <- data:
		default:
			// Client buffer is full, skip
		}
	}
}

// ============ Channel-specific broadcasts ============

// UpdateRate updates the rate buffer for a market
func (h *Hub) UpdateRate(marketID string, rate *RateMessage) {
	h.mu.Lock()
	h.rateBuffer[marketID] = rate
	h.mu.Unlock()
}

// UpdatePrice updates the price buffer for a market
func (h *Hub) UpdatePrice(marketID string, price *PriceMessage) {
	h.mu.Lock()
	h.priceBuffer[marketID] = price
	h.mu.Unlock()
}

// UpdatePool updates the pool snapshot buffer
func (h *Hub) UpdatePool(pool *PoolMessage) {
	h.mu.Lock()
	h.poolBuffer = pool
	h.mu.Unlock()
}

// broadcastRates broadcasts all buffered rate updates
func (h *Hub) broadcastRates() {
	h.mu.RLock()
	rates := make(map[string]*RateMessage)
	for k, v := range h.rateBuffer {
		rates[k] = v
	}
	h.mu.RUnlock()

	for marketID, rate := range rates {
		channel := "rates:" + marketID
		msg := &WSMessage{
			Type:    "rate",
			Channel: channel,
			Data:    rate,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// broadcastPrices broadcasts all buffered price updates
func (h *Hub) broadcastPrices() {
	h.mu.RLock()
	prices := make(map[string]*PriceMessage)
	for k, v := range h.priceBuffer {
		prices[k] = v
	}
	h.mu.RUnlock()

	for marketID, price := range prices {
		channel := "prices:" + marketID
		msg := &WSMessage{
			Type:    "price",
			Channel: channel,
			Data:    price,
		}
		h.BroadcastToChannel(channel, msg)
	}
}

// broadcastPool broadcasts the pool snapshot
func (h *Hub) broadcastPool() {
	h.mu.RLock()
	pool := h.poolBuffer
	h.mu.RUnlock()

	if pool == nil {
		return
	}

	msg := &WSMessage{
		Type:    "pool",
		Channel: "pool",
		Data:    pool,
	}
	h.BroadcastToChannel("pool", msg)
}

// BroadcastLiquidation broadcasts a liquidation event to subscribers
func (h *Hub) BroadcastLiquidation(marketID string, liq *LiquidationMessage) {
	channel := "liquidations:" + marketID
	msg := &WSMessage{
		Type:    "liquidation",
		Channel: channel,
		Data:    liq,
	}
	h.BroadcastToChannel(channel, msg)
}

// BroadcastPosition broadcasts a position update to a borrower's channel
func (h *Hub) BroadcastPosition(borrower string, position *PositionMessage) {
	channel := "positions:" + borrower
	msg := &WSMessage{
		Type:    "position",
		Channel: channel,
		Data:    position,
	}
	h.BroadcastToChannel(channel, msg)
}

// ============ Message Types ============

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Channel string      `json:"channel"`
	Data    interface{} `json:"data,omitempty"`
}

// RateMessage represents a market rate update
type RateMessage struct {
	MarketID    string `json:"market_id"`
	Utilization string `json:"utilization"`
	SpreadRate  string `json:"spread_rate"`
	BorrowIndex string `json:"borrow_index"`
	Timestamp   int64  `json:"timestamp"`
}

// PriceMessage represents a collateral price update
type PriceMessage struct {
	MarketID  string `json:"market_id"`
	Price     string `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// PoolMessage represents a pool ledger snapshot
type PoolMessage struct {
	TotalSupplied     string `json:"total_supplied"`
	TotalBorrowed     string `json:"total_borrowed"`
	AccumulatedSpread string `json:"accumulated_spread"`
	Utilization       string `json:"utilization"`
	TotalShares       string `json:"total_shares"`
	Timestamp         int64  `json:"timestamp"`
}

// LiquidationMessage represents a liquidation event
type LiquidationMessage struct {
	LiquidationID    string `json:"liquidation_id"`
	MarketID         string `json:"market_id"`
	Borrower         string `json:"borrower"`
	RepayAmount      string `json:"repay_amount"`
	CollateralSeized string `json:"collateral_seized"`
	HealthFactor     string `json:"health_factor"`
	Timestamp        int64  `json:"timestamp"`
}

// PositionMessage represents a borrower position update
type PositionMessage struct {
	Borrower     string `json:"borrower"`
	MarketID     string `json:"market_id"`
	Collateral   string `json:"collateral"`
	BorrowAmount string `json:"borrow_amount"`
	CurrentDebt  string `json:"current_debt"`
	HealthFactor string `json:"health_factor"`
	Timestamp    int64  `json:"timestamp"`
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetChannelCount returns the number of active channels
func (h *Hub) GetChannelCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// GetChannelClientCount returns the number of clients in a channel
func (h *Hub) GetChannelClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.channels[channel]; ok {
		return len(clients)
	}
	return 0
}

// ServeWS handles WebSocket upgrade requests
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		clientID = generateID()
	}

	// Connect-time identity is optional; invalid addresses stay anonymous
	// and can retry via the auth action.
	account := ""
	if raw := r.URL.Query().Get("account"); raw != "" {
		if addr, err := sdk.AccAddressFromBech32(raw); err == nil {
			account = addr.String()
		}
	}
	ip := getClientIPFromRequest(r)

	client := NewClient(h, conn, clientID, account, ip)

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Helper function to get client IP
func getClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}

// Generate a simple ID
func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
