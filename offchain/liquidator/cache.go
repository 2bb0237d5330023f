package liquidator

import (
	"sync"

	apitypes "github.com/openalpha/creditpool/api/types"
)

// PositionCache is a thread-safe cache of the latest observed positions
type PositionCache struct {
	positions map[string]*apitypes.Position
	mu        sync.RWMutex
}

// NewPositionCache creates a new position cache
func NewPositionCache() *PositionCache {
	return &PositionCache{
		positions: make(map[string]*apitypes.Position),
	}
}

func positionKey(marketID, borrower string) string {
	return marketID + "|" + borrower
}

// Get retrieves a position from the cache
func (c *PositionCache) Get(marketID, borrower string) (*apitypes.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	position, exists := c.positions[positionKey(marketID, borrower)]
	return position, exists
}

// Set stores a position in the cache
func (c *PositionCache) Set(position *apitypes.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions[positionKey(position.MarketID, position.Borrower)] = position
}

// Delete removes a position from the cache
func (c *PositionCache) Delete(marketID, borrower string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.positions, positionKey(marketID, borrower))
}

// Len returns the number of cached positions
func (c *PositionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.positions)
}

// Clear removes all positions from the cache
func (c *PositionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positions = make(map[string]*apitypes.Position)
}

// GetAll returns all cached positions
func (c *PositionCache) GetAll() []*apitypes.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	positions := make([]*apitypes.Position, 0, len(c.positions))
	for _, position := range c.positions {
		positions = append(positions, position)
	}
	return positions
}

// GetByMarket returns all cached positions for a specific market
func (c *PositionCache) GetByMarket(marketID string) []*apitypes.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	positions := make([]*apitypes.Position, 0)
	for _, position := range c.positions {
		if position.MarketID == marketID {
			positions = append(positions, position)
		}
	}
	return positions
}

// CandidateBuffer is a thread-safe buffer for liquidation candidates
// pending submission
type CandidateBuffer struct {
	candidates []*Candidate
	maxSize    int
	mu         sync.Mutex
}

// NewCandidateBuffer creates a new candidate buffer with the given max size
func NewCandidateBuffer(maxSize int) *CandidateBuffer {
	if maxSize <= 0 {
		maxSize = 50
	}
	return &CandidateBuffer{
		candidates: make([]*Candidate, 0, maxSize),
		maxSize:    maxSize,
	}
}

// Add adds a candidate to the buffer
func (b *CandidateBuffer) Add(candidate *Candidate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.candidates = append(b.candidates, candidate)
}

// Flush returns all candidates and clears the buffer
func (b *CandidateBuffer) Flush() []*Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()
	candidates := b.candidates
	b.candidates = make([]*Candidate, 0, b.maxSize)
	return candidates
}

// FlushBatch returns up to maxSize candidates and removes them from the buffer
func (b *CandidateBuffer) FlushBatch() []*Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.candidates) == 0 {
		return nil
	}

	count := b.maxSize
	if len(b.candidates) < count {
		count = len(b.candidates)
	}

	batch := b.candidates[:count]
	b.candidates = b.candidates[count:]
	return batch
}

// Len returns the number of candidates in the buffer
func (b *CandidateBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.candidates)
}

// Clear removes all candidates from the buffer
func (b *CandidateBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.candidates = make([]*Candidate, 0, b.maxSize)
}

// Peek returns the candidates without removing them (for inspection)
func (b *CandidateBuffer) Peek() []*Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()
	result := make([]*Candidate, len(b.candidates))
	copy(result, b.candidates)
	return result
}
