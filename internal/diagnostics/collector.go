package diagnostics

import (
	"sort"
	"sync"
)

// Record describes one item that failed to transform.
type Record[T any] struct {
	// Index is the zero-based position of the item in the input.
	Index int `json:"index"`

	// Input is the original item value.
	Input T `json:"input"`

	// Message is the failure text reported by the transform.
	Message string `json:"message"`
}

// Cluster is a group of failures sharing a normalized message.
type Cluster struct {
	// Key is the normalized message shared by every record in the cluster.
	Key string `json:"key"`

	// Example is the raw message of the first record in the cluster.
	Example string `json:"example"`

	// Count is the number of records in the cluster.
	Count int `json:"count"`

	// FirstIndex is the lowest input position in the cluster.
	FirstIndex int `json:"first_index"`
}

// Collector accumulates failure records. The zero value is ready to use.
type Collector[T any] struct {
	mu      sync.RWMutex
	records []Record[T]
	sorted  bool
}

// NewCollector creates a collector with room for capacity records.
func NewCollector[T any](capacity int) *Collector[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Collector[T]{records: make([]Record[T], 0, capacity), sorted: true}
}

// Record appends a failure for the item at index.
func (c *Collector[T]) Record(index int, input T, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch n := len(c.records); {
	case n == 0:
		c.sorted = true
	case c.records[n-1].Index > index:
		c.sorted = false
	}
	c.records = append(c.records, Record[T]{Index: index, Input: input, Message: message})
}

// Len returns the number of records collected so far.
func (c *Collector[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Records returns a copy of all records in ascending index order.
func (c *Collector[T]) Records() []Record[T] {
	return c.RecordsSince(0)
}

// RecordsSince returns a sorted copy of the records appended after the first
// mark records. Pair it with Len to read what one run added to a shared
// collector.
func (c *Collector[T]) RecordsSince(mark int) []Record[T] {
	c.mu.RLock()
	mark = min(max(mark, 0), len(c.records))
	out := make([]Record[T], len(c.records)-mark)
	copy(out, c.records[mark:])
	sorted := c.sorted
	c.mu.RUnlock()

	if !sorted {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	}
	return out
}

// Indices returns the failing positions in ascending order.
func (c *Collector[T]) Indices() []int {
	c.mu.RLock()
	out := make([]int, len(c.records))
	for i, r := range c.records {
		out[i] = r.Index
	}
	sorted := c.sorted
	c.mu.RUnlock()

	if !sorted {
		sort.Ints(out)
	}
	return out
}

// Summary returns failure counts grouped by normalized message, largest
// cluster first. Clusters of equal size are ordered by first failing index.
func (c *Collector[T]) Summary() []Cluster {
	return Summarize(c.Records())
}

// Summarize groups records by normalized message. Records must be in
// ascending index order for Example and FirstIndex to refer to the earliest
// failure.
func Summarize[T any](records []Record[T]) []Cluster {
	byKey := make(map[string]int)
	var clusters []Cluster

	for _, r := range records {
		key := Normalize(r.Message)
		if i, ok := byKey[key]; ok {
			clusters[i].Count++
			continue
		}
		byKey[key] = len(clusters)
		clusters = append(clusters, Cluster{
			Key:        key,
			Example:    r.Message,
			Count:      1,
			FirstIndex: r.Index,
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Count != clusters[j].Count {
			return clusters[i].Count > clusters[j].Count
		}
		return clusters[i].FirstIndex < clusters[j].FirstIndex
	})
	return clusters
}
