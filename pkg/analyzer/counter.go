package analyzer

import "sort"

// Ranked is one entry of a top-N listing.
type Ranked struct {
	Key   string
	Count int
}

// orderedCounter counts per key while remembering the order in which keys were
// first seen, so that keys with equal counts rank in input order.
type orderedCounter struct {
	counts map[string]int
	order  map[string]int
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{
		counts: make(map[string]int),
		order:  make(map[string]int),
	}
}

func (c *orderedCounter) inc(key string) {
	c.set(key, c.counts[key]+1)
}

func (c *orderedCounter) set(key string, count int) {
	if _, seen := c.order[key]; !seen {
		c.order[key] = len(c.order)
	}
	c.counts[key] = count
}

func (c *orderedCounter) count(key string) int {
	return c.counts[key]
}

// ranked returns the keys ordered by count descending, ties by first-seen
// order. A negative n returns all keys.
func (c *orderedCounter) ranked(n int) []Ranked {
	result := make([]Ranked, 0, len(c.counts))
	for key, count := range c.counts {
		result = append(result, Ranked{Key: key, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return c.order[result[i].Key] < c.order[result[j].Key]
	})
	if n >= 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
