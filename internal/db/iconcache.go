package db

import (
	"container/list"
	"database/sql"
	"sync"

	"github.com/michaelscutari/sdficon/internal/entry"
)

const iconCacheSize = 1024

// iconCache is a small LRU of icon rows keyed by name. The TUI detail pane
// looks the same handful of icons up repeatedly while the cursor moves.
type iconCache struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
}

func newIconCache(max int) *iconCache {
	return &iconCache{
		max:   max,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

func (c *iconCache) Get(name string) (entry.Icon, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[name]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(entry.Icon), true
	}
	return entry.Icon{}, false
}

func (c *iconCache) Set(icon entry.Icon) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[icon.Name]; ok {
		el.Value = icon
		c.ll.MoveToFront(el)
		return
	}

	c.items[icon.Name] = c.ll.PushFront(icon)

	if c.ll.Len() > c.max {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.items, last.Value.(entry.Icon).Name)
	}
}

func (c *iconCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

var dbIconCaches sync.Map // map[*sql.DB]*iconCache

func getIconCache(db *sql.DB) *iconCache {
	if db == nil {
		return nil
	}
	if existing, ok := dbIconCaches.Load(db); ok {
		return existing.(*iconCache)
	}
	actual, _ := dbIconCaches.LoadOrStore(db, newIconCache(iconCacheSize))
	return actual.(*iconCache)
}

// ForgetCache drops the cache attached to db. Call it when closing.
func ForgetCache(db *sql.DB) {
	dbIconCaches.Delete(db)
}
