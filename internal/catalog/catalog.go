// Package catalog holds the shop's menu: product names with their default
// unit price, used to pre-fill the entry form.
package catalog

import (
	"sort"
	"strings"

	"shopledger/internal/core"
)

// Catalog is an immutable name -> price lookup. The zero value is empty and
// safe to use.
type Catalog struct {
	entries []core.MenuEntry
	index   map[string]int
}

// New builds a catalog from entries. Blank names are skipped and the first
// occurrence of a duplicate name wins.
func New(entries []core.MenuEntry) *Catalog {
	c := &Catalog{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		if _, dup := c.index[name]; dup {
			continue
		}
		if e.Price.Cents < 0 {
			e.Price = core.Money{}
		}
		c.index[name] = len(c.entries)
		c.entries = append(c.entries, core.MenuEntry{Name: name, Price: e.Price})
	}
	return c
}

// Lookup returns the entry for name.
func (c *Catalog) Lookup(name string) (core.MenuEntry, bool) {
	if c == nil || c.index == nil {
		return core.MenuEntry{}, false
	}
	i, ok := c.index[strings.TrimSpace(name)]
	if !ok {
		return core.MenuEntry{}, false
	}
	return c.entries[i], true
}

// Price returns the default unit price for name, or zero when the name is not
// on the menu. Callers decide whether zero is acceptable.
func (c *Catalog) Price(name string) core.Money {
	e, _ := c.Lookup(name)
	return e.Price
}

// Entries returns the menu in source order.
func (c *Catalog) Entries() []core.MenuEntry {
	if c == nil {
		return nil
	}
	out := make([]core.MenuEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Names returns the product names sorted alphabetically.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Placeholders returns one zero-quantity row per menu entry dated on date.
// Used to seed an empty period when placeholder seeding is enabled.
func (c *Catalog) Placeholders(date core.Date) []core.Transaction {
	if c == nil {
		return nil
	}
	rows := make([]core.Transaction, 0, len(c.entries))
	for _, e := range c.entries {
		rows = append(rows, core.Transaction{Date: date, ItemName: e.Name, UnitPrice: e.Price})
	}
	return rows
}

// Starter is the built-in bakery menu used when no catalog file is configured.
func Starter() *Catalog {
	baht := func(b int64) core.Money { return core.Money{Cents: b * 100} }
	return New([]core.MenuEntry{
		{Name: "เค้กนมสด", Price: baht(50)},
		{Name: "เค้กช็อกโกแลต", Price: baht(60)},
		{Name: "เค้กใบเตย", Price: baht(50)},
		{Name: "บราวนี่", Price: baht(25)},
		{Name: "ขนมปังสังขยา", Price: baht(60)},
		{Name: "ขนมปังไส้หมูหยอง", Price: baht(35)},
		{Name: "ครัวซองต์", Price: baht(45)},
		{Name: "คุกกี้เนยสด", Price: baht(20)},
		{Name: "ทาร์ตไข่", Price: baht(25)},
		{Name: "โรลเค้กกาแฟ", Price: baht(40)},
	})
}
