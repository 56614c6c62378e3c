package domain

import (
	"github.com/shopspring/decimal"
)

// Product is the read-only catalog view of a book.
type Product struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Author string          `json:"author"`
	Price  decimal.Decimal `json:"price"`
}

type LineItem struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice multiplied by Quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product. The zero value is an empty cart.
type Cart struct {
	Items []LineItem `json:"items"`
}

// Add increments the quantity of an existing line or appends a new line with quantity 1.
func (c *Cart) Add(p Product) {
	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity++
			return
		}
	}
	c.Items = append(c.Items, LineItem{
		ProductID: p.ID,
		Title:     p.Title,
		Author:    p.Author,
		UnitPrice: p.Price,
		Quantity:  1,
	})
}

// SetQuantity overwrites the quantity of productID; n <= 0 removes the line.
// Absent products are ignored.
func (c *Cart) SetQuantity(productID int64, n int) {
	if n <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = n
			return
		}
	}
}

func (c *Cart) Remove(productID int64) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) Contains(productID int64) bool {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Snapshot returns a deep copy safe to hand to callers.
func (c *Cart) Snapshot() Cart {
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// PersistedLine is the durable per-account cart row: product and quantity only.
type PersistedLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// PersistedLines projects the cart onto its durable representation.
func (c *Cart) PersistedLines() []PersistedLine {
	lines := make([]PersistedLine, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, PersistedLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}
