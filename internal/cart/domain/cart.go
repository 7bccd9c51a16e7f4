package domain

import "time"

// Cart is a server-side shopping cart identified by a caller-held token.
// All mutations are plain data transforms; persistence is the caller's concern.
type Cart struct {
	Token             string    `bson:"token" json:"token"`
	Lines             []Line    `bson:"lines" json:"lines"`
	SelectedAddressID int64     `bson:"selected_address_id,omitempty" json:"selected_address_id,omitempty"`
	TotalPrice        int64     `bson:"total_price" json:"total_price"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// Line is one product's entry in a cart. Prices are integer cents.
type Line struct {
	ProductID int64  `bson:"product_id" json:"product_id"`
	Name      string `bson:"name" json:"name"`
	UnitPrice int64  `bson:"unit_price" json:"unit_price"`
	Quantity  int    `bson:"quantity" json:"quantity"`
	Selected  bool   `bson:"selected" json:"selected"`
	Subtotal  int64  `bson:"subtotal" json:"subtotal"`
}

func New(token string) *Cart {
	now := time.Now()
	return &Cart{
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Line(productID int64) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return &c.Lines[i]
		}
	}
	return nil
}

// AddLine merges into an existing line or appends a new one. A non-positive
// quantity is treated as 1. New lines start selected.
func (c *Cart) AddLine(productID int64, name string, unitPrice int64, quantity int) {
	if quantity <= 0 {
		quantity = 1
	}
	if line := c.Line(productID); line != nil {
		line.Quantity += quantity
		line.Subtotal = line.UnitPrice * int64(line.Quantity)
	} else {
		c.Lines = append(c.Lines, Line{
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
			Selected:  true,
			Subtotal:  unitPrice * int64(quantity),
		})
	}
	c.RecalculateTotal()
}

// UpdateQuantity sets a line's quantity exactly; a non-positive quantity
// removes the line. Unknown product ids are ignored.
func (c *Cart) UpdateQuantity(productID int64, quantity int) {
	line := c.Line(productID)
	if line == nil {
		return
	}
	if quantity <= 0 {
		c.RemoveLine(productID)
		return
	}
	line.Quantity = quantity
	line.Subtotal = line.UnitPrice * int64(quantity)
	c.RecalculateTotal()
}

func (c *Cart) RemoveLine(productID int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			break
		}
	}
	c.RecalculateTotal()
}

// RemoveLines drops every line whose product id is in ids. Used after an
// order drains the selected lines out of the cart.
func (c *Cart) RemoveLines(ids []int64) {
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if !drop[line.ProductID] {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
	c.RecalculateTotal()
}

// SetSelected marks exactly the lines in ids as selected for checkout.
func (c *Cart) SetSelected(ids []int64) {
	selected := make(map[int64]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	for i := range c.Lines {
		c.Lines[i].Selected = selected[c.Lines[i].ProductID]
	}
}

func (c *Cart) SelectAddress(addressID int64) {
	c.SelectedAddressID = addressID
}

// RecalculateTotal folds subtotal over all lines, selected or not.
func (c *Cart) RecalculateTotal() {
	var total int64
	for _, line := range c.Lines {
		total += line.Subtotal
	}
	c.TotalPrice = total
}

func (c *Cart) SelectedLines() []Line {
	var lines []Line
	for _, line := range c.Lines {
		if line.Selected {
			lines = append(lines, line)
		}
	}
	return lines
}

func (c *Cart) HasSelectedLines() bool {
	for _, line := range c.Lines {
		if line.Selected {
			return true
		}
	}
	return false
}

// SelectedTotal sums subtotals over selected lines only.
func (c *Cart) SelectedTotal() int64 {
	var total int64
	for _, line := range c.Lines {
		if line.Selected {
			total += line.Subtotal
		}
	}
	return total
}

func (c *Cart) TotalQuantity() int {
	var n int
	for _, line := range c.Lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) Clear() {
	c.Lines = nil
	c.TotalPrice = 0
}
