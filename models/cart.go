package models

// CartLine is one product/option variant held in a cart. UnitPrice is the
// snapshot taken when the line was first added; it is not re-read from the
// catalog on later mutations.
type CartLine struct {
	ProductID string `json:"product_id"`
	OptionID  string `json:"option_id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// Cart is a shopper's basket. TotalAmount is always derived from the lines,
// never stored.
type Cart struct {
	UserID      string     `json:"user_id"`
	Lines       []CartLine `json:"lines"`
	TotalAmount int64      `json:"total_amount"`
}

// ComputeTotal recomputes TotalAmount from the current lines.
func (c *Cart) ComputeTotal() {
	var total int64
	for _, line := range c.Lines {
		total += line.UnitPrice * line.Quantity
	}
	c.TotalAmount = total
}
