package listview

type Column struct {
	Key   string
	Label string
}

// Columns tracks which table columns are shown, keeping their display order
type Columns struct {
	order   []Column
	visible map[string]bool
}

// NewColumns shows every column except the hidden keys
func NewColumns(cols []Column, hidden ...string) *Columns {
	c := &Columns{order: cols, visible: make(map[string]bool, len(cols))}
	for _, col := range cols {
		c.visible[col.Key] = true
	}
	for _, key := range hidden {
		if _, ok := c.visible[key]; ok {
			c.visible[key] = false
		}
	}
	return c
}

func (c *Columns) All() []Column {
	return c.order
}

func (c *Columns) Visible(key string) bool {
	return c.visible[key]
}

// Toggle flips a column and returns its new visibility. Unknown keys stay hidden.
func (c *Columns) Toggle(key string) bool {
	if _, ok := c.visible[key]; !ok {
		return false
	}
	c.visible[key] = !c.visible[key]
	return c.visible[key]
}

func (c *Columns) SetVisible(key string, visible bool) {
	if _, ok := c.visible[key]; ok {
		c.visible[key] = visible
	}
}

func (c *Columns) VisibleColumns() []Column {
	var out []Column
	for _, col := range c.order {
		if c.visible[col.Key] {
			out = append(out, col)
		}
	}
	return out
}

func (c *Columns) VisibleKeys() []string {
	var keys []string
	for _, col := range c.VisibleColumns() {
		keys = append(keys, col.Key)
	}
	return keys
}
