package catalog

// TakeFrom moves every partition of src into c, replacing c's contents.
// Only partition handles are swapped, so the caller can hold its lock for
// the move alone. src is left empty with built-ins restored.
func (c *Catalog) TakeFrom(src *Catalog) {
	for _, mt := range MediaTypes {
		c.parts[mt] = src.parts[mt]
		src.parts[mt] = newPartition(mt)
		src.parts[mt].ensureBuiltins()
	}
}

// TakeMedia moves one partition of src into c. The moved partition keeps its
// own complete flag; the other partitions of c are unaffected.
func (c *Catalog) TakeMedia(src *Catalog, mt MediaType) error {
	if _, err := c.part(mt); err != nil {
		return err
	}
	c.parts[mt] = src.parts[mt]
	c.parts[mt].touch()
	src.parts[mt] = newPartition(mt)
	src.parts[mt].ensureBuiltins()
	return nil
}

// Reset empties one partition, keeping only the built-in categories
func (c *Catalog) Reset(mt MediaType) error {
	if _, err := c.part(mt); err != nil {
		return err
	}
	complete := c.parts[mt].complete
	c.parts[mt] = newPartition(mt)
	c.parts[mt].ensureBuiltins()
	c.parts[mt].complete = complete
	return nil
}
