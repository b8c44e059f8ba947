package facetdex

// CollectionOption configures collection creation.
type CollectionOption interface {
	applyCollection(*collectionConfig)
}

// collectionOptionFunc adapts a function to the CollectionOption interface.
type collectionOptionFunc func(*collectionConfig)

func (f collectionOptionFunc) applyCollection(c *collectionConfig) { f(c) }

type collectionConfig struct {
	Name        string  `json:"name"`
	Fields      []Field `json:"fields"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Creator     string  `json:"creator,omitempty"`
}

// WithField adds a field to the collection schema.
func WithField(name string, ft FieldType) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.Fields = append(c.Fields, Field{Name: name, Type: ft})
	})
}

// WithTitle sets the human-readable title.
func WithTitle(title string) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.Title = title
	})
}

// WithDescription sets the free-form description.
func WithDescription(d string) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.Description = d
	})
}

// WithIcon sets the icon identifier.
func WithIcon(icon string) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.Icon = icon
	})
}

// WithCreator records who created the collection.
func WithCreator(creator string) CollectionOption {
	return collectionOptionFunc(func(c *collectionConfig) {
		c.Creator = creator
	})
}
