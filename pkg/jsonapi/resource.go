package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute to the resource.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	b.resource.Attributes[key] = value
	return b
}

// AttrIf adds an attribute only when value is not the zero string.
func (b *ResourceBuilder) AttrIf(key, value string) *ResourceBuilder {
	if value != "" {
		b.resource.Attributes[key] = value
	}
	return b
}

// Self sets the resource's self link.
func (b *ResourceBuilder) Self(url string) *ResourceBuilder {
	if b.resource.Links == nil {
		b.resource.Links = &ResourceLinks{}
	}
	b.resource.Links.Self = url
	return b
}

// Related sets the resource's related link.
func (b *ResourceBuilder) Related(url string) *ResourceBuilder {
	if b.resource.Links == nil {
		b.resource.Links = &ResourceLinks{}
	}
	b.resource.Links.Related = url
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}
