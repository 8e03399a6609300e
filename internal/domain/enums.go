package domain

// ProductStatus represents the listing status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid checks if the status is a known value
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return true
	}
	return false
}

// VariantOptionType is the axis a variant option belongs to
type VariantOptionType string

const (
	VariantOptionColor VariantOptionType = "color"
	VariantOptionSize  VariantOptionType = "size"
)

// IsValid checks if the option type is a known value
func (t VariantOptionType) IsValid() bool {
	return t == VariantOptionColor || t == VariantOptionSize
}
