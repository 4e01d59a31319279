package domain

// Variant is one purchasable option of a catalog record, stored as an opaque
// ordered list alongside the record.
type Variant struct {
	ExternalID *int64 `json:"id,omitempty"`
	Title      string `json:"title"`
	SKU        string `json:"sku,omitempty"`
	Available  bool   `json:"available"`
	Price      *Money `json:"price"`
}

func copyVariants(in []Variant) []Variant {
	out := make([]Variant, len(in))
	for i, v := range in {
		out[i] = v
		if v.ExternalID != nil {
			id := *v.ExternalID
			out[i].ExternalID = &id
		}
		if v.Price != nil {
			out[i].Price = v.Price.Copy()
		} else {
			out[i].Price = Zero()
		}
	}
	return out
}
