package domain

// InvoiceLineItem is one row extracted from a supplier invoice (OCR or spreadsheet import).
// It is read-only input to matching.
type InvoiceLineItem struct {
	RowNumber  int     `json:"rowNumber"`
	ItemName   string  `json:"itemName" binding:"required"`
	Spec       string  `json:"spec,omitempty"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
	TaxType    string  `json:"taxType,omitempty"`
}

// CatalogProduct represents a supplier product from the reference catalog
type CatalogProduct struct {
	ID             string   `json:"id"`
	Name           string   `json:"productName"`
	StandardPrice  float64  `json:"standardPrice"`
	SpecQuantity   *float64 `json:"specQuantity,omitempty"`
	SpecUnit       string   `json:"specUnit,omitempty"`
	UnitNormalized string   `json:"unitNormalized,omitempty"`
	Supplier       string   `json:"supplier"`
	Category       string   `json:"category,omitempty"`
	TaxType        string   `json:"taxType,omitempty"`
}
