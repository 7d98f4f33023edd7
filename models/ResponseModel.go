package models

// ErrorResponse is the generic error envelope
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"something went wrong"`
	Details string `json:"details,omitempty" example:""`
}

// MessageResponse is the generic success envelope for operations that return
// no payload
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"Deleted successfully"`
}

// BulkImportRow is one parsed spreadsheet row
type BulkImportRow struct {
	Row         int               `json:"row" example:"2"`
	Name        string            `json:"name" example:"Ryzen 5 5600"`
	Brand       string            `json:"brand" example:"AMD"`
	Model       string            `json:"model" example:"100-100000927BOX"`
	Quantity    int               `json:"quantity" example:"12"`
	SellingRate float64           `json:"selling_rate" example:"13499"`
	CostRate    float64           `json:"cost_rate" example:"11800"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Error       string            `json:"error,omitempty" example:""`
}

// BulkImportResult reports the outcome of a spreadsheet upload
type BulkImportResult struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message" example:"Parsed 24 rows"`
	Valid   []BulkImportRow `json:"valid"`
	Failed  []BulkImportRow `json:"failed"`
}

// BulkImportCreateRequest persists previously parsed rows into a category
type BulkImportCreateRequest struct {
	CategoryID string          `json:"category_id" binding:"required" example:"c9f1a2b3"`
	Products   []BulkImportRow `json:"products" binding:"required"`
}
