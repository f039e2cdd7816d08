package entities

// Origin identifies the regulatory source of a match.
type Origin string

const (
	OriginFDA Origin = "USFDA"
	OriginEMA Origin = "EMA"
)

// Status flags a match record against the previous run.
type Status string

const (
	StatusNone Status = ""
	StatusNew  Status = "NEW"
)

// MatchRecord is one (product, reference row) pair that matched.
// The struct is comparable; equal records are duplicates.
type MatchRecord struct {
	Status         Status       `json:"status"`
	Origin         Origin       `json:"source"`
	Product        ProductEntry `json:"product"`
	ImpurityName   string       `json:"impurityName"`
	IUPACName      string       `json:"iupacName"`
	LimitValue     string       `json:"limit"`
	Notes          string       `json:"notes"`
	UpdatedDate    string       `json:"updatedDate"`
	ReferenceValue string       `json:"referenceValue"`
}
