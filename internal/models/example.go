package models

// ExampleEntry is one prefilled request of the example gallery
type ExampleEntry struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxLength   int     `json:"max_length"`
}

// Request converts the entry into a generation request
func (e ExampleEntry) Request() GenerationRequest {
	return GenerationRequest{
		Prompt:      e.Prompt,
		Temperature: e.Temperature,
		MaxLength:   e.MaxLength,
	}
}
