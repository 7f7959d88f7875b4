package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	Title   string
	URL     string
	Content string
}

// ResponseSchema represents the JSON document the model is asked to return
type ResponseSchema struct {
	// Summary is a short neutral summary of the article
	Summary string `json:"summary"`

	// Categories are topical labels such as "AI" or "Security"
	Categories []string `json:"categories"`

	// ImpactScore rates the article's significance from 0 to 100
	ImpactScore *float64 `json:"impact_score"`
}
