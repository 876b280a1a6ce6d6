package models

type SentimentSummary struct {
	Total              int     `json:"total"`
	Positive           int     `json:"positive"`
	Neutral            int     `json:"neutral"`
	Negative           int     `json:"negative"`
	PositivePercentage float64 `json:"positive_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
}

type KeywordEntry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type KeywordsResponse struct {
	Keywords []KeywordEntry `json:"keywords"`
	Count    int            `json:"count"`
}

type SampleFeedbackResponse struct {
	Feedback []FeedbackSample `json:"feedback"`
	Count    int              `json:"count"`
}
