package domain

import "time"

// ItemID is the opaque identity assigned to an item at ingestion.
type ItemID string

// Status enumerates the lifecycle milestones of an item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAnalyzing Status = "analyzing"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Terminal reports whether no further pipeline transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether the pipeline may move an item from s to next.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusAnalyzing
	case StatusAnalyzing:
		return next == StatusCompleted || next == StatusError
	default:
		return false
	}
}

// Sentiment is the coarse affect polarity returned by analysis.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// RiskUserDefined marks a sensitivity decision made by the operator.
const RiskUserDefined = "User Defined"

// Upload is a raw file handed to ingestion.
type Upload struct {
	Name      string
	Size      int64
	MediaType string
	Locator   string
}

// Item is one ingested unit moving through the pipeline.
type Item struct {
	ID         ItemID
	Name       string
	Size       int64
	MediaType  string
	Locator    string
	Status     Status
	Result     *AnalysisResult
	IngestedAt time.Time
}

// Sensitive reports whether the item carries a sensitive analysis result.
func (i Item) Sensitive() bool {
	return i.Result != nil && i.Result.IsSensitive
}

// Clone returns a deep copy safe to hand to readers.
func (i Item) Clone() Item {
	if i.Result != nil {
		r := i.Result.Clone()
		i.Result = &r
	}
	return i
}

// AnalysisResult is the structured output attached to a completed item.
type AnalysisResult struct {
	Scene   string
	Objects []string
	Faces   []string
	Text    string

	IsSensitive        bool
	RiskClassification string
	RiskReason         string

	DominantEmotion string
	Sentiment       Sentiment

	LocationEstimate string
	TemporalContext  string

	AnalyzedAt time.Time
}

// Clone copies the result including its label slices.
func (r AnalysisResult) Clone() AnalysisResult {
	r.Objects = append([]string(nil), r.Objects...)
	r.Faces = append([]string(nil), r.Faces...)
	return r
}

// AnalysisRequest carries the bytes of one item to the analysis capability.
type AnalysisRequest struct {
	ItemID    ItemID
	Name      string
	MediaType string
	Data      []byte
}
