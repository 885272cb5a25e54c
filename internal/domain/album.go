package domain

// AlbumCategory classifies how an album groups its members.
type AlbumCategory string

const (
	CategoryEvent    AlbumCategory = "event"
	CategoryTimeline AlbumCategory = "timeline"
	CategoryEmotion  AlbumCategory = "emotion"
	CategoryPrivacy  AlbumCategory = "privacy"
)

// Valid reports whether c is a known category.
func (c AlbumCategory) Valid() bool {
	switch c {
	case CategoryEvent, CategoryTimeline, CategoryEmotion, CategoryPrivacy:
		return true
	}
	return false
}

// Album is a collection-level grouping produced by aggregation.
type Album struct {
	ID          string
	Title       string
	Description string
	Category    AlbumCategory
	Members     []ItemID
	CoverURL    string
}

// AlbumDraft is an album proposal returned by the clustering capability.
type AlbumDraft struct {
	Title       string
	Description string
	Members     []ItemID
	Category    AlbumCategory
}

// ClusterInput is one completed item offered to clustering.
type ClusterInput struct {
	ID     ItemID
	Result AnalysisResult
}

// OptimizeInput is the reduced view of an item offered to the planner.
type OptimizeInput struct {
	ID      ItemID
	Scene   string
	Objects []string
}

// SearchContext is the descriptive blob of one item offered to search.
type SearchContext struct {
	ID          ItemID
	Description string
}
