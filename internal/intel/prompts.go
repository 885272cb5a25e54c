package intel

import (
	"encoding/json"
	"fmt"
)

const (
	AnalyzePrompt = "System Role: Vision Agent + Privacy Guardian. Extract visual metadata, OCR text, and emotional sentiment. " +
		"Critical: If this is an ID, Credit Card, or Document, set isSensitive to true and classify it as ID, Financial, Medical, Secret, or None. " +
		`Reply with a JSON object with keys objects, faces, scene, text, isSensitive, riskClassification, riskReason, ` +
		`dominantEmotion, sentiment (positive, neutral or negative), locationEstimate, temporalContext.`

	clusterPrompt = "Role: Memory Agent. Analyze these photo metadata entries. Group them into distinct \"Memory Albums\" or \"Events\". " +
		"Be creative with titles like 'Summer Joy' or 'Productive Workdays'. " +
		`Reply with a JSON object {"albums": [{"title", "description", "photoIds", "category"}]} where category is event, timeline, emotion or privacy.`

	optimizePrompt = "Role: Planner Agent. Look for potential duplicates or very similar photos in this list. Suggest actions. " +
		`Reply with a JSON object {"suggestions": [string]}.`

	searchPrompt = "Role: Natural Language Interface Agent. Query: %q. " +
		"Analyze query intent: Is the user looking for specific categories (Documents, Faces, Emotions, Scenes)? " +
		"Return IDs of photos that match the sentiment, category, or specific content of the query. " +
		`Reply with a JSON object {"matchingIds": [string]}.`
)

// ClusterPrompt renders the clustering instruction with its data.
func ClusterPrompt(req ClusterRequest) (string, error) {
	data, err := json.Marshal(req.Items)
	if err != nil {
		return "", fmt.Errorf("marshal cluster context: %w", err)
	}
	return clusterPrompt + "\nData: " + string(data), nil
}

// OptimizePrompt renders the planner instruction with its context.
func OptimizePrompt(req OptimizeRequest) (string, error) {
	data, err := json.Marshal(req.Items)
	if err != nil {
		return "", fmt.Errorf("marshal optimize context: %w", err)
	}
	return optimizePrompt + "\nContext: " + string(data), nil
}

// SearchPrompt renders the search instruction with its context.
func SearchPrompt(req SearchRequest) (string, error) {
	data, err := json.Marshal(req.Context)
	if err != nil {
		return "", fmt.Errorf("marshal search context: %w", err)
	}
	return fmt.Sprintf(searchPrompt, req.Query) + "\nContext: " + string(data), nil
}
