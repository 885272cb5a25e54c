package domain

import "time"

// Severity grades an activity entry.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityAlert   Severity = "alert"
	SeveritySuccess Severity = "success"
)

// ActivityEntry records one orchestration event.
type ActivityEntry struct {
	ID        string
	Agent     string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// Agent names used in activity entries.
const (
	AgentOrchestrator    = "Orchestrator"
	AgentVision          = "Vision Agent"
	AgentPrivacyGuardian = "Privacy Guardian"
	AgentMemory          = "Memory Agent"
	AgentPlanner         = "Planner"
	AgentNaturalLanguage = "NLI Agent"
)
