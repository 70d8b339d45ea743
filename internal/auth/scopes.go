package auth

// Known OAuth scopes used by the analysis API.
const (
	ScopeAnalysisWrite = "analysis:write"
	ScopeAnalysisRead  = "analysis:read"
)
