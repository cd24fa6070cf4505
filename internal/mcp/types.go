// Package mcp exposes the repository context engine as MCP tools, so
// agent clients can interrogate repositories over the same pipeline the
// HTTP API uses.
package mcp

// QueryRepoInput defines the input parameters for the query_repo tool.
type QueryRepoInput struct {
	// RepoURL is the GitHub repository URL.
	RepoURL string `json:"repo_url" jsonschema:"required,description=The GitHub repository URL (e.g. https://github.com/owner/name)"`
	// Query is the natural-language question about the repository.
	Query string `json:"query" jsonschema:"required,description=The natural-language question about the repository"`
	// Branch pins a branch or tag; empty means the default branch.
	Branch string `json:"branch,omitempty" jsonschema:"description=Branch or tag to read; defaults to the repository's default branch"`
	// SessionID continues an earlier conversation about the same repository.
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Session identifier from a previous query_repo call to continue the conversation"`
	// ContextFiles are paths to pin into the prompt context.
	ContextFiles []string `json:"context_files,omitempty" jsonschema:"description=File paths to always include in the prompt context"`
}

// QueryRepoOutput contains the model's answer.
type QueryRepoOutput struct {
	// Response is the model's answer grounded in repository context.
	Response string `json:"response"`
	// SessionID identifies the conversation; pass it back to continue.
	SessionID string `json:"session_id"`
}

// RepoInfoInput defines the input parameters for the repo_info tool.
type RepoInfoInput struct {
	RepoURL string `json:"repo_url" jsonschema:"required,description=The GitHub repository URL"`
	Branch  string `json:"branch,omitempty" jsonschema:"description=Branch or tag to read; defaults to the repository's default branch"`
}

// RepoInfoOutput contains the repository overview.
type RepoInfoOutput struct {
	Repo      string   `json:"repo"`
	Branch    string   `json:"branch"`
	CommitSHA string   `json:"commit_sha"`
	Files     int      `json:"files"`
	Structure []string `json:"structure"`
	Summary   string   `json:"summary"`
}

// SummarizeFileInput defines the input parameters for the summarize_file tool.
type SummarizeFileInput struct {
	RepoURL  string `json:"repo_url" jsonschema:"required,description=The GitHub repository URL"`
	FilePath string `json:"file_path" jsonschema:"required,description=Path of the file to summarize (e.g. internal/api/server.go)"`
	Branch   string `json:"branch,omitempty" jsonschema:"description=Branch or tag to read; defaults to the repository's default branch"`
}

// SummarizeFileOutput contains the file summary.
type SummarizeFileOutput struct {
	FilePath string `json:"file_path"`
	Summary  string `json:"summary"`
	// Truncated is set when the summary covers only the file's prefix.
	Truncated bool `json:"truncated,omitempty"`
}

// ListDependenciesInput defines the input parameters for the
// list_dependencies tool.
type ListDependenciesInput struct {
	RepoURL string `json:"repo_url" jsonschema:"required,description=The GitHub repository URL"`
	Branch  string `json:"branch,omitempty" jsonschema:"description=Branch or tag to read; defaults to the repository's default branch"`
}

// ListDependenciesOutput contains the parsed dependency mapping and its
// prose explanation.
type ListDependenciesOutput struct {
	// Dependencies maps ecosystem -> package -> declared version.
	Dependencies map[string]map[string]string `json:"dependencies"`
	Explanation  string                       `json:"explanation"`
}
