// Package api exposes the repository context engine over HTTP.
package api

// RepoRequest identifies a repository for the info and dependencies
// endpoints. Branch is optional; empty means the repository's default.
type RepoRequest struct {
	RepoURL     string `json:"repo_url"`
	Branch      string `json:"branch,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// QueryRequest is one natural-language question about a repository.
type QueryRequest struct {
	RepoURL     string `json:"repo_url"`
	Query       string `json:"query"`
	Branch      string `json:"branch,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	// ContextFiles are paths the client wants pinned into the prompt.
	ContextFiles []string `json:"context_files,omitempty"`
}

// FileRequest identifies one file for summarization.
type FileRequest struct {
	RepoURL     string `json:"repo_url"`
	FilePath    string `json:"file_path"`
	Branch      string `json:"branch,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// InfoResponse is the repository overview.
type InfoResponse struct {
	RepoURL       string   `json:"repo_url"`
	Repo          string   `json:"repo"`
	Branch        string   `json:"branch"`
	CommitSHA     string   `json:"commit_sha"`
	Files         int      `json:"files"`
	TreeTruncated bool     `json:"tree_truncated,omitempty"`
	Structure     []string `json:"structure"`
	Summary       string   `json:"summary"`
}

// QueryResponse carries the model's answer.
type QueryResponse struct {
	RepoURL   string `json:"repo_url"`
	Branch    string `json:"branch"`
	Query     string `json:"query"`
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// FileSummaryResponse carries one file's summary.
type FileSummaryResponse struct {
	RepoURL   string `json:"repo_url"`
	Branch    string `json:"branch"`
	FilePath  string `json:"file_path"`
	Summary   string `json:"summary"`
	Truncated bool   `json:"truncated,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

// DependenciesResponse maps detected dependencies per ecosystem with a
// prose explanation of the stack.
type DependenciesResponse struct {
	RepoURL      string                       `json:"repo_url"`
	Repo         string                       `json:"repo"`
	Dependencies map[string]map[string]string `json:"dependencies"`
	Explanation  string                       `json:"explanation"`
	Cached       bool                         `json:"cached,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
