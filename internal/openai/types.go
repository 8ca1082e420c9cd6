package openai

// Wire types for the subset of the provider API the orchestration core
// consumes: assistants, threads, messages, runs, files and vector stores.

type Assistant struct {
	Id            string         `json:"id"`
	Model         string         `json:"model"`
	Tools         []Tool         `json:"tools"`
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
}

type Tool struct {
	Type string `json:"type"`
}

type ToolResources struct {
	FileSearch *FileSearchResources `json:"file_search,omitempty"`
}

type FileSearchResources struct {
	VectorStoreIds []string `json:"vector_store_ids"`
}

type UpdateAssistantRequest struct {
	Model         string         `json:"model,omitempty"`
	Tools         []Tool         `json:"tools,omitempty"`
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
}

type Thread struct {
	Id string `json:"id"`
}

type ThreadMessage struct {
	Id        string           `json:"id"`
	ThreadId  string           `json:"thread_id"`
	Role      string           `json:"role"`
	RunId     string           `json:"run_id,omitempty"`
	Content   []MessageContent `json:"content"`
	CreatedAt int64            `json:"created_at"`
}

type MessageContent struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

type MessageText struct {
	Value string `json:"value"`
}

// PlainText concatenates the text parts of a thread message.
func (m *ThreadMessage) PlainText() string {
	var out string
	for _, c := range m.Content {
		if c.Type == "text" && c.Text != nil {
			out += c.Text.Value
		}
	}
	return out
}

type CreateMessageRequest struct {
	Role        string              `json:"role"`
	Content     string              `json:"content"`
	Attachments []MessageAttachment `json:"attachments,omitempty"`
}

type MessageAttachment struct {
	FileId string `json:"file_id"`
	Tools  []Tool `json:"tools,omitempty"`
}

type MessageList struct {
	Data []ThreadMessage `json:"data"`
}

// Run statuses reported by the provider. queued/in_progress/cancelling are
// non-terminal; everything else ends the run.
const (
	RunStatusQueued     = "queued"
	RunStatusInProgress = "in_progress"
	RunStatusCancelling = "cancelling"
	RunStatusCompleted  = "completed"
	RunStatusFailed     = "failed"
	RunStatusCancelled  = "cancelled"
	RunStatusExpired    = "expired"
)

type Run struct {
	Id        string    `json:"id"`
	ThreadId  string    `json:"thread_id"`
	Status    string    `json:"status"`
	Model     string    `json:"model,omitempty"`
	LastError *RunError `json:"last_error,omitempty"`
}

type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusQueued, RunStatusInProgress, RunStatusCancelling:
		return false
	}
	return true
}

type CreateRunRequest struct {
	AssistantId   string         `json:"assistant_id"`
	Model         string         `json:"model,omitempty"`
	ToolResources *ToolResources `json:"tool_resources,omitempty"`
}

type File struct {
	Id       string `json:"id"`
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

type VectorStore struct {
	Id           string        `json:"id"`
	Name         string        `json:"name"`
	Status       string        `json:"status"`
	ExpiresAfter *ExpiresAfter `json:"expires_after,omitempty"`
}

// ExpiresAfter is an inactivity expiration policy: the store is deleted
// once it has been idle for Days since Anchor.
type ExpiresAfter struct {
	Anchor string `json:"anchor"`
	Days   int    `json:"days"`
}

type CreateVectorStoreRequest struct {
	Name         string            `json:"name"`
	ExpiresAfter *ExpiresAfter     `json:"expires_after,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

const VectorStoreStatusExpired = "expired"
