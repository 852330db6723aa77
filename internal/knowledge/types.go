package knowledge

// SearchType selects the search strategy of the API.
type SearchType string

// Search strategies.
const (
	SearchSemantic SearchType = "semantic"
	SearchKeyword  SearchType = "keyword"
	SearchHybrid   SearchType = "hybrid"
)

// Document is a stored document. Timestamps are kept as sent by the API.
type Document struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	FileType  string   `json:"file_type"`
	CreatedAt string   `json:"created_at"`
	Metadata  Metadata `json:"metadata_col"`
	Content   string   `json:"content,omitempty"`
}

// Metadata is the analysis the API attached to a document.
type Metadata struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Entities []string `json:"entities,omitempty"`
}

// SearchResult is one hit of a document search.
type SearchResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"content"`
	Score   float64 `json:"score"`
}

// Conversation is a chat conversation.
type Conversation struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	MessageCount int    `json:"message_count"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	ID               int               `json:"id"`
	Role             string            `json:"role"`
	Content          string            `json:"content"`
	ContextDocuments []ContextDocument `json:"context_documents"`
	CreatedAt        string            `json:"created_at"`
}

// ContextDocument is a document the assistant used to answer.
type ContextDocument struct {
	DocumentID      int     `json:"document_id"`
	Title           string  `json:"title"`
	Excerpt         string  `json:"excerpt"`
	SimilarityScore float64 `json:"similarity_score"`
	FileType        string  `json:"file_type"`
}

// ChatRequest asks the assistant. Without ConversationID the API starts a
// new conversation.
type ChatRequest struct {
	Message             string `json:"message"`
	ConversationID      *int   `json:"conversation_id,omitempty"`
	SelectedDocumentIDs []int  `json:"selected_document_ids,omitempty"`
}

// ChatResponse is the assistant's answer.
type ChatResponse struct {
	Message          string            `json:"message"`
	ConversationID   int               `json:"conversation_id"`
	ContextDocuments []ContextDocument `json:"context_documents"`
}

// Insights is the analytics summary.
type Insights struct {
	TopicDistribution    Chart            `json:"topicDistribution"`
	ActivityTrends       Chart            `json:"activityTrends"`
	CategoryDistribution Chart            `json:"categoryDistribution"`
	DomainCoverage       []DomainCoverage `json:"domainCoverage"`
}

// Chart is a labelled series set.
type Chart struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series of a Chart.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Total sums the first series of c.
func (c Chart) Total() float64 {
	if len(c.Datasets) == 0 {
		return 0
	}

	var sum float64
	for _, v := range c.Datasets[0].Data {
		sum += v
	}

	return sum
}

// DomainCoverage is an overlap of knowledge domains.
type DomainCoverage struct {
	Sets         []string `json:"sets"`
	Size         int      `json:"size"`
	Label        string   `json:"label"`
	Keywords     []string `json:"keywords"`
	ClusterCount int      `json:"clusterCount"`
}
