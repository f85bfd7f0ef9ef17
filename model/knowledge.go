package model

// KnowledgeCategory tags a knowledge-base chunk. Categories outside this set
// are ignored by search filters rather than rejected.
type KnowledgeCategory = string

const (
	CategoryVarieties   KnowledgeCategory = "varieties"
	CategoryNutrition   KnowledgeCategory = "nutrition"
	CategorySeasons     KnowledgeCategory = "seasons"
	CategoryExports     KnowledgeCategory = "exports"
	CategoryCultivation KnowledgeCategory = "cultivation"
	CategoryGeneral     KnowledgeCategory = "general"
)

// KnowledgeCategories is the fixed allowed category set.
var KnowledgeCategories = []KnowledgeCategory{
	CategoryVarieties,
	CategoryNutrition,
	CategorySeasons,
	CategoryExports,
	CategoryCultivation,
	CategoryGeneral,
}

// KnowledgeSnippet is a retrieved unit of knowledge-base content. Produced
// fresh per query, never persisted.
type KnowledgeSnippet struct {
	Content   string            `json:"content"`
	Score     float64           `json:"score"`
	Source    string            `json:"source"`
	SourceURL string            `json:"source_url,omitempty"`
	DataDate  string            `json:"data_date,omitempty"`
	Category  KnowledgeCategory `json:"category"`
}

// Image is one result from the external image provider, in the provider's
// native shape. Tool-layer consumers normalize it before handing it to the
// model.
type Image struct {
	ID             string    `json:"id"`
	URLs           ImageURLs `json:"urls"`
	AltDescription string    `json:"alt_description"`
	User           ImageUser `json:"user"`
}

type ImageURLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type ImageUser struct {
	Name  string         `json:"name"`
	Links ImageUserLinks `json:"links"`
}

type ImageUserLinks struct {
	HTML string `json:"html"`
}
