package store

// Rule represents one entry on the shared rule board. The server treats it
// as an opaque record: only the id is inspected, for upsert/delete matching.
// All other fields are client-owned, including lastUpdated.
type Rule struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Content       string   `json:"content"`
	Editor        string   `json:"editor"`
	LastUpdated   string   `json:"lastUpdated"`
	Tags          []string `json:"tags,omitempty"`
	Fine          *Fine    `json:"fine,omitempty"`
	DetentionTime int      `json:"detentionTime,omitempty"`
	WantedTime    int      `json:"wantedTime,omitempty"`
	CriminalCount int      `json:"criminalCount,omitempty"`
	PDCount       int      `json:"pdCount,omitempty"`
	Details1      string   `json:"details1,omitempty"`
	Details2      string   `json:"details2,omitempty"`
	Details1Size  string   `json:"details1Size,omitempty"`
	Details2Size  string   `json:"details2Size,omitempty"`
}

// Fine holds the fine amounts with and without confiscated items
type Fine struct {
	WithItems    int `json:"withItems,omitempty"`
	WithoutItems int `json:"withoutItems,omitempty"`
}

// Rule categories as displayed in the UI
const (
	CategoryRobbery  = "強盗系"
	CategoryDrugs    = "麻薬系"
	CategoryMinor    = "軽犯罪系"
	CategoryMurder   = "殺人系"
	CategoryBasic    = "基本規則"
	CategoryBusiness = "業務規則"
)
