package schemas

// PageType is the coarse pattern classification of an application view.
type PageType string

const (
	PageTypeList      PageType = "list"
	PageTypeDetails   PageType = "details"
	PageTypeDialog    PageType = "dialog"
	PageTypeWorkspace PageType = "workspace"
	PageTypeTOC       PageType = "toc"
	PageTypeUnknown   PageType = "unknown"
)

// PageClassification is the result of classifying the current navigation
// context. Pages that cannot be confidently tied to the target application
// (identity providers, redirect interstitials, blank tabs) carry
// IgnoreForPOM so no page object is ever generated for them.
type PageClassification struct {
	PageID       string   `json:"page_id"`
	PageName     string   `json:"page_name"`
	Type         PageType `json:"type"`
	IgnoreForPOM bool     `json:"ignore_for_pom"`
	// Reason records which rule produced the classification, for
	// diagnostics only.
	Reason string `json:"reason,omitempty"`
}

// PageIdentity is the logical identification of an application view,
// independent of transient URL noise. Two identities with the same PageID
// are the same logical page across sessions.
type PageIdentity struct {
	PageID     string   `json:"page_id"`
	MenuRef    string   `json:"menu_ref,omitempty"`
	CompanyRef string   `json:"company_ref,omitempty"`
	Caption    string   `json:"caption"`
	Type       PageType `json:"type"`
	RoutePath  string   `json:"route_path,omitempty"`
	URL        string   `json:"url"`
}
