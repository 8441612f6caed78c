// File: internal/platform/dynamics/dynamics.go

// Package dynamics implements the platform capability set for
// Dynamics 365 Finance and Operations style applications: forms carry
// a data-dyn-controlname identity attribute, routes are addressed by
// mi/cmp query parameters, and sign-in detours through the Microsoft
// identity stack.
package dynamics

import (
	"strings"

	"github.com/xkilldash9x/scribe-cli/api/schemas"
	"github.com/xkilldash9x/scribe-cli/internal/platform"
)

// Platform implements platform.Capabilities for Dynamics 365 F&O.
type Platform struct {
	profile platform.Profile
}

// New returns the built-in Dynamics 365 capability set.
func New() *Platform {
	return &Platform{profile: platform.Profile{
		StableAttr:  "data-dyn-controlname",
		TestIDAttrs: []string{"data-testid", "data-test-id"},

		NavMarkers: []string{
			"navpane", "modulespane", "modulesflyout", "navgroup",
			"navigationmenu", "treeview", "areapage",
		},
		ExpandNavControls: []string{"navpaneexpand", "showmodulespane", "navbarexpand"},
		ExpandNavLabels:   []string{"expand the navigation pane", "show modules", "open navigation"},

		Patterns: []platform.PagePattern{
			{Match: "defaultdashboard", PageID: "Dashboard", PageName: "Default dashboard", Type: schemas.PageTypeWorkspace},
			{Match: "salestablelistpage", PageID: "AllSalesOrders", PageName: "All sales orders", Type: schemas.PageTypeList},
			{Match: "all sales orders", PageID: "AllSalesOrders", PageName: "All sales orders", Type: schemas.PageTypeList},
			{Match: "salestable", PageID: "SalesOrderDetails", PageName: "Sales order details", Type: schemas.PageTypeDetails},
			{Match: "custtablelistpage", PageID: "AllCustomers", PageName: "All customers", Type: schemas.PageTypeList},
			{Match: "all customers", PageID: "AllCustomers", PageName: "All customers", Type: schemas.PageTypeList},
			{Match: "custtable", PageID: "CustomerDetails", PageName: "Customer details", Type: schemas.PageTypeDetails},
			{Match: "purchtablelistpage", PageID: "AllPurchaseOrders", PageName: "All purchase orders", Type: schemas.PageTypeList},
			{Match: "purchtable", PageID: "PurchaseOrderDetails", PageName: "Purchase order details", Type: schemas.PageTypeDetails},
			{Match: "vendtablelistpage", PageID: "AllVendors", PageName: "All vendors", Type: schemas.PageTypeList},
			{Match: "vendtable", PageID: "VendorDetails", PageName: "Vendor details", Type: schemas.PageTypeDetails},
			{Match: "ecoresproductlistpage", PageID: "ReleasedProducts", PageName: "Released products", Type: schemas.PageTypeList},
		},

		IdPHosts: []string{
			"login.microsoftonline.com", "login.windows.net",
			"login.live.com", "login.microsoft.com", "sts.windows.net",
		},
		RedirectTitles: []string{"redirecting", "please wait", "working..."},
		SignInTitles:   []string{"sign in", "sign-in", "log in to"},

		MenuParam:    "mi",
		CompanyParam: "cmp",

		CaptionSelectors: []string{
			`[data-dyn-controlname="FormCaption"]`,
			".formCaption",
			"h1",
		},
		TitleNoise: []string{
			"finance and operations", "dynamics 365", "microsoft dynamics",
		},

		HeavyActions: []string{
			"save", "new", "delete", "confirm", "yes", "no", "ok",
			"post", "apply", "submit", "create", "remove", "invoice",
		},
	}}
}

func (p *Platform) Name() string { return "dynamics" }

func (p *Platform) Profile() *platform.Profile { return &p.profile }

// InferType maps route keywords to a page pattern when neither the
// pattern table nor the breadcrumbs recognized the page. Dynamics menu
// items encode the form style in their name, so the mi parameter (and
// failing that, the title) is usually enough.
func (p *Platform) InferType(rawURL, title string) schemas.PageType {
	probe := strings.ToLower(rawURL + " " + title)
	switch {
	case strings.Contains(probe, "workspace"):
		return schemas.PageTypeWorkspace
	case strings.Contains(probe, "dialog"):
		return schemas.PageTypeDialog
	case strings.Contains(probe, "parameters"), strings.Contains(probe, "setup"):
		return schemas.PageTypeTOC
	case strings.Contains(probe, "listpage"), strings.Contains(probe, "list"):
		return schemas.PageTypeList
	default:
		return schemas.PageTypeDetails
	}
}

// CleanTitle strips product branding and separator debris from a
// window title, leaving the form caption. Noise matching is ASCII
// case-insensitive with offsets computed on a length-preserving
// lowercase copy, so multibyte captions are never mangled.
func (p *Platform) CleanTitle(title string) string {
	cleaned := title
	for _, noise := range p.profile.TitleNoise {
		for {
			idx := strings.Index(asciiLower(cleaned), noise)
			if idx < 0 {
				break
			}
			cleaned = cleaned[:idx] + cleaned[idx+len(noise):]
		}
	}
	return strings.Trim(strings.TrimSpace(cleaned), "-|: ·")
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// IsHeavyAction reports whether a resolved control name belongs to the
// commit/confirm vocabulary.
func (p *Platform) IsHeavyAction(name string) bool {
	return platform.MatchesAction(name, p.profile.HeavyActions)
}
