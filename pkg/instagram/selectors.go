package instagram

// Selectors for the logged-in web UI. Instagram rotates its generated class
// names between releases, so each concern keeps an ordered list of
// candidates from most to least stable.

const (
	// DialogSelector matches the modal overlay hosting the followers list
	DialogSelector = `div[role="dialog"]`

	// FollowerRowSelector matches the handle text of each rendered row,
	// relative to the scrollable panel
	FollowerRowSelector = `a[role="link"][href*="/"] span`

	// FollowersLinkSelector matches the profile header link opening the modal
	FollowersLinkSelector = `a[href$="/followers/"], a[href*="/followers/"]`

	// FollowersLinkFallback is the second header stat, used when the link has no href
	FollowersLinkFallback = `header section ul li:nth-child(2)`

	// MetaDescriptionSelector matches the page-level description carrying "N Followers"
	MetaDescriptionSelector = `meta[name="description"]`

	// JSONLDSelector matches structured data blocks
	JSONLDSelector = `script[type="application/ld+json"]`

	UsernameInputSelector = `input[name="username"]`
	PasswordInputSelector = `input[name="password"]`
	SubmitButtonSelector  = `button[type="submit"]`
	ButtonSelector        = `button, div[role="button"]`

	// ReservedMarker starts decorative rows (hashtags) that are not accounts
	ReservedMarker = "#"
)

// PanelLayout names one known shape of the scrollable followers region
type PanelLayout struct {
	Name     string
	Selector string
}

// PanelSelectors are the known layouts of the scrollable region inside the
// followers dialog, in priority order. New layouts are appended here.
var PanelSelectors = []PanelLayout{
	{"dialog-overflow", `div[role="dialog"] div[style*="overflow-y: auto"]`},
	{"dialog-aano", `div[role="dialog"] div._aano`},
	{"dialog-x9f619", `div[role="dialog"] div.x9f619`},
	{"dialog-x6nl9eh", `div[role="dialog"] div.x6nl9eh`},
	{"dialog-x6nl9eh-full", `div[role="dialog"] div.x6nl9eh.x1a5l9x9.x7vuprf.x1mg3h75.x1lliihq.x1iyjqo2.xs83m0k.xz65tgg.x1rife3k.x1n2onr6`},
}
