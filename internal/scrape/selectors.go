package scrape

// CSS selectors for the scheduling viewer. The viewer is a single fixed
// layout; these are the load-bearing anchors of the whole extraction and
// the first place to look when the vendor ships a UI change.
const (
	// Login page.
	selUsernameInput = `[name='txtUserName']`
	selPasswordInput = `[name='txtUserPass']`
	selLoginButton   = `[name='submit']`

	// Post-login selection screen: the "Viewer" application tile.
	selViewerTile = `#SelectionScreen .ApplicationElement`

	// Viewer top bar: "Me" button (opens the view picker sidebar).
	selMeButton = `#ContextRibbon .ContextRibbonItem.limit-width-large.view`

	// Sidebar dialog: schedule view links.
	selViewLink = `.Dialog.isTop.ViewOptions a.view-link`

	// Filter Personnel dropdown button and its parts.
	selFilterPersonnelBtn = `#TopBar .flex-between.flex-1 > .flex:nth-child(1) > div:nth-child(2) > div:nth-child(1)`
	selFilterSearchInput  = `.menu.open .search-input`
	selFilterCheckboxes   = `.menu.open .scrollable .pointer.listitem .fa-checkbox`

	// A neutral area to click to close open dropdowns.
	selCloseDropdown = `.spacer > div:nth-child(1)`

	// Month navigation: right arrow advances one month.
	selNextMonthArrow = `#ContextRibbon i.fa:nth-child(2)`

	// Settings dropdown (gear icon) and its "Show Times" checkbox.
	selSettingsBtn       = `#TopBar .flex-between.flex-1 > .flex:nth-child(1) > div:nth-child(1)`
	selShowTimesCheckbox = `#show_times`

	// Schedule grid container. The container's parent reports zero size
	// with overflow visible, so presence checks must not require
	// visibility.
	selGridContainer = `.StandardContainer .WeekContainer`
)
