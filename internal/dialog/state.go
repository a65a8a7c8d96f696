// Package dialog implements the per-chat dialogue state machine that walks a
// user through registering a street address for waste-collection reminders.
package dialog

// State represents one state of the dialogue state machine.
type State string

const (
	// StateStart greets a chat that has no dialogue in progress.
	StateStart State = "start"
	// StateMainMenu waits for one of the main menu choices.
	StateMainMenu State = "main_menu"
	// StateSearch waits for a shared location or the wish to type the address.
	StateSearch State = "search"
	// StateSearchManually waits for a typed street name to search for.
	StateSearchManually State = "search_manually"
	// StateSearchManuallyKeyboard waits for the user to pick a street candidate.
	StateSearchManuallyKeyboard State = "search_manually_keyboard"
	// StateSearchManuallyHouseNumber waits for a typed house number.
	StateSearchManuallyHouseNumber State = "search_manually_house_number"
	// StateSearchManuallyHouseNumberKeyboard waits for the house number confirmation.
	StateSearchManuallyHouseNumberKeyboard State = "search_manually_house_number_keyboard"
	// StateSearchAskIfOk waits for confirmation of the geocoded address.
	StateSearchAskIfOk State = "search_ask_if_ok"
	// StateRemove waits for confirmation before deleting the user's data.
	StateRemove State = "remove"
)

var knownStates = map[State]struct{}{
	StateStart:                             {},
	StateMainMenu:                          {},
	StateSearch:                            {},
	StateSearchManually:                    {},
	StateSearchManuallyKeyboard:            {},
	StateSearchManuallyHouseNumber:         {},
	StateSearchManuallyHouseNumberKeyboard: {},
	StateSearchAskIfOk:                     {},
	StateRemove:                            {},
}

// Known reports whether s is a member of the defined state set.
func Known(s State) bool {
	_, ok := knownStates[s]
	return ok
}

// Session keys written and read across dialogue steps.
const (
	keyLocation     = "location"
	keyStreetID     = "street_id"
	keyStreetNumber = "street_number"
	keyStreetSearch = "street_search"
)

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe state transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}
