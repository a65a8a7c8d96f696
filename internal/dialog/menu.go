package dialog

import "strings"

// MainMenuChoice is an entry of the main menu keyboard.
type MainMenuChoice int

const (
	MenuSearch MainMenuChoice = iota
	MenuToggleNotifications
	MenuRequestTomorrow
	MenuRequestData
	MenuDelete
)

var mainMenuCaptions = map[MainMenuChoice]string{
	MenuSearch:              "Straße auswählen/ändern",
	MenuToggleNotifications: "Benachrichtigungen ein-/ausschalten",
	MenuRequestTomorrow:     "Manuelle Abfrage der morgigen Abholung",
	MenuRequestData:         "Gespeicherte Daten abfragen",
	MenuDelete:              "Alle Daten löschen",
}

// Caption returns the button text shown for the choice.
func (c MainMenuChoice) Caption() string {
	return mainMenuCaptions[c]
}

// ParseMainMenuChoice matches a message text against the main menu captions.
// Surrounding whitespace is ignored, the match itself is case sensitive.
func ParseMainMenuChoice(text string) (MainMenuChoice, bool) {
	text = strings.TrimSpace(text)
	for choice, caption := range mainMenuCaptions {
		if text == caption {
			return choice, true
		}
	}
	return 0, false
}

// LocationChoice is an answer to the address confirmation keyboard.
type LocationChoice int

const (
	LocationCorrect LocationChoice = iota
	LocationNumberFalse
	LocationAllFalse
)

var locationCaptions = map[LocationChoice]string{
	LocationCorrect:     "Ja, beides stimmt!",
	LocationNumberFalse: "Nein, die Hausnummer stimmt nicht!",
	LocationAllFalse:    "Nein, beides ist falsch!",
}

func (c LocationChoice) Caption() string {
	return locationCaptions[c]
}

// ParseLocationChoice matches a message text against the confirmation captions.
func ParseLocationChoice(text string) (LocationChoice, bool) {
	text = strings.TrimSpace(text)
	for choice, caption := range locationCaptions {
		if text == caption {
			return choice, true
		}
	}
	return 0, false
}

const (
	captionYes            = "Ja"
	captionNo             = "Nein"
	captionNoStreetListed = "Meine Straße ist nicht dabei"
	captionEnterManually  = "Manuell eingeben"
	captionFindAuto       = "Automatisch finden"
)
