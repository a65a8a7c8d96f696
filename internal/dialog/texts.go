package dialog

// User-facing message texts. The bot serves the Karlsruhe collection calendar,
// so the texts are German.
const (
	textHello           = "Hallo"
	textAskWhatUserWant = "Was möchtest du tun?"

	textAskSearchMode = "Willst du deine Adresse selbst eingeben oder willst du sie automatisch finden lassen?"

	textEnterStreetName     = "Bitte gib den Namen deiner Straße ein, um Vorschläge anzuzeigen:"
	textConfirmOneOfStreets = "Ist deine Straße hier aufgeführt?"
	textSearchCouldNotFind  = "Konnte deine Straße nicht in der Datenbank finden. Bitte gib den Namen deiner Straße ein um Vorschläge anzuzeigen:"
	textAskForManualEntry   = "Konnte deinen Standort nicht zuordnen, bitte gib deine Adresse manuell ein."
	textStreetSearchFailed  = "Konnte keine Verbindung mit der Datenbank aufbauen, versuche es später nochmal."
	textHelp                = "Versuche den vollständigen Namen deiner Straße anzugeben. Ansonsten stelle sicher, dass deine Straße im Abfuhrkalender von Karlsruhe aufgeführt ist.\n\nGib deine Straße ein:"

	textConfirmStreetAndNumber = "Ist das die korrekte Straße und Hausnummer?"
	textHouseNumber            = "Bitte gib deine Hausnummer an (die Entsorgungstermine sind abhängig von der Hausnummer)."
	textEnterHouseNumber       = "Bitte gib die Hausnummer an, die du verwenden willst:"
	textHouseNumberQuestion1   = "Ist das deine Hausnummer"
	textHouseNumberQuestion2   = "Stelle sicher, dass die Nummer korrekt ist, da sonst möglicherweise keine Entsorgungstermine gefunden werden können."

	textSaveLocation       = "Speichere deinen Standort für die Abfrage der Entsorgungstermine."
	textAddressAdded       = "Adresse hinzugefügt!"
	textAddressAddFailed   = "Konnte Adresse nicht hinzufügen, versuche es später nochmal!"
	textNotificationsOn    = "Benachrichtigungen aktiviert"
	textNotificationsOff   = "Benachrichtigungen deaktiviert"
	textNotificationNoUser = "Konnte Benachrichtigungsstatus nicht finden, hast du deine Straße und Hausnummer schon hinzugefügt?"
	textNotificationFailed = "Konnte Benachrichtigungsstatus nicht ändern, versuche es später nochmal!"
	textUserDataNotFound   = "Konnte keine Daten finden, hast du deine Straße schon hinzugefügt?"

	textDeletionQuestion = "Willst du all deine Daten löschen?"
	textDeleted          = "Gelöscht!"
	textNothingToDelete  = "Konnte deine Daten nicht finden, hast du deine Daten schon gelöscht?"
	textDeleteFailed     = "Konnte deine Daten nicht löschen, versuche es später nochmal!"
	textNothingHappens   = "Ok, nichts passiert!"

	textNoPickupsTomorrow = "Morgen werden keine Abfälle abgeholt."
	textPickupsTomorrow   = "Morgen wird abgeholt:"
)
