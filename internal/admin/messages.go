package admin

type messageKey int

const (
	statusChangedTitle messageKey = iota
	statusChangedMessage
	deletedTitle
	deletedMessage
)

var messages = map[string]map[messageKey]string{
	"sk": {
		statusChangedTitle:   "Zmena stavu",
		statusChangedMessage: "Počet zmlúv so zmeneným stavom: %d (nový stav: %s).",
		deletedTitle:         "Zmluvy vymazané",
		deletedMessage:       "Počet vymazaných zmlúv: %d.",
	},
	"en": {
		statusChangedTitle:   "Status changed",
		statusChangedMessage: "%d contract(s) moved to %s.",
		deletedTitle:         "Contracts deleted",
		deletedMessage:       "%d contract(s) deleted.",
	},
}

// text looks up k in the service locale, falling back to English.
func (s *Service) text(k messageKey) string {
	if m, ok := messages[s.locale]; ok {
		return m[k]
	}
	return messages["en"][k]
}
