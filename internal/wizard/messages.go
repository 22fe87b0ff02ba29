package wizard

import (
	"fmt"
	"strings"

	"merchant-onboarding/internal/onboarding"
)

var missingTexts = map[string][2]string{
	"sk": {"Chýbajúce údaje", "Vyplňte povinné polia: %s"},
	"en": {"Missing information", "Please fill in the required fields: %s"},
}

func missingNotice(locale string, keys []string) onboarding.Notice {
	texts, ok := missingTexts[locale]
	if !ok {
		texts = missingTexts["en"]
	}
	return onboarding.ErrorNotice(texts[0], fmt.Sprintf(texts[1], strings.Join(keys, ", ")))
}
