package onboarding

// Notice variants.
const (
	NoticeDefault     = "default"
	NoticeDestructive = "destructive"
)

// Notice is a short transient message for the user: a toast with a title
// and a descriptive body.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// InfoNotice returns a default notice.
func InfoNotice(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeDefault}
}

// ErrorNotice returns a destructive notice.
func ErrorNotice(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: NoticeDestructive}
}
