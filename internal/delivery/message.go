package delivery

import "pagegist/internal/domain"

type Kind string

const (
	KindShowLoading   Kind = "show-loading"
	KindUpdateLoading Kind = "update-loading"
	KindHideLoading   Kind = "hide-loading"
	KindShowResult    Kind = "show-result"
)

// Message is a display instruction. Percent is only meaningful for
// update-loading, Text is unused by hide-loading.
type Message struct {
	Kind    Kind
	Text    string
	Percent int
}

func ShowLoading(text string) Message {
	return Message{Kind: KindShowLoading, Text: text}
}

func UpdateLoading(text string, percent int) Message {
	return Message{Kind: KindUpdateLoading, Text: text, Percent: percent}
}

func HideLoading() Message {
	return Message{Kind: KindHideLoading}
}

func ShowResult(text string) Message {
	return Message{Kind: KindShowResult, Text: text}
}

// Ack confirms a delivered message.
type Ack struct {
	Target   domain.Target
	Kind     Kind
	Attempts int
}
