package adapter

// Chat transport surface. The transport (Telegram or a test double) turns
// platform updates into Events and renders Effects back to the user; the
// flow core never touches the chat SDK directly.

// EventType classifies an inbound chat update.
type EventType string

const (
	EventText     EventType = "text"
	EventPhoto    EventType = "photo"
	EventLocation EventType = "location"
	EventCallback EventType = "callback"
	EventCommand  EventType = "command"
)

// Event is one inbound user action, already normalized by the transport.
type Event struct {
	UserID    int64
	Username  string // contact handle, empty when the user has none
	FirstName string
	Type      EventType

	// Text carries message text for EventText, callback data for
	// EventCallback and raw arguments for EventCommand.
	Text string
	// Command is the bare command name ("lots", "cancel") for EventCommand.
	Command string
	// PhotoURI is the downloadable source of the largest photo size.
	PhotoURI string
	// Lat, Lon are set for EventLocation.
	Lat float64
	Lon float64
	// MessageID identifies the triggering message, used by delete effects.
	MessageID int
}

// EffectKind classifies an outbound side effect the engine asks for.
type EffectKind string

const (
	EffectPrompt        EffectKind = "prompt"
	EffectSticker       EffectKind = "sticker"
	EffectDeleteMessage EffectKind = "delete_message"
)

// Sticker sets the engine asks for by logical name; the transport owns the
// mapping to concrete sticker file IDs.
const (
	StickerGreeting = "greeting"
	StickerTada     = "tada"
)

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Effect is one outbound action. A Prompt may carry a one-time reply
// keyboard (Choices, one button per row), an inline keyboard (Buttons) or an
// instruction to drop the current reply keyboard.
type Effect struct {
	Kind           EffectKind
	Text           string
	Choices        []string
	Buttons        [][]Button
	RemoveKeyboard bool
	Sticker        string
	MessageID      int
}

// Prompt builds a plain text prompt effect.
func Prompt(text string) Effect {
	return Effect{Kind: EffectPrompt, Text: text}
}

// PromptChoices builds a prompt with a one-time reply keyboard.
func PromptChoices(text string, choices []string) Effect {
	return Effect{Kind: EffectPrompt, Text: text, Choices: choices}
}

// PromptButtons builds a prompt with an inline keyboard.
func PromptButtons(text string, rows [][]Button) Effect {
	return Effect{Kind: EffectPrompt, Text: text, Buttons: rows}
}

// ClosePrompt builds a prompt that also removes any open reply keyboard.
func ClosePrompt(text string) Effect {
	return Effect{Kind: EffectPrompt, Text: text, RemoveKeyboard: true}
}

// Sticker builds a sticker acknowledgment effect.
func Sticker(name string) Effect {
	return Effect{Kind: EffectSticker, Sticker: name}
}

// DeleteMessage builds an effect removing the given chat message.
func DeleteMessage(messageID int) Effect {
	return Effect{Kind: EffectDeleteMessage, MessageID: messageID}
}
