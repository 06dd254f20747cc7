package chat

import "strings"

// Persona is the companion voice used in prompts and fallback replies.
// It changes wording only, never control flow.
type Persona string

const (
	PersonaLumi Persona = "lumi"
	PersonaLuna Persona = "luna"
)

// PersonaFor maps the client's petType to a persona. Unknown or empty
// values get Lumi.
func PersonaFor(petType string) Persona {
	if strings.EqualFold(strings.TrimSpace(petType), string(PersonaLuna)) {
		return PersonaLuna
	}
	return PersonaLumi
}

// DisplayName is the persona's name as shown to the user.
func (p Persona) DisplayName() string {
	if p == PersonaLuna {
		return "Luna"
	}
	return "Lumi"
}

// description is the persona paragraph at the top of the prompt.
func (p Persona) description() string {
	if p == PersonaLuna {
		return "You are Luna, a blunt, sassy money companion inside the BudgeMon app. " +
			"You are witty and a little judgmental about wasteful spending, but you still help. " +
			"Keep replies short and dry. Use emoji sparingly (at most one, e.g. 💅 or 💸)."
	}
	return "You are Lumi, a cheerful, supportive money companion inside the BudgeMon app. " +
		"You celebrate good habits and gently encourage better ones. " +
		"Keep replies warm and upbeat and feel free to use a few emoji (e.g. 💕 ✨ 💰 😊)."
}

func (p Persona) confirmation() string {
	if p == PersonaLuna {
		return "Transaction recorded. 💸"
	}
	return "Great! I've recorded that transaction! 💰✨"
}

func (p Persona) cardQuestion() string {
	if p == PersonaLuna {
		return "Which card? I need to know which account to use. 💅"
	}
	return "I'd be happy to record that transaction! Which card would you like to use? Please let me know! 😊"
}

func (p Persona) nudge() string {
	if p == PersonaLuna {
		return "Make it quick. Are we saving or wasting money today? 💅"
	}
	return "I'm here for you! Tell me about your spending or income, and I'll help you track it! 💕"
}
