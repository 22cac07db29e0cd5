package models

// Step is the current phase of the exchange lifecycle.
type Step string

const (
	StepSetup      Step = "SETUP"
	StepGenerating Step = "GENERATING"
	StepReveal     Step = "REVEAL"
)

// Valid reports whether s is one of the known lifecycle steps.
func (s Step) Valid() bool {
	switch s {
	case StepSetup, StepGenerating, StepReveal:
		return true
	}
	return false
}

// Participant represents a person registered for the gift exchange.
// PreferredReceiver is a hint collected at registration; the matcher
// does not currently honor it.
type Participant struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Wishlist          string `json:"wishlist"`
	PreferredReceiver string `json:"preferredReceiver,omitempty"`
}

// Assignment is one directed edge of the gift cycle: Giver buys for Receiver.
type Assignment struct {
	Giver    Participant `json:"giver"`
	Receiver Participant `json:"receiver"`
	Revealed bool        `json:"revealed"`
}

// GiftIdea is a single suggestion returned by the suggestion service.
type GiftIdea struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceRange  string `json:"priceRange"`
}
