package support

import "strings"

// Decision is the outcome of the escalation policy for one inbound message.
type Decision int

const (
	DecisionAutoReply Decision = iota
	DecisionEscalate
)

func (d Decision) String() string {
	if d == DecisionEscalate {
		return "escalate"
	}
	return "auto_reply"
}

// escalationPhrases are the fixed phrases that signal a desire to reach a
// human. Matching is substring-based and case-insensitive, anywhere in the
// message. Intentionally permissive: a false escalation costs an operator a
// glance, a missed one strands the user with the bot.
var escalationPhrases = []string{
	"speak to admin",
	"talk to human",
	"real person",
	"human support",
	"superadmin",
	"talk to someone",
	"speak to someone",
	"contact support",
	"need help from admin",
	"escalate",
	"manager",
	"supervisor",
}

// Decide returns the routing decision for an inbound user message. It is a
// pure function of its inputs: an explicit forward request always escalates,
// otherwise the lower-cased text is scanned for the escalation phrases.
func Decide(text string, explicitForward bool) Decision {
	if explicitForward {
		return DecisionEscalate
	}
	lower := strings.ToLower(text)
	for _, phrase := range escalationPhrases {
		if strings.Contains(lower, phrase) {
			return DecisionEscalate
		}
	}
	return DecisionAutoReply
}
