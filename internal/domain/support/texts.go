package support

// Canned assistant copy. These strings are part of the product surface; the
// widget and operator console render them verbatim.

// WelcomeMessage is the synthetic first bot message appended when a
// conversation is created.
const WelcomeMessage = "👋 Hello! I'm ConnectHub's support assistant. How can I help you today?\n\n" +
	"I can help with:\n" +
	"- Platform navigation\n" +
	"- Registration questions\n" +
	"- Wallet & deposits\n" +
	"- Job and product listings\n\n" +
	"If you need to speak with a human, just type **'talk to admin'**."

// ForwardAcknowledgement is returned when the caller explicitly requested a
// forward to the support team.
const ForwardAcknowledgement = "I've forwarded your request to our support team. " +
	"A superadmin will respond to you shortly. Thank you for your patience!"

// EscalationAcknowledgement is returned when the escalation policy matched a
// phrase in the message text.
const EscalationAcknowledgement = "I understand you'd like to speak with our support team directly. " +
	"I've notified a superadmin who will respond to you as soon as possible. " +
	"In the meantime, is there anything else I can help you with?"

// EmptyCompletionFallback is persisted when the gateway answered but returned
// no usable text.
const EmptyCompletionFallback = "I'm sorry, I couldn't process your request. " +
	"Please try again or type 'talk to admin' to speak with support."

// FailureFallback is persisted when the gateway call failed outright, so the
// conversation always has a visible next turn.
const FailureFallback = "I'm having trouble processing your request right now. " +
	"Please try again or type 'talk to admin' to speak with our support team."

// SystemPrompt describes the platform to the gateway model.
const SystemPrompt = `You are a helpful support assistant for ConnectHub, a platform that connects companies with clients.

About ConnectHub:
- Companies can register and post jobs and products
- Users (clients) can browse and express interest in products/jobs
- Company registration requires a UGX 50,000 subscription fee
- Companies have virtual wallets where they can deposit money via mobile money to +256740327473
- The superadmin approves company registrations and manages the platform

You should:
- Answer questions about how the platform works
- Help with common issues like registration, browsing, deposits
- Be friendly and professional
- If you cannot help or the user specifically asks to speak with a human/admin, suggest forwarding to the superadmin
- Keep responses concise but helpful

If the user asks to talk to an admin or needs specialized help you cannot provide, tell them to type "talk to admin" to be connected with support.`
