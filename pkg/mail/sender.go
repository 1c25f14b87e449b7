package mail

// Message represents a single transactional email
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender abstracts the email delivery channel so services can be
// tested without a live mail provider
type Sender interface {
	// Send delivers a single message and returns the provider's message ID
	Send(msg Message) (string, error)

	// GetName returns the name of this mail gateway
	GetName() string
}
