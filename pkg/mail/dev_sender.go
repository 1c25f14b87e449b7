package mail

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DevSender logs messages instead of delivering them. Used in local
// development where no mail provider is configured.
type DevSender struct {
	logger *logrus.Logger
}

// NewDevSender creates a sender that writes messages to the log
func NewDevSender(logger *logrus.Logger) *DevSender {
	return &DevSender{logger: logger}
}

// Send logs the message and returns a synthetic message ID
func (d *DevSender) Send(msg Message) (string, error) {
	messageID := fmt.Sprintf("dev-%d", time.Now().UnixMicro())

	d.logger.WithFields(logrus.Fields{
		"to":         msg.To,
		"subject":    msg.Subject,
		"message_id": messageID,
	}).Info("Dev mail sender: message logged instead of sent")
	d.logger.Debugf("Mail body:\n%s", msg.Body)

	return messageID, nil
}

// GetName returns the name of this mail gateway
func (d *DevSender) GetName() string {
	return "Dev Mail Sender"
}
