package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/steelhand/steelhand/internal/webhook"
)

// SendDocumentInput is the sendDocument tool input.
type SendDocumentInput struct {
	Title     string `json:"title" jsonschema_description:"Document title shown to the customer"`
	URL       string `json:"url" jsonschema_description:"Link to the document"`
	Recipient string `json:"recipient,omitempty" jsonschema_description:"Optional recipient identifier"`
}

// SendDocumentOutput carries the sentence the model relays to the user.
type SendDocumentOutput struct {
	Message string `json:"message"`
}

// SendDocument hands a document off to the delivery service and
// translates the outcome into a user-facing sentence. Delivery
// failures are reported in the message, never as a Go error, so the
// model always has something to tell the user.
func (k *Kit) SendDocument(ctx *ai.ToolContext, input SendDocumentInput) (SendDocumentOutput, error) {
	k.logger.Info("sendDocument called",
		"title", input.Title, "url", input.URL, "recipient", input.Recipient)

	n := webhook.NewNotification(input.Title, input.URL, input.Recipient)
	result := k.dispatcher.Send(ctx, n)

	return SendDocumentOutput{Message: deliveryMessage(result)}, nil
}

// deliveryMessage renders a dispatch result as the sentence shown to
// the customer.
func deliveryMessage(r webhook.Result) string {
	switch r.Outcome {
	case webhook.Delivered:
		return fmt.Sprintf("Document '%s' has been sent successfully.", r.Title)
	case webhook.TimedOut:
		return "Failed to send document: the request timed out."
	case webhook.Unreachable:
		return "Failed to send document: could not reach the delivery service."
	default:
		return fmt.Sprintf("Failed to send document: received status %d.", r.StatusCode)
	}
}
