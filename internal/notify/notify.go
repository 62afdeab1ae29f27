package notify

import (
	"context"
	"fmt"
	"strings"
)

// SubjectReviewSubmitted is the subject of the operator notification.
const SubjectReviewSubmitted = "New Review Submitted (Pending Approval)"

// Message is one plain-text notification.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a Message through one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// ReviewSubmitted builds the operator message for a newly submitted review.
func ReviewSubmitted(to, name, email, body, moderationLink string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A new review has been submitted by: %s\n\n", name)
	fmt.Fprintf(&b, "Email: %s\n\n", email)
	fmt.Fprintf(&b, "Review: %s\n\n", body)
	fmt.Fprintf(&b, "Approve here: %s", moderationLink)

	return Message{
		To:      to,
		Subject: SubjectReviewSubmitted,
		Body:    b.String(),
	}
}
