package port

import "context"

// Mailer is the narrow "send mail" capability the core consumes. Delivery is
// owned by the platform's notification service; failures are reported but the
// caller decides whether they matter.
type Mailer interface {
	Send(ctx context.Context, to, subject, template string, variables map[string]string) error
}
