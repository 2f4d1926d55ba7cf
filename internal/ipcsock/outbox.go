package ipcsock

import "context"

// Outbox is satisfied by both Client and Compound, letting a worker publish
// without caring whether its downstream is a single hop or a fan-out.
type Outbox interface {
	Put(ctx context.Context, payload any) error
}
