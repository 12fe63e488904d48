package directory

import (
	"context"
	"errors"
	"time"

	"github.com/quayside/registry-auth/auth"
)

// WithTimeout bounds every lookup of next with timeout.
// An expired lookup fails closed with auth.ErrUpstreamUnavailable
// instead of silently downgrading the request to anonymous.
func WithTimeout(next Directory, timeout time.Duration) Directory {
	return timeoutDirectory{
		next:    next,
		timeout: timeout,
	}
}

type timeoutDirectory struct {
	next    Directory
	timeout time.Duration
}

func (d timeoutDirectory) FindUser(ctx context.Context, username string) (User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	user, ok, err := d.next.FindUser(ctx, username)

	return user, ok, mapDeadline(err)
}

func (d timeoutDirectory) FindNamespace(ctx context.Context, name string) (Namespace, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	namespace, ok, err := d.next.FindNamespace(ctx, name)

	return namespace, ok, mapDeadline(err)
}

func (d timeoutDirectory) MembershipsOf(ctx context.Context, userID string) ([]Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	memberships, err := d.next.MembershipsOf(ctx, userID)

	return memberships, mapDeadline(err)
}

func mapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return auth.ErrUpstreamUnavailable
	}

	return err
}
