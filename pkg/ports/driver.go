package ports

import (
	"context"

	"github.com/aretw0/trawler/pkg/domain"
)

// Driver is the browser-control capability the interpreter drives.
//
// Lookup-based operations return an error matching domain.ErrElementNotFound
// when the selector does not resolve within the driver's bounded wait. Any
// other error (session crash, network failure, cancellation) is treated as
// unrecoverable and must not match it.
type Driver interface {
	// Navigate loads url in the active page.
	Navigate(ctx context.Context, url string) error

	// Write types text into the element matched by sel.
	Write(ctx context.Context, sel domain.Selector, text string) error

	// Read returns the text of the matched element (string), or the texts of
	// every match ([]string) when multiple is set.
	Read(ctx context.Context, sel domain.Selector, multiple bool) (any, error)

	// Click clicks the element matched by sel.
	Click(ctx context.Context, sel domain.Selector) error

	// Find waits for sel and returns how many elements matched.
	Find(ctx context.Context, sel domain.Selector, multiple bool) (int, error)
}
