package billing

import (
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
)

// Alphanumeric characters for purchase id suffixes.
const purchaseAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const purchaseSuffixLength = 8

// Numberer issues purchase ids and reports the current time for invoice numbering.
type Numberer struct {
	now    func() time.Time
	suffix func() string
}

// NewNumberer creates a Numberer using the wall clock.
func NewNumberer() (*Numberer, error) {
	suffix, err := nanoid.CustomASCII(purchaseAlphabet, purchaseSuffixLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create purchase id generator: %w", err)
	}
	return &Numberer{now: time.Now, suffix: suffix}, nil
}

// Now returns the current time.
func (n *Numberer) Now() time.Time {
	return n.now()
}

// Year returns the calendar year invoice numbers are issued in.
func (n *Numberer) Year() int {
	return n.now().Year()
}

// PurchaseID returns a fresh id such as PUR-1760000000000-7Q2K9XZA.
func (n *Numberer) PurchaseID() string {
	return fmt.Sprintf("PUR-%d-%s", n.now().UnixMilli(), n.suffix())
}
