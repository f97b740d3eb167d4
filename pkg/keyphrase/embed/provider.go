package embed

import (
	"context"
	"errors"
	"fmt"
)

// ErrBatchMismatch is returned when a provider yields a different number of
// vectors than it was given texts.
var ErrBatchMismatch = errors.New("embed: result count does not match batch size")

// Provider maps texts to dense vectors.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, batch []string) ([][]float32, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, batch []string) ([][]float32, error)

// Embed implements Provider.
func (f ProviderFunc) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	return f(ctx, batch)
}

// One embeds a single text.
func One(ctx context.Context, p Provider, text string) ([]float32, error) {
	vecs, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d for 1", ErrBatchMismatch, len(vecs))
	}
	return vecs[0], nil
}

func checkBatch(batch []string, vecs [][]float32) error {
	if len(vecs) != len(batch) {
		return fmt.Errorf("%w: got %d for %d", ErrBatchMismatch, len(vecs), len(batch))
	}
	return nil
}
