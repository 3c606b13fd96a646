package shortlink

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Alphabet is the URL-safe character set slugs are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	DefaultLength      = 6
	MinLength          = 5
	MaxLength          = 10
	DefaultMaxAttempts = 32

	// bytes at or above this bound are discarded so every symbol is equally likely
	rejectionBound = 256 - (256 % len(Alphabet))
)

var ErrSlugSpaceExhausted = errors.New("shortlink: slug space exhausted")

// Checker reports whether a slug is already persisted.
type Checker interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, slug string) (bool, error)

func (f CheckerFunc) SlugExists(ctx context.Context, slug string) (bool, error) {
	return f(ctx, slug)
}

// Recorder receives generation telemetry. *metrics.DomainMetrics satisfies it.
type Recorder interface {
	ObserveSlugAttempts(attempts int)
	IncSlugExhausted()
}

type Options struct {
	Length      int
	MaxAttempts int
	// Rand defaults to crypto/rand.Reader.
	Rand     io.Reader
	Recorder Recorder
}

type Generator struct {
	length      int
	maxAttempts int
	rand        io.Reader
	recorder    Recorder
}

func NewGenerator(opts Options) (*Generator, error) {
	if opts.Length == 0 {
		opts.Length = DefaultLength
	}
	if opts.Length < MinLength || opts.Length > MaxLength {
		return nil, fmt.Errorf("slug length must be between %d and %d, got %d", MinLength, MaxLength, opts.Length)
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	return &Generator{
		length:      opts.Length,
		maxAttempts: opts.MaxAttempts,
		rand:        opts.Rand,
		recorder:    opts.Recorder,
	}, nil
}

// Length returns the configured slug length.
func (g *Generator) Length() int {
	return g.length
}

// Candidate draws one random slug without checking for collisions.
func (g *Generator) Candidate() (string, error) {
	out := make([]byte, 0, g.length)
	buf := make([]byte, g.length*2)
	for len(out) < g.length {
		if _, err := io.ReadFull(g.rand, buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectionBound {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == g.length {
				break
			}
		}
	}
	return string(out), nil
}

// Generate draws candidates until checker reports one as unused. It gives up
// with ErrSlugSpaceExhausted after the configured number of attempts.
func (g *Generator) Generate(ctx context.Context, checker Checker) (string, error) {
	if checker == nil {
		return "", errors.New("shortlink: checker is required")
	}
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := g.Candidate()
		if err != nil {
			return "", err
		}
		exists, err := checker.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !exists {
			if g.recorder != nil {
				g.recorder.ObserveSlugAttempts(attempt)
			}
			return candidate, nil
		}
	}
	if g.recorder != nil {
		g.recorder.IncSlugExhausted()
	}
	return "", ErrSlugSpaceExhausted
}

// Valid reports whether value could have been produced by a generator.
func Valid(value string) bool {
	if len(value) < MinLength || len(value) > MaxLength {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
