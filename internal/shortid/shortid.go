// Package shortid issues short, human-transcribable identifiers and inserts
// records under them without ever reusing an id that is already taken.
//
// The alphabet leaves out characters that are easy to confuse when read
// aloud or retyped (0/O, 1/l/I, 2/Z, 5/S and friends).
package shortid

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Alphabet is the exact set of characters an id is drawn from.
const Alphabet = "346789ABCDEFGHJKLMNPQRTUVWXYabcdefghijkmnpqrtwxyz"

// DefaultSize is the id length used when the caller passes size <= 0.
const DefaultSize = 8

// Generator draws ids from a random source. The zero value is not usable;
// build one with NewGenerator or use the package-level Generate.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator backed by src. A nil src means a
// ChaCha8 source seeded from the runtime.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		return &Generator{}
	}
	return &Generator{rnd: rand.New(src)}
}

// Generate returns an id of size characters, each chosen uniformly from
// Alphabet. It never fails.
func (g *Generator) Generate(size int) string {
	if size <= 0 {
		size = DefaultSize
	}

	var b strings.Builder
	b.Grow(size)

	if g.rnd == nil {
		for range size {
			b.WriteByte(Alphabet[rand.IntN(len(Alphabet))])
		}
		return b.String()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for range size {
		b.WriteByte(Alphabet[g.rnd.IntN(len(Alphabet))])
	}
	return b.String()
}

// Func returns a size-bound generation function, the shape InsertUnique wants.
func (g *Generator) Func(size int) func() string {
	return func() string { return g.Generate(size) }
}

var defaultGenerator = NewGenerator(nil)

// Generate returns an id of size characters from the shared generator.
func Generate(size int) string {
	return defaultGenerator.Generate(size)
}

// Valid reports whether s is non-empty and made only of Alphabet characters.
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
