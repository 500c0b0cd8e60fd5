package tickets

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// codeAttempts bounds the short-code retry loop before falling back to a UUID.
const codeAttempts = 5

// CodeChecker reports whether a ticket code is already taken.
type CodeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// CodeGenerator produces opaque ticket codes: 8 random bytes as uppercase
// hex, retried against the store a few times, then a dashless uppercase
// UUID so generation always terminates. The store's unique constraint on
// code remains the final word.
type CodeGenerator struct {
	store CodeChecker
}

// NewCodeGenerator creates a code generator backed by the given store.
func NewCodeGenerator(store CodeChecker) *CodeGenerator {
	return &CodeGenerator{store: store}
}

// Generate returns a code not currently present in the store.
func (g *CodeGenerator) Generate(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		b := make([]byte, 8)
		if _, err := rand.Read(b); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		code := strings.ToUpper(hex.EncodeToString(b))
		exists, err := g.store.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")), nil
}

// NormalizeCode trims and uppercases a scanned code before lookup.
func NormalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
