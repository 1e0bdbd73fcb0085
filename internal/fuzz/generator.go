// Package fuzz generates random, syntactically valid minipy source for the
// property-based tests in pkg. It emits properly nested, two-space
// indented programs rather than flat runs of tokens: this grammar's
// validity depends on block structure, which token shuffling can't
// produce.
package fuzz

import (
	"fmt"
	"math/rand"
	"strings"
)

// RandomProgram returns a random program of roughly size top-level
// statements, with if-blocks nested up to maxDepth deep. Every emitted
// line obeys the two-space indent rule, so the result always lexes to a
// balanced Indent/Dedent stream.
func RandomProgram(r *rand.Rand, size, maxDepth int) string {
	var b strings.Builder
	writeBlock(&b, r, 0, size, maxDepth)
	return b.String()
}

func writeBlock(b *strings.Builder, r *rand.Rand, depth, size, maxDepth int) {
	pad := strings.Repeat("  ", depth)
	for i := 0; i < size; i++ {
		if depth < maxDepth && r.Intn(3) == 0 {
			fmt.Fprintf(b, "%sif %s:\n", pad, randomCondition(r))
			writeBlock(b, r, depth+1, 1+r.Intn(2), maxDepth)
			if r.Intn(2) == 0 {
				fmt.Fprintf(b, "%selse:\n", pad)
				writeBlock(b, r, depth+1, 1+r.Intn(2), maxDepth)
			}
			continue
		}
		fmt.Fprintf(b, "%s%s\n", pad, randomSimpleStatement(r))
	}
}

func randomCondition(r *rand.Rand) string {
	forms := []string{
		"True", "False", "1", "0", "\"x\"", "\"\"",
		fmt.Sprintf("%d < %d", r.Intn(10), r.Intn(10)),
		fmt.Sprintf("%d == %d", r.Intn(10), r.Intn(10)),
	}
	return forms[r.Intn(len(forms))]
}

func randomSimpleStatement(r *rand.Rand) string {
	forms := []string{
		fmt.Sprintf("x = %d", r.Intn(1000)),
		fmt.Sprintf("x = %d + %d", r.Intn(100), r.Intn(100)),
		fmt.Sprintf("x = %d - %d", r.Intn(100), r.Intn(100)),
		"print x",
		"print 1, 2, 3",
		"x = not True",
		fmt.Sprintf("x = %d < %d", r.Intn(10), r.Intn(10)),
	}
	return forms[r.Intn(len(forms))]
}
