package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type span struct {
	start, end int
}

func TestSplit_SpanGeometry(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		textLen int
		spans   []span
	}{
		{"exact single chunk", 10, 2, 10, []span{{0, 10}}},
		{"one char over", 10, 2, 11, []span{{0, 10}, {8, 11}}},
		{"no overlap", 10, 0, 25, []span{{0, 10}, {10, 20}, {20, 25}}},
		{"heavy overlap", 10, 8, 14, []span{{0, 10}, {2, 12}, {4, 14}}},
		{"sky grass dimensions", 20, 5, 36, []span{{0, 20}, {15, 35}, {30, 36}}},
		{"single char", 5, 1, 1, []span{{0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.size, tt.overlap)
			require.NoError(t, err)

			text := strings.Repeat("x", tt.textLen)
			chunks := c.Split("doc-1", text)
			require.Len(t, chunks, len(tt.spans))

			for i, want := range tt.spans {
				assert.Equal(t, want.start, chunks[i].StartChar, "chunk %d start", i)
				assert.Equal(t, want.end, chunks[i].EndChar, "chunk %d end", i)
				assert.Equal(t, i, chunks[i].Index, "chunk %d ordinal", i)
				assert.Len(t, chunks[i].Text, want.end-want.start, "chunk %d length", i)
			}
		})
	}
}
