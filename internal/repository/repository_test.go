package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageClause(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset int
		want          string
	}{
		{"no paging returns everything", 0, 0, ""},
		{"negative values ignored", -5, -1, ""},
		{"limit only", 25, 0, " LIMIT 25"},
		{"offset only", 0, 40, " OFFSET 40"},
		{"both", 10, 20, " LIMIT 10 OFFSET 20"},
		{"limit capped", 10000, 0, " LIMIT 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pageClause(tt.limit, tt.offset))
		})
	}
}
