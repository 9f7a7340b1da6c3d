package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeepCopy(t *testing.T) {
	original := map[string]any{
		"n":    1,
		"nil":  nil,
		"list": []any{1, map[string]any{"x": "y"}},
		"rows": [][]float64{{1, 2}, {3}},
	}

	copied := DeepCopy(original).(map[string]any)
	assert.Equal(t, original, copied)

	copied["list"].([]any)[1].(map[string]any)["x"] = "z"
	copied["rows"].([][]float64)[0][0] = 42

	assert.Equal(t, "y", original["list"].([]any)[1].(map[string]any)["x"])
	assert.Equal(t, 1.0, original["rows"].([][]float64)[0][0])
}

func TestDeepCopy_Primitives(t *testing.T) {
	assert.Nil(t, DeepCopy(nil))
	assert.Equal(t, 3, DeepCopy(3))
	assert.Equal(t, "s", DeepCopy("s"))
}
