package processor

import (
	"testing"

	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFilterLanguageNoiseStripsNodeWarning(t *testing.T) {
	text := "Warning: disabling flag --expose_wasm due to conflicting flags\nactual output\n"
	filtered := filterLanguageNoise(text, "javascript")
	assert.Equal(t, "actual output\n", filtered)
}

func TestFilterLanguageNoiseLeavesOtherLanguagesAlone(t *testing.T) {
	text := "some output\n"
	assert.Equal(t, text, filterLanguageNoise(text, "python"))
}

func TestParseFloatMeta(t *testing.T) {
	meta := map[string]string{"time": "0.52"}
	v, ok := parseFloatMeta(meta, "time")
	assert.True(t, ok)
	assert.Equal(t, 0.52, v)

	_, ok = parseFloatMeta(meta, "missing")
	assert.False(t, ok)
}

func TestCompileSucceededWithoutStatus(t *testing.T) {
	assert.True(t, compileSucceeded(&types.StageOutcome{Meta: map[string]string{}}))
}

func TestCompileFailedWithStatus(t *testing.T) {
	assert.False(t, compileSucceeded(&types.StageOutcome{Meta: map[string]string{"status": "RE"}}))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"python3", "main.py"}, tokenize("python3 main.py"))
}

func TestTokenizeHonorsQuotedArguments(t *testing.T) {
	assert.Equal(t, []string{"g++", "-o", "main", "main.cpp", "-std=c++17"}, tokenize(`g++ -o main main.cpp -std=c++17`))
	assert.Equal(t, []string{"sh", "-c", "echo hello world"}, tokenize(`sh -c "echo hello world"`))
}
