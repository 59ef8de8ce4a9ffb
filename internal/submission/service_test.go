package submission

import (
	"testing"

	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeIfNeededPlainPassthrough(t *testing.T) {
	stdin := "input"
	source, s, err := decodeIfNeeded("print(1)", &stdin, false)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", source)
	assert.Equal(t, &stdin, s)
}

func TestDecodeIfNeededBase64(t *testing.T) {
	source, stdin, err := decodeIfNeeded("cHJpbnQoMSk=", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", source)
	assert.Nil(t, stdin)
}

func TestDecodeIfNeededInvalidBase64(t *testing.T) {
	_, _, err := decodeIfNeeded("not base64!!", nil, true)
	assert.Error(t, err)
}

func TestDecodeAdditionalFiles(t *testing.T) {
	files := []types.AdditionalFile{{Name: "a.txt", Content: "aGVsbG8="}}
	decoded, err := decodeAdditionalFiles(files, true)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "hello", decoded[0].Content)
}

func TestDecodeAdditionalFilesPassthroughWhenNotEncoded(t *testing.T) {
	files := []types.AdditionalFile{{Name: "a.txt", Content: "raw"}}
	decoded, err := decodeAdditionalFiles(files, false)
	require.NoError(t, err)
	assert.Equal(t, files, decoded)
}

func TestEncodeInPlace(t *testing.T) {
	sub := types.Submission{SourceCode: "print(1)"}
	encodeInPlace(&sub)
	assert.Equal(t, "cHJpbnQoMSk=", sub.SourceCode)
}
