package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	encoded := Encode("print('hello')")
	assert.NotEmpty(t, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "print('hello')", decoded)
}

func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "", Encode(""))
	decoded, err := Decode("")
	require.NoError(t, err)
	assert.Equal(t, "", decoded)
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode("not-valid-base64!!")
	assert.Error(t, err)
}

func TestOptionalHelpers(t *testing.T) {
	assert.Nil(t, EncodeOptional(nil))
	decoded, err := DecodeOptional(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)

	text := "hi"
	encoded := EncodeOptional(&text)
	require.NotNil(t, encoded)

	back, err := DecodeOptional(encoded)
	require.NoError(t, err)
	require.NotNil(t, back)
	assert.Equal(t, "hi", *back)
}

func TestParseFieldsDefault(t *testing.T) {
	assert.Nil(t, ParseFields(""))
	assert.Nil(t, ParseFields("   "))
}

func TestParseFieldsAll(t *testing.T) {
	fields := ParseFields("all")
	assert.Equal(t, len(AllFields), len(fields))
}

func TestParseFieldsCommaList(t *testing.T) {
	fields := ParseFields("stdout,stderr")
	_, hasID := fields["id"]
	_, hasStdout := fields["stdout"]
	_, hasStderr := fields["stderr"]
	assert.True(t, hasID)
	assert.True(t, hasStdout)
	assert.True(t, hasStderr)
	assert.Len(t, fields, 3)
}

func TestParseFieldsDefaultToken(t *testing.T) {
	fields := ParseFields("default,meta,additional_files")
	for f := range DefaultFields {
		_, ok := fields[f]
		assert.True(t, ok, "expected default field %s", f)
	}
	_, hasMeta := fields["meta"]
	_, hasFiles := fields["additional_files"]
	assert.True(t, hasMeta)
	assert.True(t, hasFiles)
}

func TestParseFieldsDropsUnknown(t *testing.T) {
	fields := ParseFields("bogus_field")
	assert.Equal(t, map[string]struct{}{"id": {}}, fields)
}

func TestFilterData(t *testing.T) {
	data := map[string]interface{}{"id": "1", "stdout": "hi", "source_code": "print(1)"}
	filtered := FilterData(data, map[string]struct{}{"id": {}, "stdout": {}})
	assert.Equal(t, map[string]interface{}{"id": "1", "stdout": "hi"}, filtered)
}

func TestFilterDataDefaultsWhenNil(t *testing.T) {
	data := map[string]interface{}{"id": "1", "status": "FINISHED", "source_code": "x"}
	filtered := FilterData(data, nil)
	_, hasSource := filtered["source_code"]
	assert.False(t, hasSource)
	assert.Equal(t, "1", filtered["id"])
}

func TestToMapRoundTrip(t *testing.T) {
	type sample struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	m, err := ToMap(sample{ID: "abc", Name: "go"})
	require.NoError(t, err)
	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, "go", m["name"])
}
