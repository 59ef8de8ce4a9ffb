package api

import (
	"net/http/httptest"
	"testing"

	"github.com/coderunr/judge/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRequestToInputValidation(t *testing.T) {
	_, err := submissionRequest{SourceCode: "   "}.toInput()
	require.Error(t, err)

	negativeRuns := -1
	_, err = submissionRequest{SourceCode: "print(1)", NumberOfRuns: &negativeRuns}.toInput()
	require.Error(t, err)

	ok := submissionRequest{
		SourceCode:      "print(1)",
		AdditionalFiles: []types.AdditionalFile{{Name: "helper.py", Content: "x = 1"}},
	}
	_, err = ok.toInput()
	assert.NoError(t, err)

	traversal := submissionRequest{
		SourceCode:      "print(1)",
		AdditionalFiles: []types.AdditionalFile{{Name: "../../etc/passwd", Content: "x"}},
	}
	_, err = traversal.toInput()
	require.Error(t, err)

	nested := submissionRequest{
		SourceCode:      "print(1)",
		AdditionalFiles: []types.AdditionalFile{{Name: "sub/helper.py", Content: "x"}},
	}
	_, err = nested.toInput()
	require.Error(t, err)

	negativeExtraTime := -1.0
	_, err = submissionRequest{SourceCode: "print(1)", CPUExtraTime: &negativeExtraTime}.toInput()
	require.Error(t, err)

	negativeProcesses := -1
	_, err = submissionRequest{SourceCode: "print(1)", MaxProcessesAndOrThreads: &negativeProcesses}.toInput()
	require.Error(t, err)

	negativeFileSize := int64(-1)
	_, err = submissionRequest{SourceCode: "print(1)", MaxFileSize: &negativeFileSize}.toInput()
	require.Error(t, err)
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest("GET", "/?wait=true&page=3&page_size=notanumber", nil)
	assert.True(t, queryBool(req, "wait"))
	assert.False(t, queryBool(req, "base64_encoded"))
	assert.Equal(t, 3, queryInt(req, "page", 1))
	assert.Equal(t, 20, queryInt(req, "page_size", 20))
}
