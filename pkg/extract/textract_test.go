package extract

import (
	"context"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clauselens/docserver/pkg/logger"
)

func TestDecodeOutput(t *testing.T) {
	e := &TextractExtractor{logger: logger.NewTestLogger()}

	artifact := []byte(`{
		"Blocks": [
			{"BlockType": "PAGE", "Text": ""},
			{"BlockType": "LINE", "Text": "LEASE AGREEMENT"},
			{"BlockType": "WORD", "Text": "LEASE"},
			{"BlockType": "LINE", "Text": "Rent is due monthly."},
			{"BlockType": "LINE", "Text": ""}
		]
	}`)

	text, err := e.DecodeOutput(artifact)
	require.NoError(t, err)
	assert.Equal(t, "LEASE AGREEMENT\nRent is due monthly.", text)
}

func TestDecodeOutputEmpty(t *testing.T) {
	e := &TextractExtractor{logger: logger.NewTestLogger()}

	text, err := e.DecodeOutput([]byte(`{"Blocks": []}`))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestDecodeOutputMalformed(t *testing.T) {
	e := &TextractExtractor{logger: logger.NewTestLogger()}

	_, err := e.DecodeOutput([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrFailed)
}

func TestUnconfiguredExtractorRefusesWork(t *testing.T) {
	e := &TextractExtractor{configured: false, logger: logger.NewTestLogger()}

	assert.False(t, e.Configured())

	_, err := e.ExtractSync(context.Background(), []byte("data"), "application/pdf")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = e.ExtractAsync(context.Background(), "s3://bucket/key", "application/pdf")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = e.AwaitResult(context.Background(), "job-1")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClassify(t *testing.T) {
	e := &TextractExtractor{logger: logger.NewTestLogger()}

	err := e.classify("DetectDocumentText", context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = e.classify("DetectDocumentText", assert.AnError)
	assert.ErrorIs(t, err, ErrUnavailable)

	apiErr := &smithy.GenericAPIError{Code: "UnsupportedDocumentException", Message: "bad input"}
	err = e.classify("DetectDocumentText", apiErr)
	assert.ErrorIs(t, err, ErrFailed)
}
