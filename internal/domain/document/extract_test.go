package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindPDF, DetectKind("policy.PDF", ""))
	assert.Equal(t, KindDOCX, DetectKind("a.docx", ""))
	assert.Equal(t, KindDOC, DetectKind("a.doc", ""))
	assert.Equal(t, KindText, DetectKind("notes.txt", ""))
	assert.Equal(t, KindPDF, DetectKind("upload", "application/pdf"))
	assert.Equal(t, KindDOCX, DetectKind("upload", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, KindText, DetectKind("upload", "text/plain"))
	assert.Equal(t, KindOther, DetectKind("blob.bin", "application/octet-stream"))
}

func TestExtractReadablePlainText(t *testing.T) {
	got, err := Extract([]byte(policyProse), "policy.txt", "text/plain", ComplianceOptions)
	require.NoError(t, err)

	assert.Equal(t, policyProse, got.Text)
	assert.True(t, got.Readable)
	assert.Equal(t, KindText, got.Kind)
}

func TestExtractShortTextHasNoRuns(t *testing.T) {
	_, err := Extract([]byte("Hello world."), "hello.txt", "text/plain", ComplianceOptions)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoText))

	var extErr *ExtractionError
	require.True(t, errors.As(err, &extErr))
	assert.Equal(t, "hello.txt", extErr.FileName)
}

func TestExtractEmptyFile(t *testing.T) {
	_, err := Extract(nil, "a.pdf", "", ComplianceOptions)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestExtractBinaryKeepsPrintableRuns(t *testing.T) {
	sentence := "This agreement is governed by the laws of the State of New York."
	data := append([]byte{0x00, 0x01, 0xff, 0xfe}, []byte(sentence)...)
	data = append(data, 0x00, 0x02, 0x03)

	got, err := Extract(data, "contract.doc", "", ComplianceOptions)
	require.NoError(t, err)
	assert.Equal(t, sentence, got.Text)
	assert.False(t, got.Readable)
}

func TestExtractPDFStringObjects(t *testing.T) {
	pdf := "%PDF-1.4\x00\x01BT (Data retention policy applies) Tj ET\x00\x02(short) Tj\x00"
	got, err := Extract([]byte(pdf), "policy.pdf", "application/pdf", ContractOptions)
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Data retention policy applies")
	assert.NotContains(t, strings.Split(got.Text, "\n")[0], "(short)")
}

func TestExtractRunLengthDependsOnPath(t *testing.T) {
	data := []byte("\x00\x00Twenty-five chars here!!\x00\x00")
	_, err := Extract(data, "x.bin", "", ComplianceOptions)
	assert.ErrorIs(t, err, ErrNoText)

	got, err := Extract(data, "x.bin", "", ContractOptions)
	require.NoError(t, err)
	assert.Equal(t, "Twenty-five chars here!!", got.Text)
}
