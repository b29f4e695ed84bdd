package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

func TestExportRenderCSV(t *testing.T) {
	svc, _, _ := newTranscriptFixture(t, true)
	exports := NewExportService(svc, nil, nil, nil)

	request, err := svc.Create(context.Background(), "stu-1", studentClaims("stu-1"))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), request.ID, "staff-1")
	require.NoError(t, err)

	payload, filename, err := exports.RenderCSV(context.Background(), request.ID, staffClaims("staff-1"))
	require.NoError(t, err)
	assert.Equal(t, "transcript-2023-0415.csv", filename)

	content := string(payload)
	assert.True(t, strings.HasPrefix(content, "Semester,Course Code,Course Title,Credits,Status,Percentage,Grade,Grade Points"))
	assert.Contains(t, content, "CS101")
	assert.Contains(t, content, "CUMULATIVE")
	assert.Contains(t, content, "3.43")
}

func TestExportRenderPDF(t *testing.T) {
	svc, _, _ := newTranscriptFixture(t, true)
	exports := NewExportService(svc, nil, nil, nil)

	request, err := svc.Create(context.Background(), "stu-1", studentClaims("stu-1"))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), request.ID, "staff-1")
	require.NoError(t, err)

	payload, filename, err := exports.RenderPDF(context.Background(), request.ID, staffClaims("staff-1"))
	require.NoError(t, err)
	assert.Equal(t, "transcript-2023-0415.pdf", filename)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestExportRequiresReleasedSnapshot(t *testing.T) {
	svc, _, _ := newTranscriptFixture(t, true)
	exports := NewExportService(svc, nil, nil, nil)

	request, err := svc.Create(context.Background(), "stu-1", studentClaims("stu-1"))
	require.NoError(t, err)

	_, _, err = exports.RenderCSV(context.Background(), request.ID, staffClaims("staff-1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
