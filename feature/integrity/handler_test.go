package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"quest-voice/core/reconcile"
	"quest-voice/feature/voicesync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/flock"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, withClient bool) (*fiber.App, *fixture) {
	f := newFixture(t, withClient)
	app := fiber.New()
	NewHandler(f.service).RegisterRoutes(app)
	return app, f
}

func TestHandleStructureCheck(t *testing.T) {
	app, _ := setupTestApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/structure", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report StructureReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "checked", report.Status)
	assert.Empty(t, report.MissingLocal)
}

func TestHandleStructureCheck_BucketMissing(t *testing.T) {
	app, f := setupTestApp(t, true)
	f.client.On("BucketExists", mock.Anything, "voices").Return(false, nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/structure", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestHandleAudioCheck(t *testing.T) {
	app, f := setupTestApp(t, true)
	f.expectListing()

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/audio", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var plan reconcile.Plan
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&plan))
	assert.Equal(t, 6, plan.Summary.TotalItems)
	assert.Equal(t, 2, plan.Summary.Orphaned)
}

func TestHandleAudioCheck_StorageDisabled(t *testing.T) {
	app, _ := setupTestApp(t, false)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/audio", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestHandleAudioSync_Unconfirmed(t *testing.T) {
	app, f := setupTestApp(t, true)
	f.expectListing()

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/audio/sync?upload=true&purge=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report SyncReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.DryRun)
	assert.Zero(t, report.Executed)
	assert.Len(t, report.Plan.Actions, 4)
	f.client.AssertNotCalled(t, "RemoveObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleAudioSync_Confirmed(t *testing.T) {
	app, f := setupTestApp(t, true)
	f.expectListing()
	f.client.On("PutObject", mock.Anything, "voices", "audio/deDE/male/Elwynn/quest_2.mp3", mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/audio/sync?upload=true&confirm=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report SyncReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.False(t, report.DryRun)
	assert.Equal(t, 1, report.Executed)
}

func TestHandleAudioSync_Locked(t *testing.T) {
	app, f := setupTestApp(t, true)
	other := flock.New(filepath.Join(f.root, voicesync.LockFileName))
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	resp, err := app.Test(httptest.NewRequest("POST", "/integrity/audio/sync?upload=true&confirm=true", nil))
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}
