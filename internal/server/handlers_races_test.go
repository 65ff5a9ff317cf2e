package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

func multipartUpload(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/races/import", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestHandleImportRaces_CSVPartialSuccess(t *testing.T) {
	athlete := athleteUser()
	races := &mockRaceRepo{
		CreateFn: func(_ context.Context, r *domain.Race) (*domain.Race, error) {
			r.ID = uuid.New()
			return r, nil
		},
	}
	srv := newTestServer(t, app.Deps{Races: races})

	csv := "name,sport,date,distance_km,finish_time\n" +
		"City Marathon,running,2026-04-12,42.2,3:41:05\n" +
		"Broken Row,running,someday,10,\n"
	req := multipartUpload(t, "results.csv", csv)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athlete)

	err := callHandler(srv.handleImportRaces, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"imported":1`)
	assert.Contains(t, rec.Body.String(), `"failed":1`)
	assert.Contains(t, rec.Body.String(), "City Marathon")
	assert.Contains(t, rec.Body.String(), `"row":3`)
}

func TestHandleImportRaces_BadHeader(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := multipartUpload(t, "results.csv", "wrong,header,entirely\n")
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())

	err := callHandler(srv.handleImportRaces, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "unexpected CSV header")
}

func TestHandleImportRaces_UnknownExtension(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := multipartUpload(t, "results.pdf", "%PDF-1.4")
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())

	err := callHandler(srv.handleImportRaces, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestHandleImportRaces_MissingFile(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := httptest.NewRequest(http.MethodPost, "/api/races/import", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())

	err := callHandler(srv.handleImportRaces, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
}

func TestHandleCreateRace_Validation(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := jsonRequest(http.MethodPost, "/api/races",
		`{"name":"","distance_m":5000}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())

	err := callHandler(srv.handleCreateRace, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
}

func TestHandleCreateRace_Success(t *testing.T) {
	athlete := athleteUser()
	races := &mockRaceRepo{
		CreateFn: func(_ context.Context, r *domain.Race) (*domain.Race, error) {
			require.Equal(t, athlete.ID, r.AthleteID)
			require.Equal(t, domain.RaceSourceManual, r.Source)
			r.ID = uuid.New()
			return r, nil
		},
	}
	srv := newTestServer(t, app.Deps{Races: races})

	req := jsonRequest(http.MethodPost, "/api/races",
		`{"name":"Night 10K","sport":"running","date":"2026-06-20T20:00:00Z","distance_m":10000,"finish_time_s":2580,"client_ref":"r-1"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athlete)

	err := callHandler(srv.handleCreateRace, c)

	require.NoError(t, err)
	assert.Equal(t, 201, rec.Code)
	assert.Contains(t, rec.Body.String(), "Night 10K")
	assert.Contains(t, rec.Body.String(), `"finish_time_s":2580`)
	assert.Contains(t, rec.Body.String(), `"source":"manual"`)
	assert.Contains(t, rec.Body.String(), `"client_ref":"r-1"`)
}
