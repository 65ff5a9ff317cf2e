package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
	"github.com/shanebarringer/ultracoach-sub001/internal/importer"
)

type raceResponse struct {
	ID          uuid.UUID `json:"id"`
	AthleteID   uuid.UUID `json:"athlete_id"`
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Date        time.Time `json:"date"`
	DistanceM   float64   `json:"distance_m"`
	FinishTimeS *int64    `json:"finish_time_s,omitempty"`
	Source      string    `json:"source"`
	ClientRef   string    `json:"client_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRaceResponse(r *domain.Race, clientRef string) raceResponse {
	resp := raceResponse{
		ID:        r.ID,
		AthleteID: r.AthleteID,
		Name:      r.Name,
		Sport:     r.Sport,
		Date:      r.Date,
		DistanceM: r.DistanceM,
		Source:    string(r.Source),
		ClientRef: clientRef,
		CreatedAt: r.CreatedAt,
	}
	resp.FinishTimeS = durationSeconds(r.FinishTime)
	return resp
}

func (s *Server) handleListRaces(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	athleteID := uuid.Nil
	if raw := c.QueryParam("athlete_id"); raw != "" {
		athleteID, err = uuid.Parse(raw)
		if err != nil {
			return apperrors.ValidationError("invalid athlete_id")
		}
	}

	races, err := s.app.ListRaces(c.Request().Context(), user, athleteID)
	if err != nil {
		return mapDomainErr(err, "failed to list races")
	}

	resp := make([]raceResponse, 0, len(races))
	for _, r := range races {
		resp = append(resp, toRaceResponse(r, ""))
	}
	return c.JSON(200, resp)
}

type createRaceRequest struct {
	Name        string    `json:"name"`
	Sport       string    `json:"sport"`
	Date        time.Time `json:"date"`
	DistanceM   float64   `json:"distance_m"`
	FinishTimeS *int64    `json:"finish_time_s"`
	ClientRef   string    `json:"client_ref"`
}

func (s *Server) handleCreateRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createRaceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}
	if req.DistanceM <= 0 {
		return apperrors.ValidationError("distance_m must be positive")
	}

	race, err := s.app.CreateRace(c.Request().Context(), user, &domain.Race{
		Name:       req.Name,
		Sport:      req.Sport,
		Date:       req.Date,
		DistanceM:  req.DistanceM,
		FinishTime: secondsDuration(req.FinishTimeS),
	})
	if err != nil {
		return mapDomainErr(err, "failed to create race")
	}
	return c.JSON(201, toRaceResponse(race, req.ClientRef))
}

func (s *Server) handleDeleteRace(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeleteRace(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to delete race")
	}
	return c.NoContent(204)
}

type importRacesResponse struct {
	Imported int                 `json:"imported"`
	Failed   int                 `json:"failed"`
	Races    []raceResponse      `json:"races"`
	Errors   []importer.RowError `json:"errors,omitempty"`
}

// handleImportRaces accepts a multipart upload under the "file" field and
// imports it as GPX or CSV based on the filename extension. Bad CSV rows show
// up as per-row errors in a 200 response, not a failed request.
func (s *Server) handleImportRaces(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, s.config.MaxImportBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.ValidationError("upload exceeds size limit")
		}
		return apperrors.ValidationError("multipart field 'file' is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("failed to open upload", err)
	}
	defer file.Close()

	result, err := s.app.ImportRaces(c.Request().Context(), user, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, importer.ErrInvalidFile) {
			return apperrors.ValidationError(err.Error())
		}
		return mapDomainErr(err, "failed to import races")
	}

	resp := importRacesResponse{
		Imported: result.Imported,
		Failed:   result.Failed,
		Races:    make([]raceResponse, 0, len(result.Races)),
		Errors:   result.Errors,
	}
	for _, r := range result.Races {
		resp.Races = append(resp.Races, toRaceResponse(r, ""))
	}
	return c.JSON(200, resp)
}
