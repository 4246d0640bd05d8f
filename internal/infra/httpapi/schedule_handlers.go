package httpapi

import (
	"errors"
	"net/http"
	"time"

	"bitealert_reminder_service/internal/app"
	"bitealert_reminder_service/internal/domain/schedule"
	idb "bitealert_reminder_service/internal/infra/database"

	"github.com/labstack/echo/v4"
)

type createScheduleRequest struct {
	BiteCaseID         string  `json:"biteCaseId"`
	PatientID          string  `json:"patientId"`
	RegistrationNumber string  `json:"registrationNumber"`
	D0Date             string  `json:"d0Date"`
	D3Date             string  `json:"d3Date"`
	D7Date             string  `json:"d7Date"`
	D14Date            *string `json:"d14Date"`
	D28Date            *string `json:"d28Date"`
}

// scheduleUpdateRequest carries a partial update: nil pointers mean the
// field was not provided and must stay untouched.
type scheduleUpdateRequest struct {
	D0Date    *string `json:"d0Date"`
	D3Date    *string `json:"d3Date"`
	D7Date    *string `json:"d7Date"`
	D14Date   *string `json:"d14Date"`
	D28Date   *string `json:"d28Date"`
	D0Status  *string `json:"d0Status"`
	D3Status  *string `json:"d3Status"`
	D7Status  *string `json:"d7Status"`
	D14Status *string `json:"d14Status"`
	D28Status *string `json:"d28Status"`
}

type doseResponse struct {
	Date   string `json:"date,omitempty"`
	Status string `json:"status"`
}

type scheduleResponse struct {
	ID                 string                  `json:"id"`
	BiteCaseID         string                  `json:"biteCaseId"`
	PatientID          string                  `json:"patientId"`
	RegistrationNumber string                  `json:"registrationNumber,omitempty"`
	Doses              map[string]doseResponse `json:"doses"`
	TreatmentStatus    string                  `json:"treatmentStatus"`
	UpdatedAt          time.Time               `json:"updatedAt"`
}

func (s *Server) handleCreateSchedule(c echo.Context) error {
	var req createScheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	input := app.NewSchedule{
		BiteCaseID:         req.BiteCaseID,
		PatientID:          req.PatientID,
		RegistrationNumber: req.RegistrationNumber,
	}
	for _, f := range []struct {
		raw  string
		dest *time.Time
	}{
		{req.D0Date, &input.D0Date},
		{req.D3Date, &input.D3Date},
		{req.D7Date, &input.D7Date},
	} {
		if f.raw == "" {
			continue
		}
		t, err := parseDate(f.raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date: "+f.raw)
		}
		*f.dest = t
	}
	for _, f := range []struct {
		raw  *string
		dest **time.Time
	}{
		{req.D14Date, &input.D14Date},
		{req.D28Date, &input.D28Date},
	} {
		if f.raw == nil || *f.raw == "" {
			continue
		}
		t, err := parseDate(*f.raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date: "+*f.raw)
		}
		*f.dest = &t
	}

	sched, err := s.scheduleService.Create(c.Request().Context(), input, actorFromContext(c))
	if err != nil {
		if errors.Is(err, app.ErrMissingRequiredField) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, toScheduleResponse(sched))
}

func (s *Server) handleUpdateSchedule(c echo.Context) error {
	var req scheduleUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	upd, err := toScheduleUpdate(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sched, err := s.scheduleService.ApplyUpdate(c.Request().Context(), c.Param("id"), upd, actorFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, idb.ErrScheduleNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "vaccination schedule not found")
		case errors.Is(err, app.ErrEmptyUpdate),
			errors.Is(err, app.ErrUnknownDose),
			errors.Is(err, app.ErrInvalidDoseStatus),
			errors.Is(err, app.ErrDoseStatusRegression):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusOK, toScheduleResponse(sched))
}

func (s *Server) handleListSchedulesByBiteCase(c echo.Context) error {
	schedules, err := s.scheduleService.ListByBiteCase(c.Request().Context(), c.Param("biteCaseId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toScheduleResponses(schedules))
}

func (s *Server) handleListSchedulesByPatient(c echo.Context) error {
	schedules, err := s.scheduleService.ListByPatient(c.Request().Context(), c.Param("patientId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toScheduleResponses(schedules))
}

func toScheduleUpdate(req scheduleUpdateRequest) (schedule.Update, error) {
	upd := schedule.Update{
		Dates:    map[schedule.DoseLabel]time.Time{},
		Statuses: map[schedule.DoseLabel]schedule.DoseStatus{},
	}
	dates := map[schedule.DoseLabel]*string{
		schedule.DoseD0:  req.D0Date,
		schedule.DoseD3:  req.D3Date,
		schedule.DoseD7:  req.D7Date,
		schedule.DoseD14: req.D14Date,
		schedule.DoseD28: req.D28Date,
	}
	for label, raw := range dates {
		if raw == nil {
			continue
		}
		t, err := parseDate(*raw)
		if err != nil {
			return schedule.Update{}, errors.New("invalid date for " + string(label) + ": " + *raw)
		}
		upd.Dates[label] = t
	}
	statuses := map[schedule.DoseLabel]*string{
		schedule.DoseD0:  req.D0Status,
		schedule.DoseD3:  req.D3Status,
		schedule.DoseD7:  req.D7Status,
		schedule.DoseD14: req.D14Status,
		schedule.DoseD28: req.D28Status,
	}
	for label, raw := range statuses {
		if raw == nil {
			continue
		}
		upd.Statuses[label] = schedule.DoseStatus(*raw)
	}
	return upd, nil
}

// parseDate accepts both plain dates and RFC3339 timestamps; clients
// historically sent either.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func toScheduleResponse(sched *schedule.VaccinationSchedule) scheduleResponse {
	doses := make(map[string]doseResponse, len(schedule.DoseOrder))
	for _, label := range schedule.DoseOrder {
		d := sched.Dose(label)
		dr := doseResponse{Status: string(d.Status)}
		if d.Date.Valid {
			dr.Date = d.Date.Time.Format("2006-01-02")
		}
		doses[string(label)] = dr
	}
	return scheduleResponse{
		ID:                 sched.ID,
		BiteCaseID:         sched.BiteCaseID,
		PatientID:          sched.PatientID,
		RegistrationNumber: sched.RegistrationNumber,
		Doses:              doses,
		TreatmentStatus:    string(sched.TreatmentStatus),
		UpdatedAt:          sched.UpdatedAt,
	}
}

func toScheduleResponses(schedules []*schedule.VaccinationSchedule) []scheduleResponse {
	out := make([]scheduleResponse, 0, len(schedules))
	for _, sched := range schedules {
		out = append(out, toScheduleResponse(sched))
	}
	return out
}
