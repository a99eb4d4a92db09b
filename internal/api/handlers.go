package api

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/resolver"
	"github.com/username/holiday-api/pkg/dateutil"
)

const defaultLeaveDays = 5

type dayView struct {
	Date      string                 `json:"date"`
	Type      calendar.DayType       `json:"type"`
	IsWorkday bool                   `json:"isWorkday"`
	Weekend   bool                   `json:"weekend"`
	Holidays  []resolver.HolidayView `json:"holidays"`
}

type monthView struct {
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	WorkDays int       `json:"workDays"`
	Weekends int       `json:"weekends"`
	Holidays int       `json:"holidays"`
	Days     []dayView `json:"days"`
}

type vacationPlanView struct {
	Start      string                 `json:"start"`
	End        string                 `json:"end"`
	LeaveStart string                 `json:"leaveStart"`
	LeaveEnd   string                 `json:"leaveEnd"`
	LeaveDays  int                    `json:"leaveDays"`
	DaysOff    int                    `json:"daysOff"`
	Efficiency float64                `json:"efficiency"`
	Holidays   []resolver.HolidayView `json:"holidays"`
}

type vacationResponse struct {
	Country      string             `json:"country"`
	Year         int                `json:"year"`
	MaxLeaveDays int                `json:"maxLeaveDays"`
	Plans        []vacationPlanView `json:"plans"`
}

type chatRequest struct {
	Message  string `json:"message"`
	Country  string `json:"country"`
	Language string `json:"language"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) dayView(d calendar.DayInfo, language string) dayView {
	return dayView{
		Date:      dateutil.FormatDate(d.Date),
		Type:      d.Type,
		IsWorkday: d.IsWorkday,
		Weekend:   d.Weekend,
		Holidays:  s.resolver.Views(d.Holidays, language),
	}
}

// audience reads the audience parameter, accepting a display name in the request language
func (s *Server) audience(r *http.Request) string {
	return s.resolver.AudienceCode(r.URL.Query().Get("audience"), s.language(r))
}

// year reads the optional year parameter, defaulting to the current year
func (s *Server) year(r *http.Request) (int, error) {
	value := r.URL.Query().Get("year")
	if value == "" {
		return s.resolver.CurrentDate().Year(), nil
	}
	return intValue(value, "year", 1, 9999)
}

// GET /api/holidays/range?start=&end=&country=&audience=&type=&language=
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	views, err := s.resolver.Range(resolver.Query{
		Country:  q.Get("country"),
		Start:    start,
		End:      end,
		Audience: q.Get("audience"),
		Type:     q.Get("type"),
		Language: s.language(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GET /api/holidays/today?country=&audience=&language=
func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	views, err := s.resolver.Today(q.Get("country"), q.Get("audience"), s.language(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GET /api/holidays/day?date=&country=&audience=&language=
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	info, err := s.calendar.GetDayInfo(q.Get("country"), date, s.audience(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.dayView(*info, s.language(r)))
}

// GET /api/holidays/working-days?start=&end=&country=&audience=&includeEndDate=
func (s *Server) handleWorkingDays(w http.ResponseWriter, r *http.Request) {
	start, err := dateParam(r, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	includeEnd, err := boolParam(r, "includeEndDate", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	summary, err := s.calendar.WorkingDays(calendar.Request{
		Country:        q.Get("country"),
		Start:          start,
		End:            end,
		Audience:       s.audience(r),
		IncludeEndDate: includeEnd,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// GET /api/holidays/working-days/month?year=&month=&country=&audience=&language=
func (s *Server) handleWorkingDaysMonth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, err := intValue(q.Get("year"), "year", 1, 9999)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	month, err := intValue(q.Get("month"), "month", 1, 12)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := s.calendar.GetMonthInfo(q.Get("country"), year, time.Month(month), s.audience(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lang := s.language(r)
	view := monthView{
		Year:     info.Year,
		Month:    int(info.Month),
		WorkDays: info.WorkDays,
		Weekends: info.Weekends,
		Holidays: info.Holidays,
		Days:     make([]dayView, 0, len(info.Days)),
	}
	for _, d := range info.Days {
		view.Days = append(view.Days, s.dayView(d, lang))
	}
	s.writeJSON(w, http.StatusOK, view)
}

// GET /api/holidays/country/{countryCode}[/year/{year}]?audience=&language=
func (s *Server) handleCountryHolidays(w http.ResponseWriter, r *http.Request) {
	start, end := dateutil.Date(1, 1, 1), dateutil.Date(9999, 12, 31)
	if y := chi.URLParam(r, "year"); y != "" {
		year, err := intValue(y, "year", 1, 9999)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		start, end = dateutil.StartOfYear(year), dateutil.EndOfYear(year)
	}

	views, err := s.resolver.Range(resolver.Query{
		Country:  chi.URLParam(r, "countryCode"),
		Start:    start,
		End:      end,
		Audience: r.URL.Query().Get("audience"),
		Type:     r.URL.Query().Get("type"),
		Language: s.language(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, views)
}

// GET /api/holidays/vacation-plan?country=&year=&days=&audience=&language=
func (s *Server) handleVacationPlan(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	leaveDays := defaultLeaveDays
	if v := r.URL.Query().Get("days"); v != "" {
		if leaveDays, err = countValue(v, "days", 1, calendar.MaxLeaveDays); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	country := r.URL.Query().Get("country")
	plans, err := s.calendar.VacationPlans(country, year, leaveDays, s.audience(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lang := s.language(r)
	resp := vacationResponse{
		Country:      strings.ToUpper(strings.TrimSpace(country)),
		Year:         year,
		MaxLeaveDays: leaveDays,
		Plans:        make([]vacationPlanView, 0, len(plans)),
	}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, vacationPlanView{
			Start:      dateutil.FormatDate(p.Start),
			End:        dateutil.FormatDate(p.End),
			LeaveStart: dateutil.FormatDate(p.LeaveStart),
			LeaveEnd:   dateutil.FormatDate(p.LeaveEnd),
			LeaveDays:  p.LeaveDays,
			DaysOff:    p.DaysOff,
			Efficiency: math.Round(p.Efficiency*100) / 100,
			Holidays:   s.resolver.Views(p.Holidays, lang),
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GET /api/holidays/stats?country=&year=&audience=
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	year, err := s.year(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.calendar.YearStats(r.URL.Query().Get("country"), year, s.audience(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// GET /api/countries?language=
func (s *Server) handleCountries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.resolver.Countries(s.language(r)))
}

// GET /api/holidays/audiences[/translated]?language=
func (s *Server) handleAudiences(translated bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, s.resolver.Audiences(s.language(r), translated))
	}
}

// GET /api/holidays/types[/translated]?language=
func (s *Server) handleTypes(translated bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if translated {
			s.writeJSON(w, http.StatusOK, s.resolver.TypeNames(s.language(r)))
			return
		}
		s.writeJSON(w, http.StatusOK, s.resolver.Types())
	}
}

// POST /api/chat {message, country?, language?}
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: malformed chat body: %v", holiday.ErrInvalidRequest, err))
		return
	}
	if s.chat == nil {
		s.writeError(w, r, fmt.Errorf("%w: chat is not configured", holiday.ErrUpstreamUnavailable))
		return
	}

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = s.language(r)
	}

	reply, err := s.chat.Answer(r.Context(), req.Message, req.Country, lang)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":   "ok",
		"today":    dateutil.FormatDate(s.resolver.CurrentDate()),
		"snapshot": s.resolver.Store().Snapshot().Info(),
	}
	if s.reloader != nil {
		resp["refresh"] = s.reloader.GetStatus()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// POST /api/admin/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reloader == nil {
		http.NotFound(w, r)
		return
	}

	info, err := s.reloader.ForceReload(r.Context())
	if err != nil {
		s.logger.Error("Admin reload failed", zap.Error(err))
		s.writeError(w, r, fmt.Errorf("%w: %v", holiday.ErrUpstreamUnavailable, err))
		return
	}
	s.writeJSON(w, http.StatusOK, info)
}
