package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/holiday"
	"github.com/username/holiday-api/internal/resolver"
	"github.com/username/holiday-api/pkg/dateutil"
)

const (
	groundingDays      = 30
	groundingLeaveDays = 5
	groundingPlans     = 3
)

// Completer produces a reply for a conversation
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Planner supplies vacation plans and holiday statistics
type Planner interface {
	VacationPlans(country string, year, maxLeaveDays int, audience string) ([]calendar.VacationPlan, error)
	YearStats(country string, year int, audience string) (*calendar.YearStats, error)
}

// Options holds proxy defaults
type Options struct {
	DefaultCountry  string
	DefaultLanguage string
	Timeout         time.Duration
}

// Proxy answers free-text holiday questions through an upstream model, grounded on the
// current snapshot
type Proxy struct {
	completer Completer
	resolver  *resolver.Resolver
	planner   Planner
	opts      Options
	logger    *zap.Logger
}

// NewProxy creates a new Proxy. planner may be nil, which leaves vacation
// plans out of the grounding.
func NewProxy(completer Completer, res *resolver.Resolver, planner Planner, opts Options, logger *zap.Logger) *Proxy {
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = "TR"
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	return &Proxy{
		completer: completer,
		resolver:  res,
		planner:   planner,
		opts:      opts,
		logger:    logger,
	}
}

// Answer returns the upstream reply to message. An expired deadline maps to
// holiday.ErrChatTimeout and every other upstream failure to holiday.ErrUpstreamUnavailable.
func (p *Proxy) Answer(ctx context.Context, message, country, language string) (string, error) {
	if strings.TrimSpace(country) == "" {
		country = p.opts.DefaultCountry
	}
	if strings.TrimSpace(language) == "" {
		language = p.opts.DefaultLanguage
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return p.resolver.Translator().Message("chat_empty", language), nil
	}

	grounding, err := p.Grounding(country, language)
	if err != nil {
		return "", err
	}

	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := p.completer.Complete(ctx, []Message{
		{Role: "system", Content: grounding},
		{Role: "user", Content: message},
	})
	if err != nil {
		if IsTimeout(err) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.logger.Warn("Chat request timed out",
				zap.String("country", country),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return "", fmt.Errorf("%w: %v", holiday.ErrChatTimeout, err)
		}
		p.logger.Error("Chat upstream failed",
			zap.String("country", country),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", holiday.ErrUpstreamUnavailable, err)
	}

	p.logger.Info("Chat answered",
		zap.String("country", country),
		zap.String("language", language),
		zap.Duration("elapsed", time.Since(start)))

	return reply, nil
}

// Grounding renders the facts the upstream model is allowed to rely on
func (p *Proxy) Grounding(country, language string) (string, error) {
	snap := p.resolver.Store().Snapshot()
	code, err := snap.ResolveCountry(country)
	if err != nil {
		return "", err
	}
	c, _ := snap.Country(code)
	tr := p.resolver.Translator()
	today := p.resolver.CurrentDate()

	upcoming, err := resolver.Select(snap, resolver.Query{
		Country: code,
		Start:   today,
		End:     today.AddDate(0, 0, groundingDays),
	})
	if err != nil {
		return "", err
	}
	recent, err := resolver.Select(snap, resolver.Query{
		Country: code,
		Start:   today.AddDate(0, 0, -groundingDays),
		End:     today.AddDate(0, 0, -1),
	})
	if err != nil {
		return "", err
	}
	year, err := resolver.Select(snap, resolver.Query{
		Country: code,
		Start:   dateutil.StartOfYear(today.Year()),
		End:     dateutil.EndOfYear(today.Year()),
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You answer questions about public holidays and working days in %s (%s).\n",
		tr.CountryName(c, language), code)
	fmt.Fprintf(&b, "Reply in the language with code %q. Use only the facts below; say so when they are not enough.\n\n",
		tr.Resolve(language))
	fmt.Fprintf(&b, "Today is %s (%s).\n", dateutil.FormatDate(today), today.Weekday())

	var todays, next []holiday.Holiday
	for _, h := range upcoming {
		if dateutil.IsSameDay(h.Date, today) {
			todays = append(todays, h)
		} else {
			next = append(next, h)
		}
	}

	p.writeSection(&b, "Holidays today", todays, language)
	p.writeSection(&b, fmt.Sprintf("Holidays in the next %d days", groundingDays), next, language)
	p.writeSection(&b, fmt.Sprintf("Holidays in the past %d days", groundingDays), recent, language)

	fmt.Fprintf(&b, "\nHoliday types in %d:\n", today.Year())
	counts := make(map[holiday.Type]int)
	for _, h := range year {
		counts[h.Type]++
	}
	for _, t := range holiday.Types() {
		if counts[t] > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", tr.TypeName(t, language), counts[t])
		}
	}

	p.writePlans(&b, code, today.Year(), language)

	audiences := snap.Audiences()
	if len(audiences) > 0 {
		names := make([]string, 0, len(audiences))
		for _, a := range audiences {
			names = append(names, tr.AudienceName(a, language))
		}
		fmt.Fprintf(&b, "\nAudiences: %s\n", strings.Join(names, ", "))
	}

	return b.String(), nil
}

func (p *Proxy) writeSection(b *strings.Builder, title string, holidays []holiday.Holiday, language string) {
	fmt.Fprintf(b, "\n%s:\n", title)
	if len(holidays) == 0 {
		b.WriteString("- none\n")
		return
	}
	tr := p.resolver.Translator()
	for _, h := range holidays {
		fmt.Fprintf(b, "- %s %s: %s (%s)",
			dateutil.FormatDate(h.Date), h.Date.Weekday(), tr.HolidayName(h, language), tr.TypeName(h.Type, language))
		if len(h.Audiences) > 0 {
			fmt.Fprintf(b, " for %s", strings.Join(h.Audiences, ", "))
		}
		if !h.Global && len(h.Counties) > 0 {
			fmt.Fprintf(b, " in %s", strings.Join(h.Counties, ", "))
		}
		b.WriteString("\n")
	}
}

// writePlans adds year statistics and the best vacation plans. Failures are
// logged and leave the section out.
func (p *Proxy) writePlans(b *strings.Builder, country string, year int, language string) {
	if p.planner == nil {
		return
	}

	stats, err := p.planner.YearStats(country, year, "")
	if err != nil {
		p.logger.Warn("Skipping holiday statistics in grounding", zap.String("country", country), zap.Error(err))
	} else {
		fmt.Fprintf(b, "\nIn %d there are %d holidays on %d dates; %d fall on a weekend.",
			year, stats.Holidays, stats.HolidayDates, stats.WeekendHolidays)
		if stats.BusiestMonth != 0 {
			fmt.Fprintf(b, " Most are in %s.", stats.BusiestMonth)
		}
		b.WriteString("\n")
	}

	plans, err := p.planner.VacationPlans(country, year, groundingLeaveDays, "")
	if err != nil {
		p.logger.Warn("Skipping vacation plans in grounding", zap.String("country", country), zap.Error(err))
		return
	}
	if len(plans) > groundingPlans {
		plans = plans[:groundingPlans]
	}

	fmt.Fprintf(b, "\nBest vacation plans in %d (up to %d leave days):\n", year, groundingLeaveDays)
	if len(plans) == 0 {
		b.WriteString("- none\n")
		return
	}
	tr := p.resolver.Translator()
	for _, plan := range plans {
		names := make([]string, 0, len(plan.Holidays))
		for _, h := range plan.Holidays {
			names = append(names, tr.HolidayName(h, language))
		}
		fmt.Fprintf(b, "- leave %s..%s (%d working days) gives %d days off %s..%s around %s\n",
			dateutil.FormatDate(plan.LeaveStart), dateutil.FormatDate(plan.LeaveEnd), plan.LeaveDays,
			plan.DaysOff, dateutil.FormatDate(plan.Start), dateutil.FormatDate(plan.End),
			strings.Join(names, ", "))
	}
}
