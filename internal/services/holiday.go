package services

import (
	"sort"
	"time"

	"github.com/6tail/lunar-go/HolidayUtil"
	"github.com/6tail/lunar-go/calendar"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/au"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/br"
	"github.com/rickar/cal/v2/ca"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fi"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/jp"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/nz"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/us"
)

const (
	CountryNone  = "NONE"
	countryChina = "CN"
)

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// HolidayService answers working-day questions for a configured country.
// China uses the lunar-go adjusted schedule, which includes make-up
// workdays on weekends.
type HolidayService struct {
	country   string
	calendars map[string]*cal.BusinessCalendar
}

type countryCalendar struct {
	code     string
	name     string
	holidays []*cal.Holiday
}

var countryCalendars = []countryCalendar{
	{"US", "United States", us.Holidays},
	{"GB", "United Kingdom", gb.Holidays},
	{"DE", "Germany", de.Holidays},
	{"FR", "France", fr.Holidays},
	{"JP", "Japan", jp.Holidays},
	{"AU", "Australia", au.HolidaysNSW},
	{"CA", "Canada", ca.Holidays},
	{"NZ", "New Zealand", nz.Holidays},
	{"IT", "Italy", it.Holidays},
	{"ES", "Spain", es.Holidays},
	{"NL", "Netherlands", nl.Holidays},
	{"BE", "Belgium", be.Holidays},
	{"AT", "Austria", at.Holidays},
	{"CH", "Switzerland", ch.Holidays},
	{"SE", "Sweden", se.Holidays},
	{"NO", "Norway", no.Holidays},
	{"DK", "Denmark", dk.Holidays},
	{"FI", "Finland", fi.Holidays},
	{"PL", "Poland", pl.Holidays},
	{"PT", "Portugal", pt.Holidays},
	{"IE", "Ireland", ie.Holidays},
	{"BR", "Brazil", br.Holidays},
}

// NewHolidayService builds the calendars. Unknown country codes fall back
// to weekdays only.
func NewHolidayService(country string) *HolidayService {
	s := &HolidayService{
		country:   country,
		calendars: make(map[string]*cal.BusinessCalendar, len(countryCalendars)),
	}
	for _, cc := range countryCalendars {
		c := cal.NewBusinessCalendar()
		c.Name = cc.name
		c.AddHoliday(cc.holidays...)
		s.calendars[cc.code] = c
	}
	if !s.Supported(country) {
		s.country = CountryNone
	}
	return s
}

func (s *HolidayService) Country() string {
	return s.country
}

func (s *HolidayService) Supported(code string) bool {
	if code == CountryNone || code == countryChina {
		return true
	}
	_, ok := s.calendars[code]
	return ok
}

func (s *HolidayService) IsWorkday(t time.Time) bool {
	switch s.country {
	case countryChina:
		solar := calendar.NewSolarFromDate(t)
		if h := HolidayUtil.GetHolidayByYmd(solar.GetYear(), solar.GetMonth(), solar.GetDay()); h != nil {
			return h.IsWork()
		}
		return !cal.IsWeekend(t)
	case CountryNone:
		return !cal.IsWeekend(t)
	}
	return s.calendars[s.country].IsWorkday(t)
}

// BusinessDaysUntil counts working days after from up to and including to.
// It returns 0 when to is not after from.
func (s *HolidayService) BusinessDaysUntil(from, to time.Time) int {
	start := truncateDay(from)
	end := truncateDay(to)
	days := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if s.IsWorkday(d) {
			days++
		}
	}
	return days
}

func (s *HolidayService) SupportedCountries() []CountryInfo {
	out := make([]CountryInfo, 0, len(countryCalendars)+2)
	out = append(out, CountryInfo{Code: countryChina, Name: "China"})
	for _, cc := range countryCalendars {
		out = append(out, CountryInfo{Code: cc.code, Name: cc.name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return append(out, CountryInfo{Code: CountryNone, Name: "Weekdays only (Mon-Fri)"})
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
