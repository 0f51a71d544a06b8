package services

import (
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/pt"
	"github.com/rickar/cal/v2/us"
)

// HolidayNone means weekdays are working days and nothing else is skipped.
const HolidayNone = "none"

// HolidayService decides which days scheduled reports run on.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
	countries []CountryInfo
}

type CountryInfo struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{calendars: make(map[string]*cal.BusinessCalendar)}
	s.add("es", "España", es.Holidays...)
	s.add("pt", "Portugal", pt.Holidays...)
	s.add("fr", "Francia", fr.Holidays...)
	s.add("it", "Italia", it.Holidays...)
	s.add("de", "Alemania", de.Holidays...)
	s.add("gb", "Reino Unido", gb.Holidays...)
	s.add("us", "Estados Unidos", us.Holidays...)
	s.countries = append(s.countries, CountryInfo{Code: HolidayNone, Name: "Solo días laborables (lunes a viernes)"})
	return s
}

func (s *HolidayService) add(code, name string, holidays ...*cal.Holiday) {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	s.calendars[code] = c
	s.countries = append(s.countries, CountryInfo{Code: code, Name: name})
}

// IsWorkday reports whether t is a working day in the country. Unknown
// codes fall back to weekdays only.
func (s *HolidayService) IsWorkday(t time.Time, countryCode string) bool {
	c, ok := s.calendars[strings.ToLower(strings.TrimSpace(countryCode))]
	if !ok {
		return !cal.IsWeekend(t)
	}
	return c.IsWorkday(t)
}

func (s *HolidayService) SupportedCountries() []CountryInfo {
	return s.countries
}
