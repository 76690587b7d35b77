package handlers

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/listing"
	dterrors "github.com/doctrack/doctrack/internal/errors"
)

const filterOp = "http.parseFilter"

// parseFilter reads the listing criteria from query parameters. List
// parameters accept repeated keys and comma separated values.
func parseFilter(q url.Values) (listing.Filter, error) {
	f := listing.Filter{
		Reference:           q.Get("reference"),
		Noma:                q.Get("noma"),
		StudentID:           q.Get("student_id"),
		StudentName:         q.Get("student_name"),
		AdmissionType:       q.Get("admission_type"),
		PromoterID:          q.Get("promoter_id"),
		JuryPresidentID:     q.Get("jury_president_id"),
		ProximityCommission: q.Get("proximity_commission"),
		FundingType:         q.Get("funding_type"),
		Scholarship:         q.Get("scholarship"),
		CDDs:                values(q, "cdds"),
		Institutes:          values(q, "institutes"),
		Sectors:             values(q, "sectors"),
		TrainingAcronyms:    values(q, "training_acronyms"),
	}

	for _, s := range values(q, "statuses") {
		status, err := domain.ParseDoctorateStatus(strings.ToUpper(s))
		if err != nil {
			return listing.Filter{}, dterrors.Wrap(err, dterrors.KindValidation, filterOp, "invalid status "+s)
		}
		f.Statuses = append(f.Statuses, status)
	}

	var err error
	if f.AcademicYear, err = intParam(q, "academic_year"); err != nil {
		return listing.Filter{}, err
	}
	if f.Page, err = intParam(q, "page"); err != nil {
		return listing.Filter{}, err
	}
	if f.PageSize, err = intParam(q, "page_size"); err != nil {
		return listing.Filter{}, err
	}
	if f.FNRSFRIAFRESH, err = boolParam(q, "fnrs_fria_fresh"); err != nil {
		return listing.Filter{}, err
	}
	if f.Descending, err = boolParam(q, "descending"); err != nil {
		return listing.Filter{}, err
	}

	sortBy, ok := listing.ParseSortField(q.Get("sort_by"))
	if !ok {
		return listing.Filter{}, dterrors.Validation(filterOp, "invalid sort_by "+q.Get("sort_by"))
	}
	f.SortBy = sortBy

	switch dt := listing.DateType(strings.ToUpper(q.Get("date_type"))); dt {
	case "", listing.DateAdmission, listing.DateConfirmation:
		f.DateType = dt
	default:
		return listing.Filter{}, dterrors.Validation(filterOp, "invalid date_type "+q.Get("date_type"))
	}
	if f.DateStart, err = dateParam(q, "date_start"); err != nil {
		return listing.Filter{}, err
	}
	if f.DateEnd, err = dateParam(q, "date_end"); err != nil {
		return listing.Filter{}, err
	}
	return f, nil
}

func values(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dterrors.Validation(filterOp, "invalid "+key+" "+raw)
	}
	return n, nil
}

func boolParam(q url.Values, key string) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dterrors.Validation(filterOp, "invalid "+key+" "+raw)
	}
	return b, nil
}

// dateParam accepts a calendar date or an RFC 3339 timestamp.
func dateParam(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, dterrors.Validation(filterOp, "invalid "+key+" "+raw)
}
