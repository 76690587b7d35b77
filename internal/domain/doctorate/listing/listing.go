// Package listing filters, sorts and paginates the doctorate search
// projection.
package listing

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/doctrack/doctrack/internal/domain/doctorate/domain"
	"github.com/doctrack/doctrack/internal/domain/doctorate/dto"
)

// Row is one doctorate in the search projection: the listed fields plus
// the fields only used for filtering and visibility.
type Row struct {
	dto.DoctorateSearchDTO

	Serial                        int        `json:"serial"`
	Noma                          string     `json:"noma,omitempty"`
	CreatedAt                     time.Time  `json:"created_at"`
	ConfirmationDate              *time.Time `json:"confirmation_date,omitempty"`
	FundingType                   string     `json:"funding_type,omitempty"`
	OtherInternationalScholarship string     `json:"other_international_scholarship,omitempty"`
	FNRSFRIAFRESH                 bool       `json:"fnrs_fria_fresh,omitempty"`
	Institute                     string     `json:"institute,omitempty"`
	Sector                        string     `json:"sector,omitempty"`
	ProximityCommission           string     `json:"proximity_commission,omitempty"`
	PromoterIDs                   []string   `json:"promoter_ids,omitempty"`
	CAMemberIDs                   []string   `json:"ca_member_ids,omitempty"`
	JuryMemberIDs                 []string   `json:"jury_member_ids,omitempty"`
	JuryPresidentID               string     `json:"jury_president_id,omitempty"`
}

// NewRow projects a doctorate. papers are all its confirmation papers; the
// confirmation date comes from the active one.
func NewRow(d *domain.Doctorate, g *domain.SupervisionGroup, j *domain.Jury, papers []*domain.ConfirmationPaper) Row {
	s, t, f := d.Student(), d.Training(), d.Funding()
	r := Row{
		DoctorateSearchDTO: dto.DoctorateSearchDTO{
			ID:               string(d.ID()),
			Reference:        d.Reference(),
			Status:           d.Status(),
			StudentID:        s.PersonID,
			StudentFirstName: s.FirstName,
			StudentLastName:  s.LastName,
			Training: dto.TrainingDTO{
				ID:            t.ID,
				Code:          t.Code,
				Acronym:       t.Acronym,
				Title:         t.Title,
				CDD:           t.CDD,
				AcademicYear:  t.AcademicYear,
				AdmissionType: t.AdmissionType,
			},
			AdmittedAt:  d.AdmittedAt(),
			Scholarship: f.Scholarship,
			Cotutelle:   d.Cotutelle().Enabled,
		},
		Serial:                        d.Serial(),
		Noma:                          s.Noma,
		CreatedAt:                     d.CreatedAt(),
		FundingType:                   string(f.Type),
		OtherInternationalScholarship: f.OtherInternationalScholarship,
		FNRSFRIAFRESH:                 f.FNRSFRIAFRESH,
		Institute:                     d.Project().Institute,
		Sector:                        t.Sector,
		ProximityCommission:           d.Project().ProximityCommission,
	}
	if p, err := domain.ActivePaper(papers); err == nil && p.Date != nil {
		date := *p.Date
		r.ConfirmationDate = &date
	}
	if g != nil {
		r.PromoterIDs = personIDs(g.Promoters())
		r.CAMemberIDs = personIDs(g.CAMembers())
	}
	if j != nil {
		r.JuryMemberIDs = personIDs(j.Members())
		if p, ok := j.President(); ok {
			r.JuryPresidentID = domain.PersonID(p.Identity)
		}
	}
	return r
}

func personIDs[R ~string](members []domain.Signatory[R]) []string {
	var out []string
	for _, m := range members {
		if id := domain.PersonID(m.Identity); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// DateType selects the date DateStart and DateEnd apply to.
type DateType string

// Date types.
const (
	DateAdmission    DateType = "ADMISSION"
	DateConfirmation DateType = "CONFIRMATION"
)

// SortField is a sortable column.
type SortField string

// Sortable columns.
const (
	SortReference     SortField = "reference"
	SortStudentName   SortField = "student_name"
	SortTraining      SortField = "training"
	SortScholarship   SortField = "scholarship"
	SortStatus        SortField = "status"
	SortAdmittedAt    SortField = "admitted_at"
	SortAdmissionType SortField = "admission_type"
	SortCotutelle     SortField = "cotutelle"
)

// Filter holds the listing criteria. Zero values do not filter.
type Filter struct {
	Reference           string                   `json:"reference,omitempty"`
	Noma                string                   `json:"noma,omitempty"`
	StudentID           string                   `json:"student_id,omitempty"`
	StudentName         string                   `json:"student_name,omitempty"`
	AdmissionType       string                   `json:"admission_type,omitempty"`
	Statuses            []domain.DoctorateStatus `json:"statuses,omitempty"`
	AcademicYear        int                      `json:"academic_year,omitempty"`
	PromoterID          string                   `json:"promoter_id,omitempty"`
	JuryPresidentID     string                   `json:"jury_president_id,omitempty"`
	CDDs                []string                 `json:"cdds,omitempty"`
	ProximityCommission string                   `json:"proximity_commission,omitempty"`
	FundingType         string                   `json:"funding_type,omitempty"`
	Scholarship         string                   `json:"scholarship,omitempty"`
	FNRSFRIAFRESH       bool                     `json:"fnrs_fria_fresh,omitempty"`
	Institutes          []string                 `json:"institutes,omitempty"`
	Sectors             []string                 `json:"sectors,omitempty"`
	TrainingAcronyms    []string                 `json:"training_acronyms,omitempty"`
	DateType            DateType                 `json:"date_type,omitempty"`
	DateStart           *time.Time               `json:"date_start,omitempty"`
	DateEnd             *time.Time               `json:"date_end,omitempty"`
	SortBy              SortField                `json:"sort_by,omitempty"`
	Descending          bool                     `json:"descending,omitempty"`
	Page                int                      `json:"page,omitempty"`
	PageSize            int                      `json:"page_size,omitempty"`
}

// PaginatedList is one page of the listing. IDs holds every matching
// doctorate in listing order, not only the page.
type PaginatedList struct {
	Items    []dto.DoctorateSearchDTO `json:"items"`
	Total    int                      `json:"total"`
	IDs      []string                 `json:"ids"`
	Page     int                      `json:"page,omitempty"`
	PageSize int                      `json:"page_size,omitempty"`
}

// fold returns the case-folded form of s. Casers are stateful, so one is
// built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

func contains(haystack, needle string) bool {
	return strings.Contains(fold(haystack), fold(needle))
}

func equalFold(a, b string) bool {
	return fold(a) == fold(b)
}

// Visible reports whether c may see r in the listing. Institution-wide
// managers see everything; CDD managers see their CDDs; others only see
// the doctorates they take part in.
func Visible(c domain.Caller, r Row) bool {
	if c.Has(domain.RoleADREManager) || c.Has(domain.RoleSCEBManager) || c.Has(domain.RoleADRIManager) {
		return true
	}
	if c.ManagesCDD(r.Training.CDD) {
		return true
	}
	if c.PersonID == "" {
		return false
	}
	if r.StudentID == c.PersonID {
		return true
	}
	for _, ids := range [][]string{r.PromoterIDs, r.CAMemberIDs, r.JuryMemberIDs} {
		if hasString(ids, c.PersonID) {
			return true
		}
	}
	return false
}

// Match reports whether r satisfies every set criterion of f.
func (f Filter) Match(r Row) bool {
	switch {
	case f.Reference != "" && !contains(r.Reference, f.Reference):
		return false
	case f.Noma != "" && r.Noma != f.Noma:
		return false
	case f.StudentID != "" && r.StudentID != f.StudentID:
		return false
	case f.StudentName != "" && !contains(r.StudentLastName+" "+r.StudentFirstName, f.StudentName) &&
		!contains(r.StudentFirstName+" "+r.StudentLastName, f.StudentName):
		return false
	case f.AdmissionType != "" && r.Training.AdmissionType != f.AdmissionType:
		return false
	case len(f.Statuses) > 0 && !hasStatus(f.Statuses, r.Status):
		return false
	case f.AcademicYear != 0 && r.Training.AcademicYear != f.AcademicYear:
		return false
	case f.PromoterID != "" && !hasString(r.PromoterIDs, f.PromoterID):
		return false
	case f.JuryPresidentID != "" && r.JuryPresidentID != f.JuryPresidentID:
		return false
	case len(f.CDDs) > 0 && !hasFold(f.CDDs, r.Training.CDD):
		return false
	case f.ProximityCommission != "" && r.ProximityCommission != f.ProximityCommission:
		return false
	case f.FundingType != "" && r.FundingType != f.FundingType:
		return false
	case f.Scholarship != "" && !f.matchScholarship(r):
		return false
	case f.FNRSFRIAFRESH && !r.FNRSFRIAFRESH:
		return false
	case len(f.Institutes) > 0 && !hasString(f.Institutes, r.Institute):
		return false
	case len(f.Sectors) > 0 && !hasFold(f.Sectors, r.Sector):
		return false
	case len(f.TrainingAcronyms) > 0 && !hasFold(f.TrainingAcronyms, r.Training.Acronym):
		return false
	}
	return f.matchDates(r)
}

// matchScholarship treats OTHER as "any free-form international scholarship".
func (f Filter) matchScholarship(r Row) bool {
	if f.Scholarship == domain.OtherScholarship {
		return r.OtherInternationalScholarship != ""
	}
	return r.Scholarship == f.Scholarship
}

func (f Filter) matchDates(r Row) bool {
	if f.DateStart == nil && f.DateEnd == nil {
		return true
	}
	var date *time.Time
	switch f.DateType {
	case DateConfirmation:
		date = r.ConfirmationDate
	case DateAdmission, "":
		date = &r.CreatedAt
	default:
		return true
	}
	if date == nil {
		return false
	}
	if f.DateStart != nil && date.Before(*f.DateStart) {
		return false
	}
	if f.DateEnd != nil && date.After(*f.DateEnd) {
		return false
	}
	return true
}

func hasStatus(set []domain.DoctorateStatus, s domain.DoctorateStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func hasString(set []string, s string) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func hasFold(set []string, s string) bool {
	for _, x := range set {
		if equalFold(x, s) {
			return true
		}
	}
	return false
}

var statusRank = func() map[domain.DoctorateStatus]int {
	m := make(map[domain.DoctorateStatus]int)
	for i, s := range domain.AllStatuses() {
		m[s] = i
	}
	return m
}()

// compare orders two rows on field; ties are left to the caller.
func compare(field SortField, a, b Row) int {
	switch field {
	case SortReference:
		return strings.Compare(a.Reference, b.Reference)
	case SortStudentName:
		if c := strings.Compare(fold(a.StudentLastName), fold(b.StudentLastName)); c != 0 {
			return c
		}
		return strings.Compare(fold(a.StudentFirstName), fold(b.StudentFirstName))
	case SortTraining:
		return strings.Compare(a.Training.Acronym, b.Training.Acronym)
	case SortScholarship:
		return strings.Compare(a.Scholarship, b.Scholarship)
	case SortStatus:
		return statusRank[a.Status] - statusRank[b.Status]
	case SortAdmittedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortAdmissionType:
		return strings.Compare(a.Training.AdmissionType, b.Training.AdmissionType)
	case SortCotutelle:
		return boolRank(a.Cotutelle) - boolRank(b.Cotutelle)
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Apply filters rows visible to c, sorts them and cuts the requested page.
// Rows tying on the sort field are ordered by ascending serial, whatever
// the direction. Pagination only applies when both Page and PageSize are
// set.
func Apply(rows []Row, f Filter, c domain.Caller) PaginatedList {
	matched := make([]Row, 0, len(rows))
	for _, r := range rows {
		if Visible(c, r) && f.Match(r) {
			matched = append(matched, r)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		c := compare(f.SortBy, a, b)
		if f.Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.Serial < b.Serial
	})

	out := PaginatedList{Total: len(matched), IDs: make([]string, len(matched))}
	for i, r := range matched {
		out.IDs[i] = r.ID
	}

	page := matched
	if f.Page > 0 && f.PageSize > 0 {
		out.Page, out.PageSize = f.Page, f.PageSize
		start := (f.Page - 1) * f.PageSize
		switch {
		case start >= len(matched):
			page = nil
		case start+f.PageSize > len(matched):
			page = matched[start:]
		default:
			page = matched[start : start+f.PageSize]
		}
	}
	out.Items = make([]dto.DoctorateSearchDTO, len(page))
	for i, r := range page {
		out.Items[i] = r.DoctorateSearchDTO
	}
	return out
}

// ParseSortField validates a sort column name.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortReference, SortStudentName, SortTraining, SortScholarship, SortStatus,
		SortAdmittedAt, SortAdmissionType, SortCotutelle, "":
		return f, true
	}
	return "", false
}
