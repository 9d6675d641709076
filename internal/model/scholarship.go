package model

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Criterion is one eligibility criterion of a scholarship.
type Criterion struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Scholarship is a scholarship record.
type Scholarship struct {
	ID                  ID          `json:"id,omitempty"`
	Title               string      `json:"title"`
	University          string      `json:"university"`
	Description         string      `json:"description"`
	AnneeAcademique     string      `json:"anneeAcademique,omitempty"`
	Amount              float64     `json:"amount"`
	Duration            int         `json:"duration"`
	Places              int         `json:"places"`
	StartDate           string      `json:"startDate"`
	Deadline            string      `json:"deadline"`
	EligibilityCriteria []Criterion `json:"eligibilityCriteria"`
	RequiredDocuments   []string    `json:"requiredDocuments"`
	PDFLink             string      `json:"pdfLink,omitempty"`
}

// ScholarshipForm is the editable text form of a scholarship.
type ScholarshipForm struct {
	ID                  ID     `json:"id,omitempty"`
	Title               string `json:"title" validate:"required"`
	University          string `json:"university" validate:"required"`
	Description         string `json:"description" validate:"required"`
	AnneeAcademique     string `json:"anneeAcademique"`
	Amount              string `json:"amount" validate:"required,numeric"`
	Duration            string `json:"duration" validate:"required,number"`
	Places              string `json:"places" validate:"required,number"`
	StartDate           string `json:"startDate" validate:"required"`
	Deadline            string `json:"deadline" validate:"required"`
	RequiredDocuments   string `json:"requiredDocuments" validate:"required"`
	EligibilityCriteria string `json:"eligibilityCriteria" validate:"required"`
	PDFLink             string `json:"pdfLink"`
}

// FormFromScholarship renders a record into its editable form.
func FormFromScholarship(s Scholarship) ScholarshipForm {
	return ScholarshipForm{
		ID:                  s.ID,
		Title:               s.Title,
		University:          s.University,
		Description:         s.Description,
		AnneeAcademique:     s.AnneeAcademique,
		Amount:              strconv.FormatFloat(s.Amount, 'f', -1, 64),
		Duration:            strconv.Itoa(s.Duration),
		Places:              strconv.Itoa(s.Places),
		StartDate:           s.StartDate,
		Deadline:            s.Deadline,
		RequiredDocuments:   FormatDocuments(s.RequiredDocuments),
		EligibilityCriteria: FormatCriteria(s.EligibilityCriteria),
		PDFLink:             s.PDFLink,
	}
}

// Normalize trims surrounding whitespace from the single-line fields.
func (f *ScholarshipForm) Normalize() {
	for _, p := range []*string{
		&f.Title, &f.University, &f.AnneeAcademique, &f.Amount, &f.Duration,
		&f.Places, &f.StartDate, &f.Deadline, &f.PDFLink,
	} {
		*p = strings.TrimSpace(*p)
	}
}

// Validate reports every missing or non-numeric field.
func (f ScholarshipForm) Validate() error {
	return Validate(f)
}

// Parse validates the form and converts it into a record.
func (f ScholarshipForm) Parse() (Scholarship, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return Scholarship{}, err
	}

	var result *multierror.Error
	amount, err := strconv.ParseFloat(f.Amount, 64)
	if err != nil {
		result = multierror.Append(result, &FieldError{Field: "amount", Message: MsgNumber})
	}
	duration, err := strconv.Atoi(f.Duration)
	if err != nil {
		result = multierror.Append(result, &FieldError{Field: "duration", Message: MsgNumber})
	}
	places, err := strconv.Atoi(f.Places)
	if err != nil {
		result = multierror.Append(result, &FieldError{Field: "places", Message: MsgNumber})
	}
	if result != nil {
		result.ErrorFormat = formatFieldErrors
		return Scholarship{}, result
	}

	return Scholarship{
		ID:                  f.ID,
		Title:               f.Title,
		University:          f.University,
		Description:         f.Description,
		AnneeAcademique:     f.AnneeAcademique,
		Amount:              amount,
		Duration:            duration,
		Places:              places,
		StartDate:           f.StartDate,
		Deadline:            f.Deadline,
		EligibilityCriteria: ParseCriteria(f.EligibilityCriteria),
		RequiredDocuments:   ParseDocuments(f.RequiredDocuments),
		PDFLink:             f.PDFLink,
	}, nil
}

// ParseCriteria reads one "name: value" criterion per line. The line is
// split at its first colon, so values may contain colons. A line without
// a colon is a name with an empty value. Blank lines are skipped.
func ParseCriteria(text string) []Criterion {
	out := []Criterion{}
	for _, line := range nonBlankLines(text) {
		name, value, _ := strings.Cut(line, ":")
		out = append(out, Criterion{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return out
}

// FormatCriteria is the inverse of ParseCriteria.
func FormatCriteria(criteria []Criterion) string {
	lines := make([]string, len(criteria))
	for i, c := range criteria {
		lines[i] = c.Name + ": " + c.Value
	}
	return strings.Join(lines, "\n")
}

// ParseDocuments reads one document per line, skipping blank lines.
func ParseDocuments(text string) []string {
	out := []string{}
	for _, line := range nonBlankLines(text) {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

// FormatDocuments is the inverse of ParseDocuments.
func FormatDocuments(docs []string) string {
	return strings.Join(docs, "\n")
}

func nonBlankLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// FilterScholarships keeps the scholarships whose title, academic year or
// university contains term, ignoring case. An empty term keeps everything.
func FilterScholarships(scholarships []Scholarship, term string) []Scholarship {
	if strings.TrimSpace(term) == "" {
		return scholarships
	}
	needle := strings.ToLower(term)
	var out []Scholarship
	for _, s := range scholarships {
		if containsFold(s.Title, needle) || containsFold(s.AnneeAcademique, needle) || containsFold(s.University, needle) {
			out = append(out, s)
		}
	}
	return out
}
