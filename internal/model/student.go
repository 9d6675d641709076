package model

import "strings"

// Student is a student record.
type Student struct {
	ID     ID     `json:"id,omitempty"`
	Nom    string `json:"nom" validate:"required"`
	Prenom string `json:"prenom" validate:"required"`
	CNE    string `json:"cne" validate:"required"`
}

// Normalize trims surrounding whitespace from every text field.
func (s *Student) Normalize() {
	s.Nom = strings.TrimSpace(s.Nom)
	s.Prenom = strings.TrimSpace(s.Prenom)
	s.CNE = strings.TrimSpace(s.CNE)
}

// Validate reports every missing field.
func (s Student) Validate() error {
	return Validate(s)
}

// FilterStudents keeps the students whose nom, prenom or CNE contains term,
// ignoring case. An empty term keeps everything.
func FilterStudents(students []Student, term string) []Student {
	if strings.TrimSpace(term) == "" {
		return students
	}
	needle := strings.ToLower(term)
	var out []Student
	for _, s := range students {
		if containsFold(s.Nom, needle) || containsFold(s.Prenom, needle) || containsFold(s.CNE, needle) {
			out = append(out, s)
		}
	}
	return out
}

func containsFold(field, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(field), lowerNeedle)
}
