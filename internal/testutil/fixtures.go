package testutil

import (
	"embed"
	"encoding/json"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

//go:embed fixtures/*.json
var fixturesFS embed.FS

// LoadFixture loads a JSON fixture file by name.
func LoadFixture(name string) ([]byte, error) {
	return fixturesFS.ReadFile("fixtures/" + name)
}

// Students returns the student fixtures.
func Students() ([]model.Student, error) {
	data, err := LoadFixture("students.json")
	if err != nil {
		return nil, err
	}
	var students []model.Student
	if err := json.Unmarshal(data, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// Scholarships returns the scholarship fixtures.
func Scholarships() ([]model.Scholarship, error) {
	data, err := LoadFixture("scholarships.json")
	if err != nil {
		return nil, err
	}
	var list []model.Scholarship
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
