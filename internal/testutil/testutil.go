package testutil

import (
	"path/filepath"
	"testing"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/app"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// TestEnv holds the test environment
type TestEnv struct {
	T        *testing.T
	TmpDir   string
	Config   *config.Config
	Upstream *Upstream
	App      *app.App
	cleanup  func()
}

// NewTestEnv starts a fake records service and installs an App pointed
// at it as app.Default.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpDir := t.TempDir()
	upstream := NewUpstream(t)

	cfg := config.Default()
	cfg.Upstream = upstream.URL
	cfg.StateDir = filepath.Join(tmpDir, "state")
	cfg.Source = ""

	client, err := app.NewClient(cfg)
	if err != nil {
		t.Fatalf("Failed to create records client: %v", err)
	}

	testApp := app.New(
		app.WithConfig(cfg),
		app.WithClient(client),
	)

	originalDefault := app.Default
	app.SetDefault(testApp)

	env := &TestEnv{
		T:        t,
		TmpDir:   tmpDir,
		Config:   cfg,
		Upstream: upstream,
		App:      testApp,
		cleanup: func() {
			app.SetDefault(originalDefault)
		},
	}
	t.Cleanup(env.Cleanup)

	return env
}

// Cleanup restores the original app default
func (e *TestEnv) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

// SeedFixtures loads the embedded students and scholarships into the
// fake records service.
func (e *TestEnv) SeedFixtures() {
	e.T.Helper()

	students, err := Students()
	if err != nil {
		e.T.Fatalf("Failed to load student fixtures: %v", err)
	}
	e.Upstream.SeedStudents(students...)

	scholarships, err := Scholarships()
	if err != nil {
		e.T.Fatalf("Failed to load scholarship fixtures: %v", err)
	}
	e.Upstream.SeedScholarships(scholarships...)
}

// DefaultStudent returns a valid student for testing
func DefaultStudent() model.Student {
	return model.Student{Nom: "Test", Prenom: "Étudiant", CNE: "T000000001"}
}

// DefaultScholarshipForm returns a valid scholarship form for testing
func DefaultScholarshipForm() model.ScholarshipForm {
	return model.ScholarshipForm{
		Title:               "Bourse de test",
		University:          "Université de test",
		Description:         "Une bourse",
		AnneeAcademique:     "2025-2026",
		Amount:              "1200.50",
		Duration:            "10",
		Places:              "3",
		StartDate:           "2025-09-01",
		Deadline:            "2025-06-30",
		RequiredDocuments:   "CV\nRelevé de notes",
		EligibilityCriteria: "Moyenne: 14\nNationalité: marocaine",
	}
}
