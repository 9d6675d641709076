// Package testutil provides test fixtures and a fake records service.
//
// # Fake records service
//
// NewUpstream starts an httptest server that speaks the student and
// scholarship routes of the records service, keeps records in memory and
// remembers every request it saw:
//
//	up := testutil.NewUpstream(t)
//	up.SeedStudents(testutil.DefaultStudent())
//	up.FailNext(testutil.Failure{Status: 500, Body: "boom"})
//
// Multipart creates are parsed, so tests can inspect the text fields and
// the uploaded PDF through Requests or Upload.
//
// # Fixtures
//
// JSON fixtures are embedded using go:embed:
//
//	fixtures/students.json
//	fixtures/scholarships.json
//
// # Test environment
//
// NewTestEnv wires a fake records service, a temporary state directory and
// an App into app.Default, restoring the previous default on cleanup:
//
//	func TestList(t *testing.T) {
//	    env := testutil.NewTestEnv(t)
//	    env.SeedFixtures()
//	    // run a command against app.Default
//	}
package testutil
