package api_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/api"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/testutil"
)

func newClient(t *testing.T, baseURL string) *api.Client {
	t.Helper()
	c, err := api.NewClient(api.ClientConfig{
		BaseURL:          baseURL,
		StudentsPath:     config.DefaultStudentsPath,
		ScholarshipsPath: config.DefaultScholarshipsPath,
	})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  api.ClientConfig
	}{
		{"empty base", api.ClientConfig{StudentsPath: "a", ScholarshipsPath: "b"}},
		{"bad scheme", api.ClientConfig{BaseURL: "ftp://x", StudentsPath: "a", ScholarshipsPath: "b"}},
		{"missing paths", api.ClientConfig{BaseURL: "http://x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := api.NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewClient_TrimsSlashes(t *testing.T) {
	c := newClient(t, "http://localhost:3000/proxy/")
	assert.Equal(t, "http://localhost:3000/proxy", c.BaseURL())
}

func TestStudents_CRUD(t *testing.T) {
	up := testutil.NewUpstream(t)
	c := newClient(t, up.URL)
	ctx := context.Background()

	created, err := c.CreateStudent(ctx, model.Student{ID: "999", Nom: "Alami", Prenom: "Sara", CNE: "R1"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, model.ID("999"), created.ID, "id must not be sent on create")

	last, _ := up.LastRequest()
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "application/json", last.ContentType)
	assert.NotContains(t, string(last.Body), `"id"`)

	list, err := c.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := c.GetStudent(ctx, string(created.ID))
	require.NoError(t, err)
	assert.Equal(t, "Alami", got.Nom)

	updated, err := c.UpdateStudent(ctx, string(created.ID), model.Student{Nom: "Alami", Prenom: "Salma", CNE: "R1"})
	require.NoError(t, err)
	assert.Equal(t, "Salma", updated.Prenom)
	last, _ = up.LastRequest()
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/"+config.DefaultStudentsPath+"/"+string(created.ID), last.Path)

	require.NoError(t, c.DeleteStudent(ctx, string(created.ID)))
	assert.Empty(t, up.Students())

	_, err = c.GetStudent(ctx, string(created.ID))
	assert.True(t, api.IsNotFound(err))
}

func TestStatusError_Message(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"message field", http.StatusConflict, "application/json", `{"message":"CNE déjà utilisé"}`, "CNE déjà utilisé"},
		{"no message", http.StatusInternalServerError, "application/json", `{"error":"x"}`, "Erreur: 500"},
		{"plain text", http.StatusBadGateway, "text/plain", "bad gateway", "Erreur: 502"},
		{"empty", http.StatusNotFound, "", "", "Erreur: 404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testutil.NewUpstream(t)
			up.FailNext(testutil.Failure{Status: tt.status, ContentType: tt.contentType, Body: tt.body})
			c := newClient(t, up.URL)

			_, err := c.ListStudents(context.Background())
			require.Error(t, err)

			var se *api.StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.want, se.Error())
			assert.Equal(t, http.MethodGet, se.Method)
		})
	}
}

func TestDelete_AcceptsSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	assert.NoError(t, c.DeleteScholarship(context.Background(), "1"))
}

func TestRequestHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "[]")
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.ListScholarships(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "application/json", got.Get("Accept"))
	assert.NotEmpty(t, got.Get("X-Request-Id"))
}

func TestItemPath_EscapesID(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		io.WriteString(w, "{}")
	}))
	defer srv.Close()

	c := newClient(t, srv.URL)
	_, err := c.GetStudent(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/"+config.DefaultStudentsPath+"/a%2Fb", path)
}

func TestPing(t *testing.T) {
	up := testutil.NewUpstream(t)
	c := newClient(t, up.URL)
	d, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	_, err := c.ListStudents(context.Background())
	require.Error(t, err)
	var se *api.StatusError
	assert.False(t, errors.As(err, &se))
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := api.NewClient(api.ClientConfig{
		BaseURL:          srv.URL,
		StudentsPath:     "s",
		ScholarshipsPath: "b",
		Timeout:          50 * time.Millisecond,
	})
	require.NoError(t, err)
	_, err = c.ListStudents(context.Background())
	assert.Error(t, err)
}

func TestCreateScholarship_Multipart(t *testing.T) {
	up := testutil.NewUpstream(t)
	c := newClient(t, up.URL)

	form := testutil.DefaultScholarshipForm()
	pdf := &api.Attachment{Filename: "/tmp/reglement.pdf", Content: strings.NewReader("%PDF-1.4 test")}

	created, err := c.CreateScholarship(context.Background(), form, pdf)
	require.NoError(t, err)
	assert.Equal(t, 1200.5, created.Amount)
	assert.Equal(t, []string{"CV", "Relevé de notes"}, created.RequiredDocuments)
	assert.Equal(t, []model.Criterion{{Name: "Moyenne", Value: "14"}, {Name: "Nationalité", Value: "marocaine"}}, created.EligibilityCriteria)

	last, ok := up.LastRequest()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(last.ContentType, "multipart/form-data; boundary="))
	assert.Equal(t, "Bourse de test", last.Form["title"])
	assert.Equal(t, "1200.50", last.Form["amount"])
	assert.Equal(t, form.EligibilityCriteria, last.Form["eligibilityCriteria"])

	file, ok := last.Files["pdfLink"]
	require.True(t, ok)
	assert.Equal(t, "reglement.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "%PDF-1.4 test", string(file.Content))
}

func TestCreateScholarship_WithoutPDF(t *testing.T) {
	up := testutil.NewUpstream(t)
	c := newClient(t, up.URL)

	_, err := c.CreateScholarship(context.Background(), testutil.DefaultScholarshipForm(), nil)
	require.NoError(t, err)
	last, _ := up.LastRequest()
	assert.Empty(t, last.Files)
}

func TestCreateScholarship_InvalidFormIsNotSent(t *testing.T) {
	up := testutil.NewUpstream(t)
	c := newClient(t, up.URL)

	form := testutil.DefaultScholarshipForm()
	form.Title = ""
	form.Places = "beaucoup"

	_, err := c.CreateScholarship(context.Background(), form, nil)
	require.Error(t, err)

	fields := map[string]string{}
	for _, fe := range model.FieldErrors(err) {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, model.MsgRequired, fields["title"])
	assert.Equal(t, model.MsgNumber, fields["places"])
	assert.Empty(t, up.Requests())
}

func TestUpdateScholarship_JSON(t *testing.T) {
	up := testutil.NewUpstream(t)
	up.SeedScholarships(model.Scholarship{ID: "7", Title: "Old"})
	c := newClient(t, up.URL)

	updated, err := c.UpdateScholarship(context.Background(), "7", model.Scholarship{Title: "New", Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)

	last, _ := up.LastRequest()
	assert.Equal(t, "application/json", last.ContentType)
	assert.Contains(t, string(last.Body), `"eligibilityCriteria":[]`)
	assert.Contains(t, string(last.Body), `"requiredDocuments":[]`)
	assert.Contains(t, string(last.Body), `"id":7`)
}
