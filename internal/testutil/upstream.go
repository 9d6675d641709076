package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ZahirOuma/Excellia-FrontEnd/internal/config"
	"github.com/ZahirOuma/Excellia-FrontEnd/internal/model"
)

// Request is what the fake records service saw for one call.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	ContentType string
	Body        []byte
	// Form holds the text fields of a multipart body.
	Form map[string]string
	// Files maps multipart file field names to their uploads.
	Files map[string]Upload
}

// Upload is one file part of a multipart body.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Failure makes the next matching call answer with a canned response.
type Failure struct {
	Status      int
	ContentType string
	Body        string
}

// Upstream is an in-memory records service speaking the student and
// scholarship routes.
type Upstream struct {
	*httptest.Server

	mu           sync.Mutex
	nextID       int
	students     map[string]model.Student
	scholarships map[string]model.Scholarship
	requests     []Request
	failures     []Failure
	uploads      map[string]Upload
}

// NewUpstream starts a fake records service, closed with the test.
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()

	u := &Upstream{
		nextID:       100,
		students:     make(map[string]model.Student),
		scholarships: make(map[string]model.Scholarship),
		uploads:      make(map[string]Upload),
	}

	students := "/" + config.DefaultStudentsPath
	scholarships := "/" + config.DefaultScholarshipsPath

	r := mux.NewRouter()
	r.Use(u.record)
	r.HandleFunc(students, u.listStudents).Methods(http.MethodGet)
	r.HandleFunc(students, u.createStudent).Methods(http.MethodPost)
	r.HandleFunc(students+"/{id}", u.getStudent).Methods(http.MethodGet)
	r.HandleFunc(students+"/{id}", u.updateStudent).Methods(http.MethodPut)
	r.HandleFunc(students+"/{id}", u.deleteStudent).Methods(http.MethodDelete)
	r.HandleFunc(scholarships, u.listScholarships).Methods(http.MethodGet)
	r.HandleFunc(scholarships, u.createScholarship).Methods(http.MethodPost)
	r.HandleFunc(scholarships+"/{id}", u.getScholarship).Methods(http.MethodGet)
	r.HandleFunc(scholarships+"/{id}", u.updateScholarship).Methods(http.MethodPut)
	r.HandleFunc(scholarships+"/{id}", u.deleteScholarship).Methods(http.MethodDelete)

	u.Server = httptest.NewServer(r)
	t.Cleanup(u.Close)
	return u
}

// SeedStudents stores students as if they had been created.
func (u *Upstream) SeedStudents(students ...model.Student) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range students {
		if s.ID == "" {
			s.ID = u.newID()
		}
		u.students[string(s.ID)] = s
	}
}

// SeedScholarships stores scholarships as if they had been created.
func (u *Upstream) SeedScholarships(list ...model.Scholarship) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, s := range list {
		if s.ID == "" {
			s.ID = u.newID()
		}
		u.scholarships[string(s.ID)] = s
	}
}

// FailNext queues canned answers for the next calls, in order.
func (u *Upstream) FailNext(failures ...Failure) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failures = append(u.failures, failures...)
}

// Requests returns every call received so far.
func (u *Upstream) Requests() []Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Request(nil), u.requests...)
}

// LastRequest returns the most recent call.
func (u *Upstream) LastRequest() (Request, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.requests) == 0 {
		return Request{}, false
	}
	return u.requests[len(u.requests)-1], true
}

// Students returns the stored students ordered by id.
func (u *Upstream) Students() []model.Student {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]model.Student, 0, len(u.students))
	for _, s := range u.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

// Scholarships returns the stored scholarships ordered by id.
func (u *Upstream) Scholarships() []model.Scholarship {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]model.Scholarship, 0, len(u.scholarships))
	for _, s := range u.scholarships {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

func idLess(a, b model.ID) bool {
	ai, aerr := strconv.Atoi(string(a))
	bi, berr := strconv.Atoi(string(b))
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// newID must be called with mu held.
func (u *Upstream) newID() model.ID {
	u.nextID++
	return model.ID(strconv.Itoa(u.nextID))
}

// record captures the request and serves a queued failure if any.
func (u *Upstream) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Method:      r.Method,
			Path:        r.URL.EscapedPath(),
			RawQuery:    r.URL.RawQuery,
			ContentType: r.Header.Get("Content-Type"),
		}

		if strings.HasPrefix(req.ContentType, "multipart/form-data") {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			req.Form = make(map[string]string)
			for k, v := range r.MultipartForm.Value {
				req.Form[k] = v[0]
			}
			req.Files = make(map[string]Upload)
			for k, headers := range r.MultipartForm.File {
				f, err := headers[0].Open()
				if err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				content, _ := io.ReadAll(f)
				f.Close()
				req.Files[k] = Upload{
					Filename:    headers[0].Filename,
					ContentType: headers[0].Header.Get("Content-Type"),
					Content:     content,
				}
			}
		} else {
			req.Body, _ = io.ReadAll(r.Body)
		}

		u.mu.Lock()
		u.requests = append(u.requests, req)
		var failure *Failure
		if len(u.failures) > 0 {
			failure = &u.failures[0]
			u.failures = u.failures[1:]
		}
		u.mu.Unlock()

		if failure != nil {
			if failure.ContentType != "" {
				w.Header().Set("Content-Type", failure.ContentType)
			}
			w.WriteHeader(failure.Status)
			io.WriteString(w, failure.Body)
			return
		}

		next.ServeHTTP(w, withRecorded(r, req))
	})
}

type recordedKey struct{}

func withRecorded(r *http.Request, req Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), recordedKey{}, req))
}

func recorded(r *http.Request) Request {
	req, _ := r.Context().Value(recordedKey{}).(Request)
	return req
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (u *Upstream) listStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, u.Students())
}

func (u *Upstream) getStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u.mu.Lock()
	s, ok := u.students[id]
	u.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Étudiant introuvable")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (u *Upstream) decodeStudent(w http.ResponseWriter, r *http.Request) (model.Student, bool) {
	var s model.Student
	if err := json.Unmarshal(recorded(r).Body, &s); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON invalide")
		return s, false
	}
	if err := s.Validate(); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return s, false
	}
	return s, true
}

func (u *Upstream) createStudent(w http.ResponseWriter, r *http.Request) {
	s, ok := u.decodeStudent(w, r)
	if !ok {
		return
	}
	u.mu.Lock()
	for _, existing := range u.students {
		if existing.CNE == s.CNE {
			u.mu.Unlock()
			writeMessage(w, http.StatusConflict, "CNE déjà utilisé: "+s.CNE)
			return
		}
	}
	s.ID = u.newID()
	u.students[string(s.ID)] = s
	u.mu.Unlock()
	writeJSON(w, http.StatusCreated, s)
}

func (u *Upstream) updateStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, ok := u.decodeStudent(w, r)
	if !ok {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, exists := u.students[id]; !exists {
		writeMessage(w, http.StatusNotFound, "Étudiant introuvable")
		return
	}
	s.ID = model.ID(id)
	u.students[id] = s
	writeJSON(w, http.StatusOK, s)
}

func (u *Upstream) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.students[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Étudiant introuvable")
		return
	}
	delete(u.students, id)
	w.WriteHeader(http.StatusNoContent)
}

func (u *Upstream) listScholarships(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, u.Scholarships())
}

func (u *Upstream) getScholarship(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u.mu.Lock()
	s, ok := u.scholarships[id]
	u.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "Bourse introuvable")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (u *Upstream) createScholarship(w http.ResponseWriter, r *http.Request) {
	req := recorded(r)
	if req.Form == nil {
		writeMessage(w, http.StatusUnsupportedMediaType, "multipart/form-data attendu")
		return
	}

	form := model.ScholarshipForm{
		Title:               req.Form["title"],
		University:          req.Form["university"],
		Description:         req.Form["description"],
		AnneeAcademique:     req.Form["anneeAcademique"],
		Amount:              req.Form["amount"],
		Duration:            req.Form["duration"],
		Places:              req.Form["places"],
		StartDate:           req.Form["startDate"],
		Deadline:            req.Form["deadline"],
		RequiredDocuments:   req.Form["requiredDocuments"],
		EligibilityCriteria: req.Form["eligibilityCriteria"],
	}
	s, err := form.Parse()
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	u.mu.Lock()
	s.ID = u.newID()
	if pdf, ok := req.Files["pdfLink"]; ok {
		s.PDFLink = "/files/" + string(s.ID) + "/" + pdf.Filename
		u.uploads[string(s.ID)] = pdf
	}
	u.scholarships[string(s.ID)] = s
	u.mu.Unlock()
	writeJSON(w, http.StatusCreated, s)
}

// Upload returns the PDF stored with a scholarship.
func (u *Upstream) Upload(id string) (Upload, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	up, ok := u.uploads[id]
	return up, ok
}

func (u *Upstream) updateScholarship(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var s model.Scholarship
	if err := json.Unmarshal(recorded(r).Body, &s); err != nil {
		writeMessage(w, http.StatusBadRequest, "JSON invalide")
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.scholarships[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Bourse introuvable")
		return
	}
	s.ID = model.ID(id)
	u.scholarships[id] = s
	writeJSON(w, http.StatusOK, s)
}

func (u *Upstream) deleteScholarship(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.scholarships[id]; !ok {
		writeMessage(w, http.StatusNotFound, "Bourse introuvable")
		return
	}
	delete(u.scholarships, id)
	w.WriteHeader(http.StatusNoContent)
}
