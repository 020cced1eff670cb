package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/IgorLuiz777/onedi-02/internal/flow"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// mockStore implements store.Store with just enough behavior for the
// handlers under test.
type mockStore struct {
	activatedPhone string
	activatedPlan  int64
	activatedLangs []string
	activateErr    error
}

func (m *mockStore) GetUserByPhone(phone string) (*models.UserProfile, error) { return nil, nil }
func (m *mockStore) SaveUser(p models.UserProfile) (*models.UserProfile, error) {
	return &p, nil
}
func (m *mockStore) UpdateStreak(phone string) (int, error)                  { return 1, nil }
func (m *mockStore) UpdateCurrentLesson(phone string, lessonID int) error    { return nil }
func (m *mockStore) SaveLessonHistory(int64, models.LessonRecord) error      { return nil }
func (m *mockStore) AddStudySession(models.StudySessionRecord) error         { return nil }
func (m *mockStore) UpsertVocabulary(models.VocabularyEntry) error           { return nil }
func (m *mockStore) DueVocabulary(int64, int) ([]models.VocabularyEntry, error) {
	return nil, nil
}
func (m *mockStore) GetPlanStatus(phone string) (*models.PlanInfo, error) { return nil, nil }
func (m *mockStore) ConsumeTrialMinutes(phone string, minutes int) (int, error) {
	return 0, nil
}
func (m *mockStore) SetTestLanguage(phone, language string) error { return nil }
func (m *mockStore) ActivatePlan(phone string, planID int64, languages []string) error {
	if m.activateErr != nil {
		return m.activateErr
	}
	m.activatedPhone = phone
	m.activatedPlan = planID
	m.activatedLangs = languages
	return nil
}
func (m *mockStore) SaveTestResult(int64, models.TestResult) error { return nil }
func (m *mockStore) Close() error                                  { return nil }

func newTestServer(st *mockStore) (*Server, *flow.SessionStore) {
	sessions := flow.NewSessionStore()
	return NewServer(st, sessions), sessions
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(&mockStore{})
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHealthEndpointRejectsPost(t *testing.T) {
	srv, _ := newTestServer(&mockStore{})
	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStatsCountsSessions(t *testing.T) {
	srv, sessions := newTestServer(&mockStore{})
	sessions.WithSession("5511999990000", func(s *flow.Session) {})
	sessions.WithSession("5511888880000", func(s *flow.Session) {})

	rec := httptest.NewRecorder()
	srv.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"active_sessions":2`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestActivatePlan(t *testing.T) {
	st := &mockStore{}
	srv, sessions := newTestServer(st)
	sessions.WithSession("5511999990000", func(s *flow.Session) { s.PlanStatus = models.PlanTrial })

	body := `{"phone":"5511999990000","plan_id":3,"languages":["inglês","francês"]}`
	rec := httptest.NewRecorder()
	srv.handleActivatePlan(rec, httptest.NewRequest(http.MethodPost, "/plans/activate", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if st.activatedPhone != "5511999990000" || st.activatedPlan != 3 || len(st.activatedLangs) != 2 {
		t.Errorf("activation = (%q, %d, %v)", st.activatedPhone, st.activatedPlan, st.activatedLangs)
	}
	// Stale cached session must be dropped so the next message rehydrates.
	if _, ok := sessions.Peek("5511999990000"); ok {
		t.Error("cached session survived plan activation")
	}
}

func TestActivatePlanValidation(t *testing.T) {
	srv, _ := newTestServer(&mockStore{})

	cases := []string{
		`not json`,
		`{"phone":"","plan_id":3}`,
		`{"phone":"5511999990000","plan_id":0}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		srv.handleActivatePlan(rec, httptest.NewRequest(http.MethodPost, "/plans/activate", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}
