package dummy

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

type ServerConfig struct {
	Port     int
	BasePath string        // e.g. "/siamMPL"; empty serves at the root
	Jitter   time.Duration // upper bound of random latency added to every call
}

type Team struct {
	ID              int    `json:"id"`
	TeamName        string `json:"team_name"`
	Points          int    `json:"points"`
	MysteryQuestion *int   `json:"mystery_question"`
}

type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

type MysteryQuestion struct {
	ID             int    `json:"id"`
	Difficulty     string `json:"difficulty"`
	Question       string `json:"question"`
	QuestionStatus string `json:"question_status"`
}

const (
	statusUnallocated = "UNALLOCATED"
	statusAllocated   = "ALLOCATED"
	startingPoints    = 100
)

// Service is an in-memory stand-in for the allocation service. One mutex
// guards all state, so every request is a serializable transaction, which
// is the contract the harness probes for.
type Service struct {
	mu        sync.Mutex
	teams     map[string]*Team
	questions map[string]*Question
	// question id -> team name
	allotted  map[string]string
	mysteries []*MysteryQuestion
	nextID    int
}

func NewService() *Service {
	return &Service{
		teams:     make(map[string]*Team),
		questions: make(map[string]*Question),
		allotted:  make(map[string]string),
	}
}

// Handler routes the service's endpoints under basePath.
func (s *Service) Handler(basePath string) http.Handler {
	root := mux.NewRouter()
	r := root
	if basePath != "" {
		r = root.PathPrefix(basePath).Subrouter()
	}

	r.HandleFunc("/admin/teams/", s.listTeams).Methods(http.MethodGet)
	r.HandleFunc("/admin/teams/{team_name}", s.getTeam).Methods(http.MethodGet)
	r.HandleFunc("/admin/teams/{team_name}", s.updateTeam).Methods(http.MethodPut)
	r.HandleFunc("/admin/questions/", s.listQuestions).Methods(http.MethodGet)
	r.HandleFunc("/admin/questions/", s.createQuestion).Methods(http.MethodPost)
	r.HandleFunc("/admin/mystery-questions/", s.listMysteries).Methods(http.MethodGet)
	r.HandleFunc("/admin/mystery-questions/", s.createMystery).Methods(http.MethodPost)
	r.HandleFunc("/teamquestions/", s.assignTeam).Methods(http.MethodPost)
	r.HandleFunc("/mystery/", s.assignMystery).Methods(http.MethodPut)
	r.HandleFunc("/mystery/quit", s.quitMystery).Methods(http.MethodDelete)
	return root
}

// Allocations returns a copy of the question -> team mapping.
func (s *Service) Allocations() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.allotted))
	for q, t := range s.allotted {
		out[q] = t
	}
	return out
}

func (s *Service) listTeams(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, *t)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) getTeam(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["team_name"]
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[name]
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Service) updateTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamName *string `json:"team_name"`
		Points   *int    `json:"points"`
	}
	if !decode(w, r, &req) {
		return
	}
	name := mux.Vars(r)["team_name"]

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.teams[name]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	if req.Points != nil {
		t.Points = *req.Points
	}
	if req.TeamName != nil && *req.TeamName != name {
		delete(s.teams, name)
		t.TeamName = *req.TeamName
		s.teams[t.TeamName] = t
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Service) listQuestions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req Question
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "field required: id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[req.ID]; ok {
		writeDetail(w, http.StatusBadRequest, "Question ID already exists.")
		return
	}
	q := req
	s.questions[q.ID] = &q
	writeJSON(w, http.StatusOK, q)
}

func (s *Service) listMysteries(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]MysteryQuestion, 0, len(s.mysteries))
	for _, m := range s.mysteries {
		out = append(out, *m)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) createMystery(w http.ResponseWriter, r *http.Request) {
	var req MysteryQuestion
	if !decode(w, r, &req) {
		return
	}
	if req.QuestionStatus == "" {
		req.QuestionStatus = statusUnallocated
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	m := req
	m.ID = s.nextID
	s.mysteries = append(s.mysteries, &m)
	writeJSON(w, http.StatusOK, m)
}

// assignTeam creates the team and maps it to the question. Checks run in the
// same order as the real service: the team is created before the question
// lookup, so a 404 still leaves the team behind.
func (s *Service) assignTeam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamName     string `json:"teamname"`
		QuestionCode string `json:"question_code"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[req.TeamName]; ok {
		writeDetail(w, http.StatusBadRequest, "The team is already allocated with a question!")
		return
	}
	s.nextID++
	team := &Team{ID: s.nextID, TeamName: req.TeamName, Points: startingPoints}
	s.teams[team.TeamName] = team

	q, ok := s.questions[req.QuestionCode]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Question not found")
		return
	}
	if _, ok := s.allotted[q.ID]; ok {
		writeDetail(w, http.StatusBadRequest, "This question is alloted already")
		return
	}
	s.allotted[q.ID] = team.TeamName

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Team created & question assigned successfully",
		"question": q.Question,
		"teamname": team.TeamName,
		"points":   team.Points,
	})
}

func (s *Service) assignMystery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TeamName   string `json:"team_name"`
		Difficulty string `json:"difficulty"`
		Cost       int    `json:"cost"`
	}
	if !decode(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[req.TeamName]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	if team.MysteryQuestion != nil {
		writeDetail(w, http.StatusConflict, "This team already has an allocated mystery question.")
		return
	}
	if team.Points < req.Cost {
		writeDetail(w, http.StatusBadRequest, "Not enough points to purchase this question.")
		return
	}

	var mystery *MysteryQuestion
	for _, m := range s.mysteries {
		if m.Difficulty == req.Difficulty && m.QuestionStatus == statusUnallocated {
			mystery = m
			break
		}
	}
	if mystery == nil {
		writeDetail(w, http.StatusNotFound, "No available question for this difficulty")
		return
	}

	mystery.QuestionStatus = statusAllocated
	id := mystery.ID
	team.MysteryQuestion = &id
	team.Points -= req.Cost

	writeJSON(w, http.StatusOK, map[string]any{
		"team_name":        team.TeamName,
		"remaining_points": team.Points,
		"mystery_id":       mystery.ID,
		"difficulty":       mystery.Difficulty,
		"question":         mystery.Question,
	})
}

func (s *Service) quitMystery(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("team_name")

	s.mu.Lock()
	defer s.mu.Unlock()
	team, ok := s.teams[name]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Team not found")
		return
	}
	if team.MysteryQuestion == nil {
		writeDetail(w, http.StatusNotFound, "Mystery question not found")
		return
	}
	id := *team.MysteryQuestion
	for _, m := range s.mysteries {
		if m.ID == id {
			m.QuestionStatus = statusUnallocated
		}
	}
	team.MysteryQuestion = nil
	writeDetail(w, http.StatusOK, fmt.Sprintf("Team %s has quit mystery question with question id %d", team.TeamName, id))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body: "+err.Error())
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// withJitter delays every request by a random amount below limit.
func withJitter(next http.Handler, limit time.Duration) http.Handler {
	if limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(rand.Int63n(int64(limit))))
		next.ServeHTTP(w, r)
	})
}

// Start serves a fresh Service in the background and returns the server so
// the caller can shut it down.
func Start(cfg ServerConfig) *http.Server {
	svc := NewService()
	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("👻 Dummy Server running on http://localhost%s%s\n", addr, cfg.BasePath)
	fmt.Println("   Endpoints: /admin/teams/, /admin/questions/, /admin/mystery-questions/, /teamquestions/, /mystery/")

	server := &http.Server{
		Addr:              addr,
		Handler:           withJitter(svc.Handler(cfg.BasePath), cfg.Jitter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("Server failed: %v\n", err)
		}
	}()
	return server
}
