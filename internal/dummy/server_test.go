package dummy

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/siamMPL"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewService().Handler(base))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) (int, string) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+base+path, rdr)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func TestCreateQuestionIsIdempotent(t *testing.T) {
	srv := newServer(t)
	q := map[string]string{"id": "Q1", "question": "What?"}

	status, _ := call(t, srv, http.MethodPost, "/admin/questions/", q)
	assert.Equal(t, 200, status)

	status, body := call(t, srv, http.MethodPost, "/admin/questions/", q)
	assert.Equal(t, 400, status)
	assert.Contains(t, body, "Question ID already exists.")
}

func TestAssignSecondTeamConflicts(t *testing.T) {
	srv := newServer(t)
	call(t, srv, http.MethodPost, "/admin/questions/", map[string]string{"id": "Q1"})

	status, _ := call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T1", "question_code": "Q1"})
	assert.Equal(t, 200, status)

	status, body := call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T2", "question_code": "Q1"})
	assert.Equal(t, 400, status)
	assert.Contains(t, body, "alloted already")

	status, body = call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T1", "question_code": "Q1"})
	assert.Equal(t, 400, status)
	assert.Contains(t, body, "already allocated with a question")
}

func TestAssignUnknownQuestion(t *testing.T) {
	srv := newServer(t)
	status, body := call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T1", "question_code": "nope"})
	assert.Equal(t, 404, status)
	assert.Contains(t, body, "Question not found")
}

func TestConcurrentAssignmentHasOneWinner(t *testing.T) {
	srv := newServer(t)
	call(t, srv, http.MethodPost, "/admin/questions/", map[string]string{"id": "HOT"})

	const n = 50
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[int]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(map[string]string{"teamname": "T" + strings.Repeat("x", i), "question_code": "HOT"})
			resp, err := srv.Client().Post(srv.URL+base+"/teamquestions/", "application/json", bytes.NewReader(b))
			if err != nil {
				return
			}
			resp.Body.Close()
			mu.Lock()
			results[resp.StatusCode]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, results[200])
	assert.Equal(t, n-1, results[400])
}

func TestMysteryLifecycle(t *testing.T) {
	srv := newServer(t)

	status, body := call(t, srv, http.MethodPut, "/mystery/", map[string]any{"team_name": "ghost", "difficulty": "easy", "cost": 10})
	assert.Equal(t, 404, status, "no team yet")
	assert.Contains(t, body, "Team not found")

	call(t, srv, http.MethodPost, "/admin/questions/", map[string]string{"id": "Q1"})
	call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T1", "question_code": "Q1"})

	status, _ = call(t, srv, http.MethodPut, "/mystery/", map[string]any{"team_name": "T1", "difficulty": "easy", "cost": 10})
	assert.Equal(t, 404, status, "no mystery of that difficulty")

	call(t, srv, http.MethodPost, "/admin/mystery-questions/", map[string]string{"difficulty": "easy", "question": "?"})

	status, _ = call(t, srv, http.MethodPut, "/mystery/", map[string]any{"team_name": "T1", "difficulty": "easy", "cost": 500})
	assert.Equal(t, 400, status, "too expensive")

	status, body = call(t, srv, http.MethodPut, "/mystery/", map[string]any{"team_name": "T1", "difficulty": "easy", "cost": 30})
	require.Equal(t, 200, status)
	assert.Contains(t, body, `"remaining_points":70`)

	status, _ = call(t, srv, http.MethodPut, "/mystery/", map[string]any{"team_name": "T1", "difficulty": "easy", "cost": 30})
	assert.Equal(t, 409, status)

	status, _ = call(t, srv, http.MethodDelete, "/mystery/quit?team_name=T1", nil)
	assert.Equal(t, 200, status)

	status, _ = call(t, srv, http.MethodDelete, "/mystery/quit?team_name=T1", nil)
	assert.Equal(t, 404, status, "nothing left to quit")
}

func TestUpdateTeamPoints(t *testing.T) {
	srv := newServer(t)

	status, _ := call(t, srv, http.MethodPut, "/admin/teams/T1", map[string]int{"points": 300})
	assert.Equal(t, 404, status)

	call(t, srv, http.MethodPost, "/admin/questions/", map[string]string{"id": "Q1"})
	call(t, srv, http.MethodPost, "/teamquestions/", map[string]string{"teamname": "T1", "question_code": "Q1"})

	status, body := call(t, srv, http.MethodPut, "/admin/teams/T1", map[string]int{"points": 300})
	assert.Equal(t, 200, status)
	assert.Contains(t, body, `"points":300`)

	status, body = call(t, srv, http.MethodGet, "/admin/teams/", nil)
	assert.Equal(t, 200, status)
	var teams []Team
	require.NoError(t, json.Unmarshal([]byte(body), &teams))
	require.Len(t, teams, 1)
	assert.Equal(t, 300, teams[0].Points)
}

func TestListEndpoints(t *testing.T) {
	srv := newServer(t)
	for _, p := range []string{"/admin/teams/", "/admin/questions/", "/admin/mystery-questions/"} {
		status, body := call(t, srv, http.MethodGet, p, nil)
		assert.Equal(t, 200, status, p)
		assert.Equal(t, "[]\n", body, p)
	}
}
