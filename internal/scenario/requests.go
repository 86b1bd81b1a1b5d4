package scenario

import (
	"net/http"
	"net/url"

	"contendq/internal/workflow"
)

// Endpoints of the allocation service, relative to the base URL.
const (
	PathTeams            = "/admin/teams/"
	PathQuestions        = "/admin/questions/"
	PathMysteryQuestions = "/admin/mystery-questions/"
	PathTeamQuestions    = "/teamquestions/"
	PathMystery          = "/mystery/"
	PathMysteryQuit      = "/mystery/quit"
)

const StatusUnallocated = "UNALLOCATED"

type questionBody struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

type mysteryQuestionBody struct {
	Difficulty     string `json:"difficulty"`
	Question       string `json:"question"`
	QuestionStatus string `json:"question_status"`
}

type teamPointsBody struct {
	Points int `json:"points"`
}

type teamQuestionBody struct {
	TeamName     string `json:"teamname"`
	QuestionCode string `json:"question_code"`
}

type mysteryAssignBody struct {
	TeamName   string `json:"team_name"`
	Difficulty string `json:"difficulty"`
	Cost       int    `json:"cost"`
}

func ListTeams() workflow.Request {
	return workflow.Request{Method: http.MethodGet, Path: PathTeams}
}

func ListQuestions() workflow.Request {
	return workflow.Request{Method: http.MethodGet, Path: PathQuestions}
}

func ListMysteryQuestions() workflow.Request {
	return workflow.Request{Method: http.MethodGet, Path: PathMysteryQuestions}
}

func CreateQuestion(id, text string) workflow.Request {
	return workflow.Request{
		Method: http.MethodPost,
		Path:   PathQuestions,
		Body:   questionBody{ID: id, Question: text},
	}
}

func CreateMysteryQuestion(difficulty, text string) workflow.Request {
	return workflow.Request{
		Method: http.MethodPost,
		Path:   PathMysteryQuestions,
		Body:   mysteryQuestionBody{Difficulty: difficulty, Question: text, QuestionStatus: StatusUnallocated},
	}
}

func UpdateTeam(team string, points int) workflow.Request {
	return workflow.Request{
		Method: http.MethodPut,
		Path:   PathTeams + url.PathEscape(team),
		Body:   teamPointsBody{Points: points},
	}
}

func AssignTeam(team, questionCode string) workflow.Request {
	return workflow.Request{
		Method: http.MethodPost,
		Path:   PathTeamQuestions,
		Body:   teamQuestionBody{TeamName: team, QuestionCode: questionCode},
	}
}

func AssignMystery(team, difficulty string, cost int) workflow.Request {
	return workflow.Request{
		Method: http.MethodPut,
		Path:   PathMystery,
		Body:   mysteryAssignBody{TeamName: team, Difficulty: difficulty, Cost: cost},
	}
}

func QuitMystery(team string) workflow.Request {
	return workflow.Request{
		Method: http.MethodDelete,
		Path:   PathMysteryQuit + "?team_name=" + url.QueryEscape(team),
	}
}
