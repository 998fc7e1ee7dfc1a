package leetcode

import (
	"context"
	"fmt"
	"leetfresh/internal/apperr"
	"leetfresh/internal/models"
	"leetfresh/internal/providers"
	"leetfresh/internal/structures"
	"strconv"
	"strings"
	"time"
)

const solvedQuery = `
query userProgressQuestionList($filters: UserProgressQuestionListInput) {
  userProgressQuestionList(filters: $filters) {
    totalNum
    questions {
      frontendId
      title
      titleSlug
      difficulty
      lastSubmittedAt
      numSubmitted
      questionStatus
      lastResult
    }
  }
}`

const latestQuery = `
query recentAcSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    titleSlug
    timestamp
  }
}`

const (
	opSolved = "solved"
	opLatest = "latest"
)

type SnapshotFetcherInterface interface {
	FetchSolvedProblems(ctx context.Context, identifier string) ([]models.SolvedProblem, int64, error)
	FetchLatestSubmissionTimestamp(ctx context.Context, identifier string) (int64, error)
}

type Fetcher struct {
	client   ClientInterface
	pageSize int
	logger   providers.Logger
}

func NewFetcher(conf *structures.Config, client ClientInterface, logger providers.Logger) SnapshotFetcherInterface {
	return &Fetcher{
		client:   client,
		pageSize: conf.LeetCode.PageSize,
		logger:   logger,
	}
}

type progressFilters struct {
	QuestionStatus string `json:"questionStatus"`
	Skip           int    `json:"skip"`
	Limit          int    `json:"limit"`
}

type progressQuestion struct {
	Title           string  `json:"title"`
	TitleSlug       string  `json:"titleSlug"`
	LastSubmittedAt *string `json:"lastSubmittedAt"`
}

type progressData struct {
	UserProgressQuestionList *struct {
		TotalNum  int                `json:"totalNum"`
		Questions []progressQuestion `json:"questions"`
	} `json:"userProgressQuestionList"`
}

// FetchSolvedProblems returns the de-duplicated solved set and its
// watermark. Records without a parseable submission time are dropped.
func (f *Fetcher) FetchSolvedProblems(ctx context.Context, identifier string) ([]models.SolvedProblem, int64, error) {
	vars := map[string]any{
		"filters": progressFilters{QuestionStatus: "SOLVED", Skip: 0, Limit: f.pageSize},
	}

	var data progressData
	if err := f.client.GraphQL(ctx, opSolved, solvedQuery, vars, &data); err != nil {
		return nil, 0, err
	}
	if data.UserProgressQuestionList == nil {
		return nil, 0, apperr.Protocol(opSolved, "missing userProgressQuestionList")
	}

	list := data.UserProgressQuestionList
	problems := make([]models.SolvedProblem, 0, len(list.Questions))
	dropped := 0
	for _, q := range list.Questions {
		if q.LastSubmittedAt == nil || *q.LastSubmittedAt == "" {
			dropped++
			continue
		}
		ts, err := parseSubmittedAt(*q.LastSubmittedAt)
		if err != nil {
			dropped++
			continue
		}
		problems = append(problems, models.SolvedProblem{
			Title:         q.Title,
			TitleSlug:     q.TitleSlug,
			Timestamp:     ts,
			DateCompleted: *q.LastSubmittedAt,
		})
	}
	if list.TotalNum > len(list.Questions) {
		f.logger.Warnf(providers.TypeRemote, "Solved list for %s truncated: %d of %d", identifier, len(list.Questions), list.TotalNum)
	}

	problems = models.DedupeProblems(problems)
	f.logger.Debugf(providers.TypeRemote, "Fetched %d solved problems for %s, dropped %d without date", len(problems), identifier, dropped)
	return problems, models.LatestTimestamp(problems), nil
}

type latestData struct {
	RecentAcSubmissionList *[]struct {
		TitleSlug string    `json:"titleSlug"`
		Timestamp flexInt64 `json:"timestamp"`
	} `json:"recentAcSubmissionList"`
}

func (f *Fetcher) FetchLatestSubmissionTimestamp(ctx context.Context, identifier string) (int64, error) {
	vars := map[string]any{"username": identifier, "limit": 1}

	var data latestData
	if err := f.client.GraphQL(ctx, opLatest, latestQuery, vars, &data); err != nil {
		return 0, err
	}
	if data.RecentAcSubmissionList == nil {
		return 0, apperr.Protocol(opLatest, "missing recentAcSubmissionList")
	}

	var latest int64
	for _, s := range *data.RecentAcSubmissionList {
		if int64(s.Timestamp) > latest {
			latest = int64(s.Timestamp)
		}
	}
	return latest, nil
}

var submittedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseSubmittedAt(v string) (int64, error) {
	for _, layout := range submittedLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized submission time %q", v)
}

// flexInt64 accepts both JSON numbers and numeric strings; LeetCode sends
// submission timestamps as strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		v, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return err
		}
		n = int64(v)
	}
	*f = flexInt64(n)
	return nil
}
