package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gogithub "github.com/google/go-github/v66/github"

	"github.com/lumeboard/lumeboard/backend/models"
	"github.com/lumeboard/lumeboard/backend/repository"
)

// ErrNoGitHubConnection is returned when the user has not linked GitHub
var ErrNoGitHubConnection = errors.New("no github connection")

// PullRequest is the flattened row shown on the dashboard
type PullRequest struct {
	Repo      string    `json:"repo"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Draft     bool      `json:"draft"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PullRequestOverview groups PRs by the user's relationship to them
type PullRequestOverview struct {
	Authored       []PullRequest `json:"authored"`
	ReviewRequests []PullRequest `json:"review_requests"`
}

type PullRequestService struct {
	repo         *repository.GORMRepository
	oauthService *OAuthService
}

func NewPullRequestService(repo *repository.GORMRepository, oauthService *OAuthService) *PullRequestService {
	return &PullRequestService{
		repo:         repo,
		oauthService: oauthService,
	}
}

// Overview fetches open PRs authored by the user and PRs awaiting their review
func (s *PullRequestService) Overview(ctx context.Context, userID string) (*PullRequestOverview, error) {
	conn, err := s.repo.GetOAuthConnection(ctx, userID, "github")
	if err != nil {
		return nil, fmt.Errorf("failed to get github connection: %w", err)
	}
	if conn == nil {
		return nil, ErrNoGitHubConnection
	}

	token, err := s.oauthService.Token(ctx, userID, "github")
	if err != nil {
		return nil, fmt.Errorf("failed to get github token: %w", err)
	}

	client := gogithub.NewClient(nil).WithAuthToken(token.AccessToken)
	login := conn.ProviderLogin

	authored, err := s.search(ctx, client, fmt.Sprintf("is:pr is:open author:%s", login))
	if err != nil {
		return nil, fmt.Errorf("failed to search authored prs: %w", err)
	}

	reviews, err := s.search(ctx, client, fmt.Sprintf("is:pr is:open review-requested:%s", login))
	if err != nil {
		return nil, fmt.Errorf("failed to search review requests: %w", err)
	}

	slog.Info("Pull requests fetched", "user_id", userID, "authored", len(authored), "review_requests", len(reviews))
	return &PullRequestOverview{
		Authored:       authored,
		ReviewRequests: reviews,
	}, nil
}

func (s *PullRequestService) search(ctx context.Context, client *gogithub.Client, query string) ([]PullRequest, error) {
	result, _, err := client.Search.Issues(ctx, query, &gogithub.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: gogithub.ListOptions{PerPage: 50},
	})
	if err != nil {
		return nil, err
	}

	prs := make([]PullRequest, 0, len(result.Issues))
	for _, issue := range result.Issues {
		prs = append(prs, PullRequest{
			Repo:      repoFromURL(issue.GetRepositoryURL()),
			Number:    issue.GetNumber(),
			Title:     issue.GetTitle(),
			State:     issue.GetState(),
			Draft:     issue.GetDraft(),
			URL:       issue.GetHTMLURL(),
			UpdatedAt: issue.GetUpdatedAt().Time,
		})
	}
	return prs, nil
}

// repoFromURL extracts "owner/repo" from an API repository URL
func repoFromURL(url string) string {
	const marker = "/repos/"
	if idx := strings.Index(url, marker); idx >= 0 {
		return url[idx+len(marker):]
	}
	return url
}

type PullRequestEndpoints struct {
	prService *PullRequestService
}

func NewPullRequestEndpoints(prService *PullRequestService) *PullRequestEndpoints {
	return &PullRequestEndpoints{
		prService: prService,
	}
}

func (e *PullRequestEndpoints) RegisterRoutes(r chi.Router) {
	r.Get("/pulls", e.OverviewHandler)
}

func (e *PullRequestEndpoints) OverviewHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	overview, err := e.prService.Overview(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrNoGitHubConnection) {
			http.Error(w, "Connect your GitHub account first", http.StatusPreconditionFailed)
			return
		}
		slog.Error("Failed to fetch pull requests", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to fetch pull requests", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(overview)
}
