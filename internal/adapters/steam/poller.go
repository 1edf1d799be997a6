// Package steam polls the Steam Web API for live league games and publishes
// the result as the live match directory.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/castassist/internal/domain/model"
	"github.com/okian/castassist/pkg/logger"
	"github.com/okian/castassist/pkg/metrics"
)

// Default poller configuration constants.
const (
	defaultBaseURL        = "https://api.steampowered.com/IDOTA2Match_570/GetLiveLeagueGames/V001/"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = time.Second
)

// Saver persists a freshly crawled directory.
type Saver interface {
	SaveLiveMatches(ctx context.Context, matches model.LiveMatches) error
}

// Poller crawls live league games on a fixed cadence.
type Poller struct {
	keyring  *Keyring
	saver    Saver
	client   *http.Client
	baseURL  string
	interval time.Duration
	log      logger.Logger
}

// New creates a Poller over the given keyring and saver.
func New(keyring *Keyring, saver Saver, opts ...Option) *Poller {
	p := &Poller{
		keyring:  keyring,
		saver:    saver,
		client:   &http.Client{Timeout: defaultRequestTimeout},
		baseURL:  defaultBaseURL,
		interval: defaultPollInterval,
		log:      logger.Get().Named("steam-poller"),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls immediately and then on the configured interval until ctx is
// canceled. Poll failures are logged and retried on the next tick; match
// information is advisory and a stale directory only delays enrichment.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	metrics.RecordPollerPoll()
	if err := p.Poll(ctx); err != nil {
		metrics.RecordPollerError()
		p.log.Warn(ctx, "live matches poll failed", logger.Error(err))
	}
}

// Poll fetches the current live league games and overwrites the directory
// singleton. On fetch failure the previous directory is left in place; a
// stale directory is more useful to enrichment than an empty one.
func (p *Poller) Poll(ctx context.Context) error {
	matches, err := p.fetch(ctx)
	if err != nil {
		return err
	}

	metrics.UpdateLiveMatchesCount(len(matches.Matches))
	if err := p.saver.SaveLiveMatches(ctx, matches); err != nil {
		return fmt.Errorf("save live match directory: %w", err)
	}
	return nil
}

// liveGamesResponse mirrors the subset of the GetLiveLeagueGames response
// the directory needs.
type liveGamesResponse struct {
	Result struct {
		Games []struct {
			MatchID     json.Number `json:"match_id"`
			RadiantTeam struct {
				TeamName string `json:"team_name"`
			} `json:"radiant_team"`
			DireTeam struct {
				TeamName string `json:"team_name"`
			} `json:"dire_team"`
		} `json:"games"`
	} `json:"result"`
}

func (p *Poller) fetch(ctx context.Context) (model.LiveMatches, error) {
	reqURL, err := p.requestURL()
	if err != nil {
		return model.LiveMatches{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.LiveMatches{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return model.LiveMatches{}, fmt.Errorf("get live league games: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.LiveMatches{}, fmt.Errorf("get live league games: unexpected status %d", resp.StatusCode)
	}

	var decoded liveGamesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return model.LiveMatches{}, fmt.Errorf("decode live league games: %w", err)
	}

	matches := model.LiveMatches{}
	for _, game := range decoded.Result.Games {
		matchID, err := game.MatchID.Int64()
		if err != nil || matchID <= 0 {
			continue
		}
		matches.Matches = append(matches.Matches, model.LiveMatch{
			MatchID:         matchID,
			RadiantTeamName: game.RadiantTeam.TeamName,
			DireTeamName:    game.DireTeam.TeamName,
		})
	}
	return matches, nil
}

// requestURL appends the format and the next API key in rotation.
func (p *Poller) requestURL() (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("format", "json")
	if key := p.keyring.Next(); key != "" {
		q.Set("key", key)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
