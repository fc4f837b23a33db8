package synthetic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/nbai/internal/domain/types"
	"github.com/okian/nbai/pkg/logger"
)

// Check is the outcome of one smoke request.
type Check struct {
	Path     string        `json:"path"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// SmokeReport collects every check of one run.
type SmokeReport struct {
	Checks []Check `json:"checks"`
	Failed int     `json:"failed"`
}

// Smoke exercises a running API end to end: it lists players and teams,
// queries every analysis for the default player and predicts one matchup.
// A 503 from the model endpoints is accepted when no model has been trained.
func Smoke(ctx context.Context, baseURL string, timeout time.Duration) (*SmokeReport, error) {
	c := &smokeClient{base: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
	log := logger.Get().Named("smoke")

	if err := c.get(ctx, "/healthz", nil, http.StatusOK); err != nil {
		return c.report(), fmt.Errorf("service health check failed: %w", err)
	}

	var players types.PlayerList
	if err := c.get(ctx, "/api/players", &players, http.StatusOK); err != nil {
		return c.report(), err
	}
	var teams types.TeamList
	if err := c.get(ctx, "/api/teams", &teams, http.StatusOK); err != nil {
		return c.report(), err
	}
	log.Info(ctx, "listed league",
		logger.Int("players", len(players.Players)),
		logger.Int("teams", len(teams.Teams)),
		logger.String("default", players.Default))

	eg, gctx := errgroup.WithContext(ctx)
	if players.Default != "" {
		name := url.PathEscape(players.Default)
		eg.Go(func() error {
			var curve types.CareerCurve
			if err := c.get(gctx, "/api/players/"+name+"/career", &curve, http.StatusOK, http.StatusUnprocessableEntity); err != nil {
				return err
			}
			if len(curve.Fitted) != len(curve.Points) {
				return c.fail("/api/players/"+name+"/career", "fitted and observed lengths differ")
			}
			return nil
		})
		eg.Go(func() error {
			var rep types.AnomalyReport
			return c.get(gctx, "/api/players/"+name+"/anomalies", &rep, http.StatusOK)
		})
		eg.Go(func() error {
			var fc types.Forecast
			return c.get(gctx, "/api/players/"+name+"/forecast", &fc, http.StatusOK, http.StatusUnprocessableEntity, http.StatusNotFound)
		})
	}
	if len(teams.Teams) >= 2 {
		eg.Go(func() error {
			q := url.Values{"home": {teams.Teams[0]}, "away": {teams.Teams[1]}}
			path := "/api/matchup?" + q.Encode()
			var pred types.MatchupPrediction
			if err := c.get(gctx, path, &pred, http.StatusOK, http.StatusServiceUnavailable); err != nil {
				return err
			}
			if pred.Winner != "" && math.Abs(pred.HomeWinProbability+pred.AwayWinProbability-1) > 1e-9 {
				return c.fail(path, "probabilities do not sum to one")
			}
			return nil
		})
	}
	eg.Go(func() error {
		return c.get(gctx, "/api/model", nil, http.StatusOK, http.StatusServiceUnavailable)
	})
	err := eg.Wait()

	rep := c.report()
	log.Info(ctx, "smoke run finished",
		logger.Int("checks", len(rep.Checks)),
		logger.Int("failed", rep.Failed))
	return rep, err
}

type smokeClient struct {
	base string
	http *http.Client

	mu     sync.Mutex
	checks []Check
}

func (c *smokeClient) record(ch Check) {
	c.mu.Lock()
	c.checks = append(c.checks, ch)
	c.mu.Unlock()
}

func (c *smokeClient) fail(path, msg string) error {
	c.record(Check{Path: path, Err: msg})
	return fmt.Errorf("%w: %s: %s", ErrCheckFailed, path, msg)
}

func (c *smokeClient) report() *SmokeReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	rep := &SmokeReport{Checks: append([]Check(nil), c.checks...)}
	for _, ch := range rep.Checks {
		if ch.Err != "" {
			rep.Failed++
		}
	}
	return rep
}

// get fetches path and decodes a 200 body into out when out is non-nil.
// Any status outside accept fails the check.
func (c *smokeClient) get(ctx context.Context, path string, out any, accept ...int) error {
	start := time.Now()
	ch := Check{Path: path}
	defer func() {
		ch.Duration = time.Since(start)
		c.record(ch)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		ch.Err = err.Error()
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		ch.Err = err.Error()
		return fmt.Errorf("%w: %s: %w", ErrCheckFailed, path, err)
	}
	defer resp.Body.Close()
	ch.Status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		ch.Err = err.Error()
		return fmt.Errorf("%w: %s: %w", ErrCheckFailed, path, err)
	}
	ok := false
	for _, s := range accept {
		ok = ok || s == resp.StatusCode
	}
	if !ok {
		ch.Err = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return fmt.Errorf("%w: %s: %s", ErrCheckFailed, path, ch.Err)
	}
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, out); err != nil {
			ch.Err = "invalid JSON: " + err.Error()
			return fmt.Errorf("%w: %s: %w", ErrCheckFailed, path, err)
		}
	}
	return nil
}
