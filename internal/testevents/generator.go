package testevents

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/okian/castassist/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	maxGameTimeSpread  = 5400 // seconds, roughly one long match
	pauseClockChance   = 10   // percent of events stuck at clock 0
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// gsiPayload mirrors the shape a spectator client posts: auth, provider,
// map, and player sections.
type gsiPayload struct {
	Auth struct {
		Token string `json:"token"`
	} `json:"auth"`
	Provider struct {
		Name      string `json:"name"`
		Timestamp int64  `json:"timestamp"`
	} `json:"provider"`
	Map struct {
		MatchID   string `json:"matchid"`
		GameTime  int64  `json:"game_time"`
		ClockTime int64  `json:"clock_time"`
		GameState string `json:"game_state"`
	} `json:"map"`
	Player map[string]map[string]map[string]any `json:"player"`
}

// generatePayloads creates raw GSI payloads spread across viewers and
// matches, then mixes in byte-identical duplicates and malformed bodies at
// the configured ratios.
func generatePayloads(ctx context.Context, config *Config, stats *Stats) ([][]byte, error) {
	logger.Get().Info(ctx, "generating spectator payloads",
		logger.Int("numEvents", config.NumEvents),
		logger.Int("viewers", config.Viewers),
		logger.Int("matches", config.Matches))

	viewers := config.Viewers
	if viewers < 1 {
		viewers = 1
	}
	tokens := make([]string, viewers)
	for i := range tokens {
		tokens[i] = uuid.New().String()
	}

	baseTimestamp := time.Now().Unix()
	payloads := make([][]byte, 0, config.NumEvents)

	for i := 0; i < config.NumEvents; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during payload generation: %w", ctx.Err())
		default:
		}

		switch {
		case len(payloads) > 0 && getRandomFloat() < config.DuplicateRatio:
			// Re-publish earlier bytes untouched; the pipeline must collapse
			// these to one write.
			payloads = append(payloads, payloads[randomInt(len(payloads))])
			stats.DuplicatesAdded++

		case getRandomFloat() < config.MalformedRatio:
			payloads = append(payloads, malformedPayload(i))
			stats.MalformedAdded++

		default:
			raw, err := buildPayload(tokens[randomInt(len(tokens))], config.Matches, baseTimestamp, int64(i))
			if err != nil {
				return nil, fmt.Errorf("build payload %d: %w", i, err)
			}
			payloads = append(payloads, raw)
		}
	}

	stats.EventsGenerated = len(payloads)
	logger.Get().Info(ctx, "generated payloads successfully", logger.Int("count", len(payloads)))

	return payloads, nil
}

// buildPayload produces one plausible spectator snapshot.
func buildPayload(token string, matches int, baseTimestamp, seq int64) ([]byte, error) {
	var p gsiPayload
	p.Auth.Token = token
	p.Provider.Name = "Dota 2"
	p.Provider.Timestamp = baseTimestamp + seq

	gameTime := int64(randomInt(maxGameTimeSpread))
	clockTime := gameTime
	if randomInt(100) < pauseClockChance {
		clockTime = 0
	}

	p.Map.MatchID = fmt.Sprintf("%d", 7_000_000_000+int64(randomInt(matches)))
	p.Map.GameTime = gameTime
	p.Map.ClockTime = clockTime
	p.Map.GameState = "DOTA_GAMERULES_STATE_GAME_IN_PROGRESS"

	p.Player = map[string]map[string]map[string]any{
		"team2": {
			"player0": {"name": "radiant-carry", "kills": randomInt(20)},
			"player1": {"name": "radiant-mid", "kills": randomInt(20)},
		},
		"team3": {
			"player5": {"name": "dire-carry", "kills": randomInt(20)},
			"player6": {"name": "dire-mid", "kills": randomInt(20)},
		},
	}

	return json.Marshal(p)
}

// malformedPayload produces bodies the parser must reject or filter:
// truncated JSON, lobby states, and empty player sections.
func malformedPayload(seq int) []byte {
	switch seq % 3 {
	case 0:
		return []byte(`{"auth": {"token": "`)
	case 1:
		return []byte(`{"auth": {"token": "lobby"}, "map": {"matchid": "0"}, "player": {}}`)
	default:
		return []byte{}
	}
}
