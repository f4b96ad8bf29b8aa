package understat

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/totw/pkg/config"
	"github.com/wonny/totw/pkg/httputil"
	"github.com/wonny/totw/pkg/logger"
)

// Client scrapes understat.com league pages. The site embeds its data as a
// hex-escaped JSON literal inside a script tag; there is no API.
type Client struct {
	http   *httputil.Client
	cfg    config.UnderstatConfig
	logger *logger.Logger
}

// PlayerSeason is one player's season aggregate. Understat serves numbers
// as strings.
type PlayerSeason struct {
	ID         string `json:"id"`
	PlayerName string `json:"player_name"`
	Games      string `json:"games"`
	Time       string `json:"time"`
	Goals      string `json:"goals"`
	Assists    string `json:"assists"`
	Shots      string `json:"shots"`
	KeyPasses  string `json:"key_passes"`
	XG         string `json:"xG"`
	XA         string `json:"xA"`
	TeamTitle  string `json:"team_title"`
}

// GamesPlayed parses the games column.
func (p *PlayerSeason) GamesPlayed() int {
	n, _ := strconv.Atoi(p.Games)
	return n
}

// ShotsTaken parses the shots column.
func (p *PlayerSeason) ShotsTaken() int {
	n, _ := strconv.Atoi(p.Shots)
	return n
}

// KeyPassesMade parses the key passes column.
func (p *PlayerSeason) KeyPassesMade() int {
	n, _ := strconv.Atoi(p.KeyPasses)
	return n
}

// ExpectedGoals parses the xG column.
func (p *PlayerSeason) ExpectedGoals() float64 {
	f, _ := strconv.ParseFloat(p.XG, 64)
	return f
}

// ExpectedAssists parses the xA column.
func (p *PlayerSeason) ExpectedAssists() float64 {
	f, _ := strconv.ParseFloat(p.XA, 64)
	return f
}

// NewClient creates an Understat scraper.
func NewClient(cfg config.UnderstatConfig, http *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		http:   http,
		cfg:    cfg,
		logger: log.WithField("component", "understat"),
	}
}

var playersDataRe = regexp.MustCompile(`playersData\s*=\s*JSON\.parse\('(.*?)'\)`)

// LeaguePlayers scrapes the season aggregates of every player in the
// configured league.
func (c *Client) LeaguePlayers(ctx context.Context) ([]PlayerSeason, error) {
	url := fmt.Sprintf("%s/league/%s/%s", c.cfg.BaseURL, c.cfg.League, c.cfg.Season)
	body, err := c.http.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch league page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse league page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := playersDataRe.FindStringSubmatch(s.Text()); m != nil {
			raw = m[1]
			return false
		}
		return true
	})
	if raw == "" {
		return nil, fmt.Errorf("playersData not found in %s", url)
	}

	// The literal uses \xNN escapes; Unquote resolves them
	decoded, err := strconv.Unquote(`"` + strings.ReplaceAll(raw, `"`, `\"`) + `"`)
	if err != nil {
		return nil, fmt.Errorf("decode playersData: %w", err)
	}

	var players []PlayerSeason
	if err := json.Unmarshal([]byte(decoded), &players); err != nil {
		return nil, fmt.Errorf("parse playersData: %w", err)
	}

	c.logger.WithField("players", len(players)).Debug("scraped league players")
	return players, nil
}

// NormalizeName lowercases and strips spacing so FPL web names can be
// matched against Understat player names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// MatchPlayer finds the Understat entry whose name contains the FPL web
// name (Understat uses full names, FPL short display names).
func MatchPlayer(players []PlayerSeason, webName string) (*PlayerSeason, bool) {
	needle := NormalizeName(webName)
	if needle == "" {
		return nil, false
	}
	for i := range players {
		if strings.Contains(NormalizeName(players[i].PlayerName), needle) {
			return &players[i], true
		}
	}
	return nil, false
}
