package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/black-cross/blackcross/internal/core/domain"
)

type SlackNotifier struct {
	botToken    string
	channel     string
	mentionTeam string
	httpClient  *http.Client
}

func NewSlackNotifier(botToken, channel, mentionTeam string) *SlackNotifier {
	return &SlackNotifier{
		botToken:    botToken,
		channel:     channel,
		mentionTeam: mentionTeam,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ImportSummary describes what a bundle import brought in.
type ImportSummary struct {
	BundleID        string
	Source          string
	Indicators      int
	Threats         int
	ThreatActors    int
	Vulnerabilities int
	Relationships   int
	Dropped         int
}

// NotifyBundleImported posts a summary of an imported STIX bundle.
func (s *SlackNotifier) NotifyBundleImported(summary ImportSummary) error {
	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "📥 STIX Bundle Imported",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Bundle*\n`%s`", summary.BundleID)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Source*\n%s", orDash(summary.Source))},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Indicators*\n%d", summary.Indicators)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Threats*\n%d", summary.Threats)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Threat Actors*\n%d", summary.ThreatActors)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Vulnerabilities*\n%d", summary.Vulnerabilities)},
			},
		},
	}

	if summary.Dropped > 0 {
		blocks = append(blocks, SlackBlock{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("⚠️ %d object(s) of unsupported kinds were dropped", summary.Dropped),
			},
		})
	}

	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("📥 STIX bundle imported: %d indicators", summary.Indicators),
	}

	return s.sendMessage(payload)
}

// NotifyHighConfidenceIndicator alerts the security channel about a newly
// imported indicator scoring above the notification threshold.
func (s *SlackNotifier) NotifyHighConfidenceIndicator(ind domain.Indicator) error {
	confidence := domain.ScoreIndicator(ind)

	blocks := []SlackBlock{
		{
			Type: "header",
			Text: &SlackText{
				Type: "plain_text",
				Text: "🚨 High-Confidence Indicator",
			},
		},
		{
			Type: "section",
			Fields: []SlackText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Type*\n%s", ind.Type)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Value*\n`%s`", ind.Value)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Confidence*\n%d", confidence)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Labels*\n%s", orDash(strings.Join(ind.Labels, ", ")))},
			},
		},
		{
			Type: "section",
			Text: &SlackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("%s please review", s.mentionTeam),
			},
		},
	}

	payload := SlackMessage{
		Channel: s.channel,
		Blocks:  blocks,
		Text:    fmt.Sprintf("🚨 High-confidence indicator: %s", ind.Value),
	}

	return s.sendMessage(payload)
}

func (s *SlackNotifier) sendMessage(payload SlackMessage) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, "https://slack.com/api/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.botToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send Slack message: %w", err)
	}
	defer resp.Body.Close()

	var apiResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode Slack response: %w", err)
	}

	if !apiResp.OK {
		return fmt.Errorf("slack API error: %s", apiResp.Error)
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// Slack Block Kit payload structures

type SlackMessage struct {
	Channel string       `json:"channel"`
	Text    string       `json:"text"`
	Blocks  []SlackBlock `json:"blocks,omitempty"`
}

type SlackBlock struct {
	Type   string      `json:"type"`
	Text   *SlackText  `json:"text,omitempty"`
	Fields []SlackText `json:"fields,omitempty"`
}

type SlackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
