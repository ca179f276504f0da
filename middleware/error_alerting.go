package middleware

import (
	"context"
	"crypto/md5"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

type SlackAlertConfig struct {
	WebhookURL  string
	Environment string
	AppName     string
	LogsURL     string
}

type ErrorAlertMiddleware struct {
	config        SlackAlertConfig
	alertedErrors map[string]time.Time // hash -> last alert time
	mutex         sync.Mutex
	alertCooldown time.Duration
	sendTimeout   time.Duration
	// inflight tracks alerts still being posted
	inflight sync.WaitGroup
}

func NewErrorAlertMiddleware(config SlackAlertConfig) *ErrorAlertMiddleware {
	return &ErrorAlertMiddleware{
		config:        config,
		alertedErrors: make(map[string]time.Time),
		alertCooldown: 10 * time.Minute, // same error alerts at most once per 10min
		sendTimeout:   10 * time.Second,
	}
}

// HTTPMiddleware recovers panics and alerts on panics and 5xx responses
func (m *ErrorAlertMiddleware) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		where := fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
		rec := newStatusRecorder(w)
		defer m.recoverAndAlert(rec, where)

		next.ServeHTTP(rec, r)

		if rec.status >= http.StatusInternalServerError {
			m.alertOnError(fmt.Errorf("responded with status %d", rec.status), where)
		}
	})
}

// Wait blocks until every pending alert has been posted
func (m *ErrorAlertMiddleware) Wait() {
	m.inflight.Wait()
}

func (m *ErrorAlertMiddleware) alertOnError(err error, where string) {
	errorMsg := fmt.Sprintf("%s: %v", where, err)
	hash := fmt.Sprintf("%x", md5.Sum([]byte(errorMsg)))

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if lastAlert, exists := m.alertedErrors[hash]; exists && time.Since(lastAlert) < m.alertCooldown {
		return
	}

	m.send(errorMsg, where)
	m.alertedErrors[hash] = time.Now()
}

func (m *ErrorAlertMiddleware) recoverAndAlert(w *statusRecorder, where string) {
	if r := recover(); r != nil {
		errorMsg := fmt.Sprintf("%s: PANIC - %v", where, r)
		log.Error().Str("context", where).Msgf("❌ %s", errorMsg)
		if !w.wroteHeader {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
		}
		m.send(errorMsg, where+" (PANIC)")
	}
}

// send posts the alert in the background
func (m *ErrorAlertMiddleware) send(errorMsg, where string) {
	if m.config.WebhookURL == "" {
		return
	}

	m.inflight.Add(1)
	go func() {
		defer m.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
		defer cancel()
		if err := slack.PostWebhookContext(ctx, m.config.WebhookURL, m.buildMessage(errorMsg, where)); err != nil {
			log.Error().Err(err).Msg("❌ Failed to send Slack alert")
		}
	}()
}

func (m *ErrorAlertMiddleware) buildMessage(errorMsg, where string) *slack.WebhookMessage {
	envPrefix := ""
	if m.config.Environment == "dev" {
		envPrefix = "[dev] "
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(
			slack.PlainTextType,
			fmt.Sprintf("🚨 %s[%s] Error Alert", envPrefix, m.config.AppName),
			true,
			false,
		)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Service:* %s", m.config.AppName), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Environment:* %s", m.config.Environment), false, false),
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Context:* %s", where), false, false),
		}, nil),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Error:*\n```%s```", errorMsg), false, false),
			nil,
			nil,
		),
	}
	if m.config.LogsURL != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("🔗 <%s|View Logs>", m.config.LogsURL), false, false),
			nil,
			nil,
		))
	}

	return &slack.WebhookMessage{
		Text:   fmt.Sprintf("%s[%s] Error Alert: %s", envPrefix, m.config.AppName, where),
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}
