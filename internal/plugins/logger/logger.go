// Package logger provides a request-logger plugin that records each chat
// request, reply and failure as structured log lines. Register it with a
// blank import:
//
//	_ "github.com/blueember/storefront-chat/internal/plugins/logger"
package logger

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/blueember/storefront-chat/internal/logging"
	"github.com/blueember/storefront-chat/plugin"
)

// Name is the registry name of the plugin.
const Name = "request-logger"

func init() {
	plugin.RegisterFactory(Name, func() plugin.Plugin {
		return &RequestLogger{}
	})
}

// RequestLogger emits one log entry per stage it is attached to. Message
// and reply bodies are logged only when include_content is set.
type RequestLogger struct {
	logLevel       slog.Level
	includeContent bool
}

// Name returns the plugin identifier.
func (l *RequestLogger) Name() string { return Name }

// Type returns the plugin lifecycle hook type.
func (l *RequestLogger) Type() plugin.PluginType { return plugin.TypeLogging }

// Init reads level and include_content.
func (l *RequestLogger) Init(config map[string]interface{}) error {
	l.logLevel = slog.LevelInfo
	if level, ok := config["level"].(string); ok {
		l.logLevel = logging.ParseLevel(level)
	}
	if v, ok := config["include_content"].(bool); ok {
		l.includeContent = v
	}
	return nil
}

// Execute logs the current stage of pctx.
func (l *RequestLogger) Execute(ctx context.Context, pctx *plugin.Context) error {
	log := logging.FromContext(ctx)
	var model, message string
	if pctx.Request != nil {
		model = pctx.Request.Model
		message = pctx.Request.UserMessage()
	}

	switch {
	case pctx.Error != nil:
		log.Log(ctx, slog.LevelError, "chat error",
			"model", model,
			"error", pctx.Error.Error(),
		)
	case pctx.Reply != "":
		attrs := []any{
			"model", model,
			"source", pctx.Source,
			"reply_chars", utf8.RuneCountInString(pctx.Reply),
		}
		if l.includeContent {
			attrs = append(attrs, "reply", pctx.Reply)
		}
		log.Log(ctx, l.logLevel, "chat reply", attrs...)
	case pctx.Request != nil:
		attrs := []any{
			"model", model,
			"message_chars", utf8.RuneCountInString(message),
		}
		if l.includeContent {
			attrs = append(attrs, "message", message)
		}
		log.Log(ctx, l.logLevel, "chat request", attrs...)
	}
	return nil
}
