// Package render turns signup outcomes into localized user-facing copy.
package render

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/louisbranch/offlinecache/internal/services/signup/client"
	"github.com/louisbranch/offlinecache/internal/services/signup/domain"
)

const (
	defaultSuccess   = "Account created! Check your email to continue."
	defaultTransport = "Could not reach the server. Please try again."
)

var supported = []language.Tag{language.English, language.MustParse("pt-BR")}

var matcher = language.NewMatcher(supported)

// Localizer is the minimal message-printer contract required by the renderer.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Printer returns a printer for the closest supported locale to raw, which
// may be a tag or an Accept-Language value.
func Printer(raw string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(supported[0])
	}
	_, index, _ := matcher.Match(tags...)
	return message.NewPrinter(supported[index])
}

// Message renders the outcome of one submission: success when err is nil,
// otherwise the copy for the validation, server or transport failure.
func Message(loc Localizer, err error) string {
	if err == nil {
		return localizeWithFallback(loc, "signup.success", defaultSuccess)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		switch verr.Code {
		case domain.CodeRequired:
			field := localizeWithFallback(loc, "signup.field."+verr.Field, verr.Field)
			return localize(loc, "signup.error.required", field)
		default:
			return localizeWithFallback(loc, "signup.error."+verr.Code, verr.Error())
		}
	}

	var serverErr *client.ServerError
	if errors.As(err, &serverErr) {
		return localize(loc, "signup.error.server", serverErr.Message)
	}
	return localizeWithFallback(loc, "signup.error.transport", defaultTransport)
}

func localize(loc Localizer, key message.Reference, args ...any) string {
	if loc == nil {
		if asString, ok := key.(string); ok {
			return asString
		}
		return ""
	}
	return loc.Sprintf(key, args...)
}

func localizeWithFallback(loc Localizer, key string, fallback string) string {
	value := strings.TrimSpace(localize(loc, key))
	if value == "" || value == key {
		return fallback
	}
	return value
}
