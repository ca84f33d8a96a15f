package services

import (
	"errors"
	"fmt"
	"strings"
)

// Failure markers. Every pipeline error wraps exactly one of these so callers
// can classify it with errors.Is.
var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrOutputDir         = errors.New("output directory error")
	ErrTranscodeFailed   = errors.New("transcode failed")
	ErrPublicationStore  = errors.New("publication store error")
	ErrNotifier          = errors.New("notifier error")
	ErrConfiguration     = errors.New("configuration error")
)

var markers = []error{
	ErrSourceUnavailable,
	ErrOutputDir,
	ErrTranscodeFailed,
	ErrPublicationStore,
	ErrNotifier,
	ErrConfiguration,
}

// Error carries the stage context of a classified failure.
type Error struct {
	Marker    error
	Stage     string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	detail := buildDetail(e.Stage, e.Operation, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%v: %s: %v", e.Marker, detail, e.Cause)
	}
	return fmt.Sprintf("%v: %s", e.Marker, detail)
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Marker}
	}
	return []error{e.Marker, e.Cause}
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTranscodeFailed
	}
	return &Error{
		Marker:    marker,
		Stage:     strings.TrimSpace(stage),
		Operation: strings.TrimSpace(operation),
		Message:   strings.TrimSpace(message),
		Cause:     err,
	}
}

// Details extracts the stage context from err, if any.
func Details(err error) (*Error, bool) {
	var detail *Error
	if errors.As(err, &detail) {
		return detail, true
	}
	return nil, false
}

// Kind returns the marker wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, marker := range markers {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

// UserMessage renders err for the person who submitted the job. It keeps the
// human-readable message and the root cause and drops internal stage names.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	detail, ok := Details(err)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, 2)
	if detail.Message != "" {
		parts = append(parts, detail.Message)
	}
	if detail.Cause != nil {
		parts = append(parts, causeMessage(detail.Cause))
	}
	if len(parts) == 0 {
		return detail.Marker.Error()
	}
	return strings.Join(parts, ": ")
}

// MaxCauseRunes bounds the root cause text included in UserMessage.
const MaxCauseRunes = 300

type userFacing interface {
	UserMessage() string
}

// causeMessage prefers a cause's own user rendering over its full error text.
func causeMessage(cause error) string {
	text := cause.Error()
	var facing userFacing
	if errors.As(cause, &facing) {
		text = facing.UserMessage()
	}
	return truncateRunes(strings.TrimSpace(text), MaxCauseRunes)
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage != "" {
		parts = append(parts, stage)
	}
	if operation != "" {
		parts = append(parts, operation)
	}
	if message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
