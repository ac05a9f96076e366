package pages

import (
	"context"
	"errors"
	"log/slog"

	"github.com/odyssey-erp/stockroom/internal/apiclient"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

// NoticeKind is the toast style.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = shared.FlashSuccess
	NoticeError   NoticeKind = shared.FlashError
)

// Notice is the transient message shown after a submission.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Flash converts the notice for the session flash queue.
func (n Notice) Flash() shared.FlashMessage {
	return shared.FlashMessage{Kind: string(n.Kind), Message: n.Message}
}

// Outcome is the result of one form submission.
type Outcome struct {
	Notice Notice
	// Fields holds validation errors; when set no backend call was made,
	// or the backend rejected individual fields.
	Fields forms.FieldErrors
	Err    error
}

// OK reports whether the submission succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Fields.Empty()
}

// Unauthorized reports whether the backend rejected the credential, in which
// case the caller should send the browser to the login page.
func (o Outcome) Unauthorized() bool {
	return apiclient.IsUnauthorized(o.Err)
}

// Guard admits one submission per session and action at a time.
type Guard interface {
	Acquire(ctx context.Context, sessionID, action string) (func(), error)
}

// mutation describes one write and what to revalidate after it.
type mutation struct {
	action  string
	call    func(ctx context.Context) error
	success string
	failure string
	after   func(ctx context.Context)
}

const inFlightMessage = "Still saving your previous request, please wait."

func (s *Service) submit(ctx context.Context, sessionID string, fields forms.FieldErrors, m mutation) Outcome {
	if !fields.Empty() {
		return Outcome{Fields: fields}
	}

	if s.guard != nil {
		release, err := s.guard.Acquire(ctx, sessionID, m.action)
		if err != nil {
			if !errors.Is(err, shared.ErrSubmissionInFlight) {
				s.logger.Error("acquire submission guard", slog.String("action", m.action), slog.Any("error", err))
				return Outcome{Notice: Notice{Kind: NoticeError, Message: m.failure}, Err: err}
			}
			return Outcome{Notice: Notice{Kind: NoticeError, Message: inFlightMessage}, Err: err}
		}
		defer release()
	}

	if err := m.call(ctx); err != nil {
		out := Outcome{Err: err, Fields: backendFields(err)}
		out.Notice = Notice{Kind: NoticeError, Message: failureMessage(err, m.failure)}
		return out
	}
	if m.after != nil {
		m.after(ctx)
	}
	return Outcome{Notice: Notice{Kind: NoticeSuccess, Message: m.success}}
}

// failureMessage prefers what the backend said for client errors and falls
// back to the action's generic failure message otherwise.
func failureMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Message != "" {
		return apiErr.Message
	}
	if apiclient.IsNetwork(err) {
		return apiclient.UserMessage(err, fallback)
	}
	return fallback
}

// backendFields maps a 422 field error list onto form fields.
func backendFields(err error) forms.FieldErrors {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return nil
	}
	return forms.FromBackend(apiErr.Fields)
}
