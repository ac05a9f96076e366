package view

import (
	"net/http"

	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/shared"
	"github.com/odyssey-erp/stockroom/internal/theme"
)

// PageData collects what every page needs from the request: the CSRF token,
// the pending flash, the signed-in user and the persisted theme.
func PageData(r *http.Request, csrf *shared.CSRFManager, title string) TemplateData {
	data := TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Theme:       theme.RootAttributes(theme.Default),
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return data
	}
	if csrf != nil {
		data.CSRFToken, _ = csrf.EnsureToken(sess)
	}
	data.Flash = sess.PopFlash()
	data.Theme = theme.RootAttributes(theme.NewStore(sess).Current().Name)
	if state := authgate.FromContext(r.Context()); state.Authenticated() {
		data.User = state.User
	}
	return data
}
