package web

import (
	"net/http"
	"strings"

	"github.com/odyssey-erp/stockroom/internal/authgate"
	"github.com/odyssey-erp/stockroom/internal/domain"
	"github.com/odyssey-erp/stockroom/internal/forms"
	"github.com/odyssey-erp/stockroom/internal/pages"
	"github.com/odyssey-erp/stockroom/internal/shared"
)

type profilePage struct {
	Profile forms.ProfileUpdateForm
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.pages.Profile(r.Context())
	if h.expired(w, r, err) {
		return
	}
	if err != nil {
		// Fall back to the identity stored at sign-in.
		h.loadFailed(r, err)
		if state := authgate.FromContext(r.Context()); state.User != nil {
			user = *state.User
		}
	}
	h.render(w, r, http.StatusOK, "pages/profile.html", "Profile", nil, profilePage{
		Profile: forms.ProfileUpdateForm{Name: user.Name, Email: user.Email},
	})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := forms.ParseProfileUpdateForm(r.PostForm)
	out, updated := h.pages.UpdateProfile(r.Context(), sessionID(r), form)
	if updated != nil {
		if err := h.gate.UpdateUser(shared.SessionFromContext(r.Context()), *updated); err != nil {
			h.logger.Error("store updated user", "error", err)
		}
	}
	h.finish(w, r, out, "/profile", func(out pages.Outcome) {
		h.renderForm(w, r, out, "pages/profile.html", "Profile", profilePage{Profile: form})
	})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := forms.ParsePasswordChangeForm(r.PostForm)
	out := h.pages.ChangePassword(r.Context(), sessionID(r), form)
	h.finish(w, r, out, "/profile", func(out pages.Outcome) {
		profile := forms.ProfileUpdateForm{}
		if state := authgate.FromContext(r.Context()); state.User != nil {
			profile = forms.ProfileUpdateForm{Name: state.User.Name, Email: state.User.Email}
		}
		h.renderForm(w, r, out, "pages/profile.html", "Profile", profilePage{Profile: profile})
	})
}

type settingsPage struct {
	View   pages.SettingsView
	Return string
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	h.render(w, r, http.StatusOK, "pages/settings.html", "Settings", nil, settingsPage{
		View:   h.pages.Settings(sess),
		Return: r.URL.Path,
	})
}

// settingsPath picks where to go after a theme change: the posted return
// path when it is one of the settings pages, else the role's own.
func settingsPath(role domain.Role, posted string) string {
	switch posted {
	case "/admin/settings", "/user/settings":
		if strings.HasPrefix(posted, "/"+string(role)+"/") {
			return posted
		}
	}
	if role == domain.RoleAdmin {
		return "/admin/settings"
	}
	return "/user/settings"
}

func (h *Handler) changeTheme(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	state := authgate.FromContext(r.Context())
	out := h.pages.ChangeTheme(sess, r.PostFormValue("theme"))
	location := settingsPath(state.Role(), r.PostFormValue("return"))
	h.finish(w, r, out, location, nil)
}
