package httpapi

import (
	"net/http"
	"strings"

	"opsboard.dev/internal/auth"
)

func (a *API) handleOrgScoped(w http.ResponseWriter, r *http.Request) {
	if a.users == nil {
		writeError(w, r, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/orgs/"), "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	orgID := parts[0]
	switch parts[1] {
	case "users":
		a.handleOrgUsers(w, r, orgID)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleOrgUsers(w http.ResponseWriter, r *http.Request, orgID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if !principal.HasPermission(auth.PermManageUsers) {
		writeError(w, r, http.StatusForbidden, "insufficient permission")
		return
	}
	if !a.ensureOrgAccess(w, r, orgID) {
		return
	}
	users, err := a.users.ListByOrg(r.Context(), orgID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "listing users failed")
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}
