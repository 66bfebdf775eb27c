// Package permissions holds the role table the RBAC middleware enforces,
// keyed by chi route pattern and method.
package permissions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
)

//go:embed permissions.json
var permissionsData []byte

type Permission struct {
	Permissions []string `json:"permissions"`
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Skip        bool     `json:"skip"`
}

// Allows reports whether role may call the endpoint. An endpoint without a
// role list is open to any authenticated caller.
func (p Permission) Allows(role string) bool {
	return len(p.Permissions) == 0 || slices.Contains(p.Permissions, role)
}

type PermissionData struct {
	Endpoints []Permission `json:"endpoints"`
	Skip      bool         `json:"skip"`
	index     map[string]Permission
}

func key(path, method string) string {
	return method + " " + path
}

// FindPermissions returns the zero Permission for unlisted endpoints.
func (r *PermissionData) FindPermissions(path, method string) Permission {
	if r.index == nil {
		r.buildIndex()
	}

	return r.index[key(path, method)]
}

func (r *PermissionData) buildIndex() {
	r.index = make(map[string]Permission, len(r.Endpoints))
	for _, endpoint := range r.Endpoints {
		r.index[key(endpoint.Path, endpoint.Method)] = endpoint
	}
}

// Parse decodes a permission table and rejects duplicate endpoints.
func Parse(data []byte) (*PermissionData, error) {
	var permissions PermissionData

	if err := json.Unmarshal(data, &permissions); err != nil {
		return nil, fmt.Errorf("failed to decode permissions: %w", err)
	}

	seen := map[string]bool{}
	for _, endpoint := range permissions.Endpoints {
		k := key(endpoint.Path, endpoint.Method)
		if seen[k] {
			return nil, fmt.Errorf("duplicate permission for %s", k)
		}

		seen[k] = true
	}

	permissions.buildIndex()

	return &permissions, nil
}

// Get loads the embedded table. A broken table yields nil, which the RBAC
// middleware treats as deny-all.
func Get() *PermissionData {
	permissions, err := Parse(permissionsData)
	if err != nil {
		log.Error().Err(err).Msg("failed to load embedded permissions")

		return nil
	}

	log.Info().Int("endpoints", len(permissions.Endpoints)).Msg("loaded embedded permissions")

	return permissions
}
