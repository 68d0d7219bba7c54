package rest

import (
	"net/http"

	"github.com/ewilliams-labs/overture/intentengine/internal/core/domain"
	"github.com/ewilliams-labs/overture/intentengine/internal/core/schema"
)

type schemaResponse struct {
	Type        domain.IntentType `json:"type"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Format      schema.Encoding   `json:"format"`
	Schema      any               `json:"schema"`
	Example     map[string]any    `json:"example"`
}

// GetSchema handles GET /schemas/{type}?format=. Unknown types resolve to
// the default variant, mirroring the registry.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	enc, err := schema.ParseEncoding(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := schema.SchemaFor(domain.IntentType(r.PathValue("type")))
	body, err := schema.Describe(s.Key(), enc)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, schemaResponse{
		Type:        s.Key(),
		Name:        s.Name(),
		Description: s.Description(),
		Format:      enc,
		Schema:      body,
		Example:     schema.Example(s.Key()),
	})
}
