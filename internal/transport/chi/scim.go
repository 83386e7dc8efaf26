package chi

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// SCIM protocol message URNs, RFC 7644 section 8.2.
const (
	schemaListResponse  = "urn:ietf:params:scim:api:messages:2.0:ListResponse"
	schemaSearchRequest = "urn:ietf:params:scim:api:messages:2.0:SearchRequest"
	schemaError         = "urn:ietf:params:scim:api:messages:2.0:Error"
)

// SCIM error types, RFC 7644 section 3.12.
const (
	scimTypeInvalidFilter = "invalidFilter"
	scimTypeInvalidValue  = "invalidValue"
	scimTypeInvalidSyntax = "invalidSyntax"
)

const contentTypeSCIM = "application/scim+json"

// listResponse is the SCIM ListResponse message.
type listResponse struct {
	Schemas      []string          `json:"schemas"`
	TotalResults int               `json:"totalResults"`
	StartIndex   int               `json:"startIndex"`
	ItemsPerPage int               `json:"itemsPerPage"`
	Resources    []json.RawMessage `json:"Resources"`
}

// searchRequest is the SCIM SearchRequest message, RFC 7644 section 3.4.3.
type searchRequest struct {
	Schemas    []string `json:"schemas"`
	Filter     string   `json:"filter"`
	StartIndex *int     `json:"startIndex"`
	Count      *int     `json:"count"`
}

// errorResponse is the SCIM Error message.
type errorResponse struct {
	Schemas  []string `json:"schemas"`
	ScimType string   `json:"scimType,omitempty"`
	Detail   string   `json:"detail"`
	Status   string   `json:"status"`
}

func writeSCIM(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeSCIM)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSCIMError(w http.ResponseWriter, status int, scimType, detail string) {
	writeSCIM(w, status, errorResponse{
		Schemas:  []string{schemaError},
		ScimType: scimType,
		Detail:   detail,
		Status:   strconv.Itoa(status),
	})
}
