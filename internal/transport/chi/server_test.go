package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/scimd/internal/domain"
	domres "github.com/kailas-cloud/scimd/internal/domain/resource"
	"github.com/kailas-cloud/scimd/internal/domain/value"
	healthuc "github.com/kailas-cloud/scimd/internal/usecase/health"
	resourceuc "github.com/kailas-cloud/scimd/internal/usecase/resource"
	searchuc "github.com/kailas-cloud/scimd/internal/usecase/search"
)

// --- In-memory repository ---

type memRepo struct {
	resources map[string]domres.Resource // key: type + "/" + id
}

func newMemRepo() *memRepo {
	return &memRepo{resources: make(map[string]domres.Resource)}
}

func (m *memRepo) Upsert(_ context.Context, res domres.Resource) error {
	m.resources[res.Type()+"/"+res.ID()] = res
	return nil
}

func (m *memRepo) Get(_ context.Context, resourceType, id string) (domres.Resource, error) {
	res, ok := m.resources[resourceType+"/"+id]
	if !ok {
		return domres.Resource{}, domain.ErrResourceNotFound
	}
	return res, nil
}

func (m *memRepo) Exists(_ context.Context, resourceType, id string) (bool, error) {
	_, ok := m.resources[resourceType+"/"+id]
	return ok, nil
}

func (m *memRepo) Delete(_ context.Context, resourceType, id string) error {
	key := resourceType + "/" + id
	if _, ok := m.resources[key]; !ok {
		return domain.ErrResourceNotFound
	}
	delete(m.resources, key)
	return nil
}

func (m *memRepo) List(_ context.Context, resourceType string) ([]domres.Resource, error) {
	var out []domres.Resource
	for key, res := range m.resources {
		if strings.HasPrefix(key, resourceType+"/") {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestRouter(repo *memRepo) http.Handler {
	srv := NewServer(
		resourceuc.New(repo),
		searchuc.New(repo),
		healthuc.New(okPinger{}),
		[]string{"Users", "Groups"},
		zap.NewNop(),
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func seedUser(t *testing.T, repo *memRepo, id, body string) {
	t.Helper()
	err := repo.Upsert(context.Background(),
		domres.Reconstruct(id, "Users", value.MustParse(body)))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestServer_CreateResource(t *testing.T) {
	repo := newMemRepo()
	router := newTestRouter(repo)

	rr := doRequest(t, router, "POST", "/v2/Users", `{"userName":"bjensen"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != contentTypeSCIM {
		t.Errorf("Content-Type = %q", ct)
	}

	var doc map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, _ := doc["id"].(string)
	if id == "" {
		t.Fatal("response has no id")
	}
	if loc := rr.Header().Get("Location"); loc != "/v2/Users/"+id {
		t.Errorf("Location = %q", loc)
	}
	meta, _ := doc["meta"].(map[string]any)
	if meta["resourceType"] != "Users" {
		t.Errorf("meta.resourceType = %v", meta["resourceType"])
	}
}

func TestServer_CreateResource_InvalidBody(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "POST", "/v2/Users", `{"userName":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.ScimType != scimTypeInvalidSyntax {
		t.Errorf("scimType = %q", errResp.ScimType)
	}
	if errResp.Status != "400" {
		t.Errorf("status = %q", errResp.Status)
	}
}

func TestServer_CreateResource_NonObject(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "POST", "/v2/Users", `"just a string"`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.ScimType != scimTypeInvalidValue {
		t.Errorf("scimType = %q", errResp.ScimType)
	}
}

func TestServer_GetResource(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "2819c223", `{"userName":"bjensen","active":true}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "GET", "/v2/Users/2819c223", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var doc map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &doc)
	if doc["userName"] != "bjensen" {
		t.Errorf("userName = %v", doc["userName"])
	}
}

func TestServer_GetResource_NotFound(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "GET", "/v2/Users/missing", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServer_UnknownResourceType(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "GET", "/v2/Gadgets/abc", "")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServer_ReplaceResource(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "2819c223",
		`{"userName":"old","meta":{"created":"2020-01-01T00:00:00Z"}}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "PUT", "/v2/Users/2819c223", `{"userName":"new"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var doc map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &doc)
	if doc["userName"] != "new" {
		t.Errorf("userName = %v", doc["userName"])
	}
	meta, _ := doc["meta"].(map[string]any)
	if meta["created"] != "2020-01-01T00:00:00Z" {
		t.Errorf("meta.created = %v, want original preserved", meta["created"])
	}
}

func TestServer_ReplaceResource_NotFound(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "PUT", "/v2/Users/missing", `{"userName":"x"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServer_DeleteResource(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "2819c223", `{"userName":"bjensen"}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "DELETE", "/v2/Users/2819c223", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = doRequest(t, router, "GET", "/v2/Users/2819c223", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("deleted resource still served, status = %d", rr.Code)
	}
}

func TestServer_ListResources_Filter(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice","active":true}`)
	seedUser(t, repo, "b", `{"userName":"bob","active":false}`)
	seedUser(t, repo, "c", `{"userName":"carol","active":true}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "GET", "/v2/Users?filter=active+eq+true", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Schemas) != 1 || resp.Schemas[0] != schemaListResponse {
		t.Errorf("schemas = %v", resp.Schemas)
	}
	if resp.TotalResults != 2 || resp.ItemsPerPage != 2 {
		t.Errorf("totalResults = %d, itemsPerPage = %d", resp.TotalResults, resp.ItemsPerPage)
	}
}

func TestServer_ListResources_Pagination(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice"}`)
	seedUser(t, repo, "b", `{"userName":"bob"}`)
	seedUser(t, repo, "c", `{"userName":"carol"}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "GET", "/v2/Users?startIndex=2&count=1", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp listResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.TotalResults != 3 || resp.StartIndex != 2 || resp.ItemsPerPage != 1 {
		t.Errorf("total = %d, startIndex = %d, perPage = %d",
			resp.TotalResults, resp.StartIndex, resp.ItemsPerPage)
	}
	var doc map[string]any
	_ = json.Unmarshal(resp.Resources[0], &doc)
	if doc["userName"] != "bob" {
		t.Errorf("page resource = %v", doc["userName"])
	}
}

func TestServer_ListResources_InvalidFilter(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice"}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "GET", "/v2/Users?filter=userName+xx+%22a%22", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.ScimType != scimTypeInvalidFilter {
		t.Errorf("scimType = %q", errResp.ScimType)
	}
}

func TestServer_ListResources_OrderingOnBoolean(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice","active":true}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "GET", "/v2/Users?filter=active+gt+false", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	var errResp errorResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &errResp)
	if errResp.ScimType != scimTypeInvalidFilter {
		t.Errorf("scimType = %q", errResp.ScimType)
	}
}

func TestServer_ListResources_BadStartIndex(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "GET", "/v2/Users?startIndex=abc", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestServer_SearchResources(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice","emails":[{"type":"work","value":"a@x.com"}]}`)
	seedUser(t, repo, "b", `{"userName":"bob"}`)
	router := newTestRouter(repo)

	body := `{
		"schemas": ["urn:ietf:params:scim:api:messages:2.0:SearchRequest"],
		"filter": "emails[type eq \"work\"] pr",
		"startIndex": 1,
		"count": 10
	}`
	rr := doRequest(t, router, "POST", "/v2/Users/.search", body)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp listResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.TotalResults != 1 {
		t.Errorf("totalResults = %d, want 1", resp.TotalResults)
	}
}

func TestServer_SearchResources_CountZero(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "a", `{"userName":"alice"}`)
	seedUser(t, repo, "b", `{"userName":"bob"}`)
	router := newTestRouter(repo)

	rr := doRequest(t, router, "POST", "/v2/Users/.search", `{"count": 0}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp listResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.TotalResults != 2 || resp.ItemsPerPage != 0 {
		t.Errorf("total = %d, perPage = %d; want 2, 0", resp.TotalResults, resp.ItemsPerPage)
	}
}

func TestServer_HealthCheck(t *testing.T) {
	router := newTestRouter(newMemRepo())

	rr := doRequest(t, router, "GET", "/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v", resp["status"])
	}
}
