package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/locale"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/seed"
	"github.com/wagnerlima/memory-cloud/provenance-viewer/internal/storage"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) (*httptest.Server, *storage.Store, *seed.Sample) {
	t.Helper()
	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sample, err := seed.Load(store)
	require.NoError(t, err)

	locales, err := locale.Load()
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(store, locales, zap.NewNop().Sugar(), "/api"))
	t.Cleanup(srv.Close)
	return srv, store, sample
}

func do(t *testing.T, method, url, body string) (int, envelope) {
	t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, url, nil)
	} else {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestGraphEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/graph", "")
	require.Equal(t, http.StatusOK, status)
	require.True(t, env.Success)

	var graph struct {
		Entities      []json.RawMessage `json:"entities"`
		Activities    []json.RawMessage `json:"activities"`
		Relationships []json.RawMessage `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &graph))
	assert.Len(t, graph.Entities, 11)
	assert.Len(t, graph.Activities, 4)
	assert.Len(t, graph.Relationships, 34)
}

func TestEntityAndActivityEndpoints(t *testing.T) {
	srv, _, sample := newTestServer(t)

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/entity/"+sample.Cleaned.ID, "")
	require.Equal(t, http.StatusOK, status)
	var prov struct {
		Entity struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"entity"`
		GeneratedBy struct {
			Activity struct {
				Name string `json:"name"`
			} `json:"activity"`
		} `json:"generated_by"`
		UsedBy []json.RawMessage `json:"used_by"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &prov))
	assert.Equal(t, "Cleaned Events", prov.Entity.Name)
	assert.Equal(t, "entity", prov.Entity.Type)
	assert.Equal(t, "Data Screen Software", prov.GeneratedBy.Activity.Name)
	assert.Len(t, prov.UsedBy, 1)

	status, env = do(t, http.MethodGet, srv.URL+"/api/provenance/activity/"+sample.Analysis.ID, "")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestNotFoundAndBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, path := range []string{
		"/api/provenance/entity/ghost",
		"/api/provenance/activity/ghost",
		"/api/provenance/graph/ghost",
		"/api/provenance/activity-graph/ghost",
		"/api/projects/ghost",
		"/api/locales/fr",
	} {
		status, env := do(t, http.MethodGet, srv.URL+path, "")
		assert.Equal(t, http.StatusNotFound, status, path)
		assert.False(t, env.Success, path)
		assert.NotEmpty(t, env.Error, path)
	}

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/search?q=", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, _ = do(t, http.MethodPost, srv.URL+"/api/provenance/entities", "{not json")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, http.MethodPost, srv.URL+"/api/provenance/relationships",
		`{"type":"was_sent_by","source":"a","target":"b"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/search?q=software&type=activity", "")
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Entities   []json.RawMessage `json:"entities"`
		Activities []json.RawMessage `json:"activities"`
		Agents     []json.RawMessage `json:"agents"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Len(t, result.Activities, 3)
	assert.Empty(t, result.Entities)
	assert.NotNil(t, result.Entities)
	assert.Empty(t, result.Agents)
}

func TestTimelineAndSummary(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/timeline", "")
	require.Equal(t, http.StatusOK, status)
	var tl struct {
		Timeline []struct {
			Type string `json:"type"`
		} `json:"timeline"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tl))
	// 11 generated entities, 4 starts, 4 ends.
	assert.Len(t, tl.Timeline, 19)

	status, env = do(t, http.MethodGet, srv.URL+"/api/provenance/graph-summary", "")
	require.Equal(t, http.StatusOK, status)
	var summary struct {
		Total         int            `json:"total_relationships"`
		Relationships map[string]int `json:"relationships"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 34, summary.Total)
	assert.Equal(t, 7, summary.Relationships["used"])
}

func TestLineageEndpoint(t *testing.T) {
	srv, _, sample := newTestServer(t)

	status, env := do(t, http.MethodGet, srv.URL+"/api/provenance/graph/"+sample.Image.ID, "")
	require.Equal(t, http.StatusOK, status)
	var l struct {
		TotalNodes int `json:"total_nodes"`
		Metadata   struct {
			GraphType string `json:"graph_type"`
		} `json:"graph_metadata"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, 11, l.TotalNodes)
	assert.Equal(t, "provenance_dag", l.Metadata.GraphType)

	status, env = do(t, http.MethodGet, srv.URL+"/api/provenance/activity-graph/"+sample.Observation.ID, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, 2, l.TotalNodes)
	assert.Equal(t, "activity_workflow_dag", l.Metadata.GraphType)
}

func TestRecordWorkflowOverHTTP(t *testing.T) {
	srv, store, sample := newTestServer(t)

	status, env := do(t, http.MethodPost, srv.URL+"/api/provenance/entities", `{"name":"flat field"}`)
	require.Equal(t, http.StatusCreated, status)
	var flat struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &flat))

	status, env = do(t, http.MethodPost, srv.URL+"/api/provenance/activities",
		`{"name":"calibrate","inputs":["`+sample.Image.ID+`","`+flat.ID+`"]}`)
	require.Equal(t, http.StatusCreated, status)
	var act struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &act))

	status, env = do(t, http.MethodPost, srv.URL+"/api/provenance/entities", `{"name":"calibrated image"}`)
	require.Equal(t, http.StatusCreated, status)
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))

	status, _ = do(t, http.MethodPost, srv.URL+"/api/provenance/activities/"+act.ID+"/complete",
		`{"outputs":["`+out.ID+`"]}`)
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, http.MethodPost, srv.URL+"/api/provenance/activities/"+act.ID+"/configurations",
		`{"type":"parameter","name":"gain","value":"1.5"}`)
	require.Equal(t, http.StatusCreated, status)

	prov, err := store.EntityProvenance(out.ID)
	require.NoError(t, err)
	require.NotNil(t, prov.GeneratedBy.Activity)
	assert.Equal(t, "calibrate", prov.GeneratedBy.Activity.Name)
	assert.Len(t, prov.DerivedFrom, 2)

	status, _ = do(t, http.MethodPost, srv.URL+"/api/provenance/agents", `{"name":"alice","agent_type":"robot"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestProjectsAndTemplates(t *testing.T) {
	srv, _, _ := newTestServer(t)

	status, env := do(t, http.MethodPost, srv.URL+"/api/projects", `{"name":"survey","description":"sky survey"}`)
	require.Equal(t, http.StatusCreated, status)
	var proj struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &proj))

	status, _ = do(t, http.MethodPost, srv.URL+"/api/projects", `{"name":"survey"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, http.MethodPost, srv.URL+"/api/workflow-template",
		`{"name":"nightly","project_id":"`+proj.ID+`","config":{"stages":3}}`)
	require.Equal(t, http.StatusCreated, status)
	var tmpl struct {
		ID     string         `json:"id"`
		Config map[string]any `json:"config"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tmpl))
	assert.Equal(t, float64(3), tmpl.Config["stages"])

	status, env = do(t, http.MethodGet, srv.URL+"/api/workflow-template?project_id="+proj.ID, "")
	require.Equal(t, http.StatusOK, status)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	status, _ = do(t, http.MethodPut, srv.URL+"/api/workflow-template/"+tmpl.ID,
		`{"name":"weekly","project_id":"`+proj.ID+`"}`)
	assert.Equal(t, http.StatusOK, status)

	status, env = do(t, http.MethodPost, srv.URL+"/api/workflow-template/"+tmpl.ID+"/run", "")
	require.Equal(t, http.StatusCreated, status)
	var wf struct {
		Name   string `json:"name"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wf))
	assert.True(t, strings.HasPrefix(wf.Name, "weekly_instance_"))
	assert.Equal(t, "pending", wf.Status)

	status, _ = do(t, http.MethodDelete, srv.URL+"/api/workflow-template/"+tmpl.ID, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = do(t, http.MethodGet, srv.URL+"/api/workflow-template/"+tmpl.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestLocaleEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/locales", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	var info struct {
		Default   string   `json:"default"`
		Fallback  string   `json:"fallback"`
		Locales   []string `json:"locales"`
		Preferred string   `json:"preferred"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "en", info.Default)
	assert.Equal(t, "zh", info.Fallback)
	assert.Equal(t, "zh", info.Preferred)
	assert.Equal(t, []string{"en", "zh"}, info.Locales)

	status, env := do(t, http.MethodGet, srv.URL+"/api/locales/zh", "")
	require.Equal(t, http.StatusOK, status)
	var messages map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &messages))
	assert.Equal(t, "节点详情", messages["dialog.nodeDetail"])
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
