package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "github.com/shahul3595/SFCAudit/pkg/handlers/audit"
	"github.com/shahul3595/SFCAudit/pkg/models/api"
	"github.com/shahul3595/SFCAudit/pkg/models/domain"
	auditsvc "github.com/shahul3595/SFCAudit/pkg/services/audit"
	"github.com/shahul3595/SFCAudit/pkg/store/dataset"
)

type stubSource struct {
	entities []domain.Entity
	tables   map[string]map[string][]dataset.Row
}

func (s *stubSource) Entities() []domain.Entity { return s.entities }

func (s *stubSource) EntityIDs() []string {
	ids := make([]string, 0, len(s.entities))
	for _, e := range s.entities {
		ids = append(ids, e.ID)
	}
	return ids
}

func (s *stubSource) Entity(id string) (domain.Entity, bool) {
	for _, e := range s.entities {
		if e.ID == id {
			return e, true
		}
	}
	return domain.Entity{}, false
}

func (s *stubSource) Rows(id, table string) []dataset.Row { return s.tables[table][id] }

func (s *stubSource) HasTable(table string) bool {
	_, ok := s.tables[table]
	return ok
}

func TestWebAPI_Endpoints(t *testing.T) {
	src := &stubSource{
		entities: []domain.Entity{
			{ID: "ulb_001", Name: "Chennai Municipal Corporation", District: "Chennai"},
			{ID: "ulb_002", Name: "Ambur Municipality", District: "Tirupattur"},
		},
		tables: map[string]map[string][]dataset.Row{
			"p8_1_1": {
				"ulb_001": {{"revenue": "5000"}},
				"ulb_002": {{"revenue": "300"}},
			},
		},
	}
	rules := []domain.Rule{{
		ID:           "SFC_08_001",
		Type:         domain.RuleThreshold,
		Calc:         domain.CalcDirect,
		PrimaryTable: "p8_1_1",
		Columns:      []string{"revenue"},
		Operator:     domain.OpLess,
		Threshold:    "1000",
		Severity:     domain.SeverityHigh,
		Description:  "Revenue above the reporting ceiling",
	}}

	logger := zerolog.New(zerolog.NewTestWriter(t))
	webAPI := NewWebAPI(logger, Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Audit: handlers.NewHandler(auditsvc.NewExecutor(src), rules),
		},
	})
	testServer := httptest.NewServer(webAPI.router)
	defer testServer.Close()

	t.Run("ListRules", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/rules")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got []api.Rule
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, "SFC_08_001", got[0].ID)
		assert.Equal(t, api.SeverityHigh, got[0].Severity)
	})

	t.Run("SummaryBeforeRun", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/audit/summary")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("RunAudit", func(t *testing.T) {
		resp, err := http.Post(testServer.URL+"/api/v1/audit", "application/json", nil)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var run api.RunResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
		assert.Equal(t, 2, run.EntityCount)
		require.Len(t, run.Findings, 1)
		assert.Equal(t, "ulb_001", run.Findings[0].EntityID)
	})

	t.Run("SummaryAfterRun", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/api/v1/audit/summary")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var run api.RunResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&run))
		assert.Len(t, run.Findings, 1)
	})
}
