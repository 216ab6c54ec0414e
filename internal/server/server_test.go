package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobportal/ingestion-service/internal/ingest"
	"jobportal/ingestion-service/internal/refine"
	"jobportal/ingestion-service/internal/server"
)

type fakePipeline struct {
	extractErr error
	syncErr    error
	extracts   int
	refines    int
	syncs      int
}

func (p *fakePipeline) ExtractAll(context.Context) (ingest.ExtractStats, error) {
	p.extracts++
	return ingest.ExtractStats{Inserted: 3}, p.extractErr
}

func (p *fakePipeline) RefineAll(context.Context) (refine.Stats, error) {
	p.refines++
	return refine.Stats{Total: 3, Refined: 3}, nil
}

func (p *fakePipeline) SyncAll(context.Context) (ingest.SyncBatchStats, error) {
	p.syncs++
	return ingest.SyncBatchStats{Total: 3, Success: 2, Errors: 1}, p.syncErr
}

func (p *fakePipeline) Stats(context.Context) (ingest.SyncStats, error) {
	return ingest.SyncStats{Total: 10, Synced: 4, Unsynced: 6, Percentage: 40}, nil
}

func newTestServer(p *fakePipeline) *httptest.Server {
	mux := http.NewServeMux()
	server.NewHandler(p, p, p, p).Register(mux)
	return httptest.NewServer(mux)
}

func TestSyncEndpoint_PartialFailureIsOK(t *testing.T) {
	p := &fakePipeline{}
	srv := newTestServer(p)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ingestion/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /ingestion/sync: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200 despite per-record errors", resp.StatusCode)
	}
}

func TestSyncEndpoint_StoreUnreachableIs500(t *testing.T) {
	p := &fakePipeline{syncErr: errors.New("db unreachable")}
	srv := newTestServer(p)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ingestion/sync", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /ingestion/sync: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRunEndpoint_DrivesAllStages(t *testing.T) {
	p := &fakePipeline{}
	srv := newTestServer(p)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ingestion/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /ingestion/run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if p.extracts != 1 || p.refines != 1 || p.syncs != 1 {
		t.Errorf("stage calls = (%d, %d, %d), want one each", p.extracts, p.refines, p.syncs)
	}
}

func TestRunEndpoint_AbortedStageStopsPipeline(t *testing.T) {
	p := &fakePipeline{extractErr: errors.New("db unreachable")}
	srv := newTestServer(p)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/ingestion/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /ingestion/run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if p.refines != 0 || p.syncs != 0 {
		t.Errorf("later stages must not run after an abort, got (%d, %d)", p.refines, p.syncs)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := newTestServer(&fakePipeline{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ingestion/stats")
	if err != nil {
		t.Fatalf("GET /ingestion/stats: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	buf := make([]byte, 256)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), `"percentage":40`) {
		t.Errorf("body = %s", buf[:n])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakePipeline{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ingestion/sync")
	if err != nil {
		t.Fatalf("GET /ingestion/sync: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakePipeline{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
