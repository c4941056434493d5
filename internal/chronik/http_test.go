package chronik

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(Config{URL: server.URL}), server
}

func TestBlockchainInfo(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/blockchain-info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"tipHash":"abc","tipHeight":860000}`))
	}))

	info, err := client.BlockchainInfo(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.TipHeight != 860000 || info.TipHash != "abc" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestBlockInfo_ParsesStringNumerics(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/block/860000" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"blockInfo":{"height":860000,"hash":"abc","timestamp":"1714557600","numTxs":3,"blockSize":"12345","sumCoinbaseOutputSats":"312500000"}}`))
	}))

	info, err := client.BlockInfo(context.Background(), 860000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Timestamp != 1714557600 {
		t.Errorf("expected timestamp 1714557600, got %d", info.Timestamp)
	}
	if info.SumCoinbaseOutputSats != 312500000 {
		t.Errorf("expected coinbase sum 312500000, got %d", info.SumCoinbaseOutputSats)
	}
	if info.BlockSize != 12345 {
		t.Errorf("expected block size 12345, got %d", info.BlockSize)
	}
}

func TestBlockInfo_NotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.BlockInfo(context.Background(), 99999999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"tipHash":"abc","tipHeight":100}`))
	}))

	info, err := client.BlockchainInfo(context.Background())
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if info.TipHeight != 100 {
		t.Errorf("expected tip 100, got %d", info.TipHeight)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", hits.Load())
	}
}

func TestBlockTxs_QueryParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/block-txs/860000" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("expected page 2, got %s", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "200" {
			t.Errorf("expected page_size 200, got %s", got)
		}
		w.Write([]byte(`{"txs":[{"txid":"aa"}],"numPages":3}`))
	}))

	page, err := client.BlockTxs(context.Background(), 860000, 2, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Txs) != 1 || page.Txs[0].TxID != "aa" {
		t.Errorf("unexpected page: %+v", page)
	}
}
