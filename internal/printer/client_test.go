package printer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sbcrumb/bambuddy-sub000/internal/model"
)

// TestFetchStatus 测试状态快照拉取与解析
func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("path = %q, want /status", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer 12345678" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"state": "printing",
			"jobName": "benchy.3mf",
			"progress": 66.5,
			"trays": [
				{"unitId": 0, "trayPosition": 0, "materialType": "PLA", "color": "FF0000"},
				{"unitId": -1, "external": true, "materialType": "PETG", "color": "00FF00"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	st, err := client.FetchStatus(context.Background(), &model.Printer{
		ID:         7,
		Host:       srv.URL,
		AccessCode: "12345678",
	})
	if err != nil {
		t.Fatalf("fetch status: %v", err)
	}

	if st.PrinterID != 7 || st.State != "printing" || st.Progress != 66.5 {
		t.Errorf("status = %+v", st)
	}
	if len(st.Trays) != 2 {
		t.Fatalf("trays = %+v", st.Trays)
	}
	if st.Trays[1].GlobalID() != 254 {
		t.Errorf("外置料盘 globalID = %d, want 254", st.Trays[1].GlobalID())
	}
	if st.UpdatedAt.IsZero() {
		t.Error("UpdatedAt 应被填充")
	}
}

// TestFetchStatusHTTPError 测试非 200 响应返回错误
func TestFetchStatusHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	if _, err := client.FetchStatus(context.Background(), &model.Printer{Host: srv.URL}); err == nil {
		t.Error("非 200 响应应返回错误")
	}
}
