// Package monitor exposes a running Simulation over HTTP: a status
// page, a metrics snapshot, host resource usage, and pprof profiling,
// so a long trace can be watched while it executes.
package monitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	// Registers /debug/pprof/* on http.DefaultServeMux.
	_ "net/http/pprof"
	"os"
	"runtime/pprof"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/archlab/memsim/simulation"
)

// Server is an HTTP front-end for an in-flight Simulation.
type Server struct {
	sim  *simulation.Simulation
	port int

	listener net.Listener
}

// NewServer creates a Server for sim. A port of 0 lets the OS assign
// one; the assigned port is available from Addr after Start.
func NewServer(sim *simulation.Simulation, port int) *Server {
	return &Server{sim: sim, port: port}
}

// Addr returns the address the server is listening on. Valid only
// after Start returns successfully.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start binds the listener and serves requests on a background
// goroutine. It returns once the listener is ready.
func (s *Server) Start() error {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.status)
	r.HandleFunc("/metrics", s.metrics)
	r.HandleFunc("/host", s.host)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.HandleFunc("/debug/profile/summary", s.profileSummary)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("monitor: failed to listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := http.Serve(listener, r); err != nil && err != http.ErrServerClosed {
			log.Printf("monitor: server stopped: %v", err)
		}
	}()

	return nil
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

type statusResponse struct {
	RunID       string `json:"run_id"`
	CurrentTime uint64 `json:"current_time_cycles"`
	PageFaults  uint64 `json:"page_faults"`
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		RunID:       s.sim.ID(),
		CurrentTime: uint64(s.sim.Engine().CurrentTime()),
		PageFaults:  s.sim.Metrics().PageFaults(),
	}
	writeJSON(w, resp)
}

func (s *Server) metrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.sim.Metrics().Snapshot(s.sim.ID()))
}

type hostResponse struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
}

func (s *Server) host(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, hostResponse{CPUPercent: cpuPercent, MemoryRSS: memInfo.RSS})
}

// profileSummary collects a one-second CPU profile and returns the
// decoded sample/function counts rather than the raw pprof blob, so a
// curl caller gets something readable without a pprof client.
func (s *Server) profileSummary(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)
	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	time.Sleep(time.Second)
	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		SampleCount   int   `json:"sample_count"`
		FunctionCount int   `json:"function_count"`
		DurationNanos int64 `json:"duration_nanos"`
	}{
		SampleCount:   len(prof.Sample),
		FunctionCount: len(prof.Function),
		DurationNanos: prof.DurationNanos,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("monitor: failed to encode response: %v", err)
	}
}
