package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleHealth handles GET /api/health. Reports process uptime, dataset
// size and host resource usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.startupTime).Round(time.Second).String(),
	}

	if count, err := s.repo.Count(); err == nil {
		health["transactions"] = count
	} else {
		health["status"] = "degraded"
		health["database_error"] = err.Error()
	}

	health["cached_models"] = s.modelCache.Len()

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		health["cpu_percent"] = cpuPercent[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		health["mem_used_percent"] = memStat.UsedPercent
	}

	status := http.StatusOK
	if health["status"] != "ok" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}
