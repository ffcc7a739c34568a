package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/creative280/proyecto-fs-servicios/internal/accesslog"
)

// DefaultRetentionDays applies when /logs/limpiar gets no retentionDays.
const DefaultRetentionDays = 30

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	snap, err := s.log.ReadAll()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.log.Statistics()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	c := accesslog.Criteria{
		Method:      q.Get("method"),
		URLContains: q.Get("urlContains"),
	}
	var err error
	if c.From, err = parseDateParam(q.Get("fromDate")); err != nil {
		badRequest(w, fmt.Sprintf("Fecha inválida en fromDate: %s", q.Get("fromDate")))
		return
	}
	if c.To, err = parseDateParam(q.Get("toDate")); err != nil {
		badRequest(w, fmt.Sprintf("Fecha inválida en toDate: %s", q.Get("toDate")))
		return
	}

	records, err := s.log.Filter(c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": records, "total": len(records)})
}

// parseDateParam parses an optional date bound. Empty means absent.
func parseDateParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return accesslog.ParseTime(raw)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("searchTerm")
	if term == "" {
		badRequest(w, "El parámetro searchTerm es requerido")
		return
	}

	matches, err := s.log.Search(term)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"term": term, "results": matches, "total": len(matches)})
}

func (s *Server) handlePrune(w http.ResponseWriter, r *http.Request) {
	days := DefaultRetentionDays
	if raw := r.URL.Query().Get("retentionDays"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "retentionDays debe ser un entero mayor o igual a 0")
			return
		}
		days = n
	}

	removed, err := s.log.PruneOlderThan(days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"logsEliminados": removed})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	exp, err := s.log.Export(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exp.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(exp.Body)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.stream == nil {
		s.handleNotFound(w, r)
		return
	}
	s.stream.ServeHTTP(w, r)
}

// clientCounter is implemented by stream handlers that track live
// subscribers.
type clientCounter interface {
	ClientCount() int
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"ok":   true,
		"time": accesslog.FormatTimestamp(s.clock.Now()),
	}
	if cc, ok := s.stream.(clientCounter); ok {
		body["streamClients"] = cc.ClientCount()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":  "Ruta no encontrada",
		"ruta":   r.URL.RequestURI(),
		"metodo": r.Method,
	})
}
