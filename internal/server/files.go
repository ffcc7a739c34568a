package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/creative280/proyecto-fs-servicios/internal/errcode"
)

// fileRequest is the body of write and append.
type fileRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type fileResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

// decodeFileRequest reads a fileRequest, writing the error response itself
// when the body is unusable.
func (s *Server) decodeFileRequest(w http.ResponseWriter, r *http.Request) (fileRequest, bool) {
	var req fileRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	err := json.NewDecoder(body).Decode(&req)
	if err == nil {
		return req, true
	}

	var (
		tooLarge *http.MaxBytesError
		typeErr  *json.UnmarshalTypeError
	)
	switch {
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "El archivo es demasiado grande"})
	case errors.As(err, &typeErr) && typeErr.Field == "name":
		s.writeError(w, r, errcode.New(errcode.InvalidName, "", "nombre de archivo inválido"))
	case errors.As(err, &typeErr) && typeErr.Field == "content":
		badRequest(w, "El campo content debe ser texto")
	default:
		badRequest(w, "JSON inválido en el cuerpo de la petición")
	}
	return fileRequest{}, false
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFileRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.Write(req.Name, req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, fileResponse{Message: "Archivo escrito", File: req.Name})
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeFileRequest(w, r)
	if !ok {
		return
	}
	if err := s.store.Append(req.Name, req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{Message: "Contenido anexado", File: req.Name})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	content, err := s.store.Read(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file": name, "content": content})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if err := s.store.Delete(name); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fileResponse{Message: "Archivo eliminado", File: name})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("detail") == "true" {
		infos, err := s.store.ListInfo()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"directory": s.store.BaseDir(), "files": infos})
		return
	}

	names, err := s.store.List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"directory": s.store.BaseDir(), "files": names})
}
