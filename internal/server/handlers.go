package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/xaenox/mail-triage/internal/apperr"
	"github.com/xaenox/mail-triage/internal/models"
	"github.com/xaenox/mail-triage/internal/responder"
)

const (
	genericErrorMessage = "Erro ao processar a solicitação"
	// multipartOverhead leaves room for boundaries and headers above the file cap.
	multipartOverhead = 1 << 20
)

type classifyResponse struct {
	Success      bool            `json:"success"`
	ID           string          `json:"id"`
	Category     models.Category `json:"category"`
	Confidence   float64         `json:"confidence"`
	Response     string          `json:"response"`
	OriginalText string          `json:"original_text"`
}

type textRequest struct {
	Text *string `json:"text"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	text, err := s.readClassifyInput(w, r)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	res, err := s.svc.Process(r.Context(), text)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Success:      true,
		ID:           res.ID,
		Category:     res.Category,
		Confidence:   math.Round(res.Confidence*10000) / 100,
		Response:     res.Reply,
		OriginalText: res.OriginalText,
	})
}

// readClassifyInput accepts a multipart "file" upload or a JSON {"text"} body.
func (s *Server) readClassifyInput(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.extractor.MaxBytes()+multipartOverhead)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.extractor.MaxBytes() + multipartOverhead); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return "", apperr.Input(fmt.Sprintf("Arquivo excede o limite de %dMB", s.extractor.MaxBytes()>>20))
			}
			return "", apperr.Input("Requisição inválida")
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			return s.extractor.FromUpload(header.Filename, file)
		}
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return "", apperr.Input("Nenhum arquivo selecionado")
		}
		if text, ok := r.MultipartForm.Value["text"]; ok && len(text) > 0 {
			return text[0], nil
		}
		return "", apperr.Input("Nenhum conteúdo fornecido")
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		return "", apperr.Input("Nenhum conteúdo fornecido")
	}
	return *req.Text, nil
}

func (s *Server) handleTriage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.extractor.MaxBytes())

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		writeError(w, http.StatusBadRequest, "Nenhum conteúdo fornecido")
		return
	}

	res, err := s.svc.Triage(r.Context(), *req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case apperr.IsInput(err):
		s.writeAppError(w, r, err)
	case errors.Is(err, responder.ErrMissingCredential):
		writeError(w, http.StatusServiceUnavailable, "Chave da API OpenAI não configurada. Defina OPENAI_API_KEY no ambiente.")
	case errors.Is(err, responder.ErrInvalidJSON):
		writeError(w, http.StatusBadGateway, "Erro ao parsear resposta JSON")
	case errors.Is(err, responder.ErrMissingFields):
		writeError(w, http.StatusBadGateway, "Resposta da IA não contém as chaves obrigatórias.")
	default:
		writeError(w, http.StatusBadGateway, "Erro na API OpenAI")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Health())
}

func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)

	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr) && appErr.Kind == apperr.KindInput:
		writeError(w, status, appErr.Message)
		return
	case errors.As(err, &appErr) && appErr.Kind == apperr.KindExtraction:
		s.logger.Warn("Failed to extract upload", zap.Error(err))
		writeError(w, status, appErr.Error())
		return
	}

	s.logger.Error("Failed to process request", zap.Error(err), zap.String("path", r.URL.Path))
	writeError(w, status, genericErrorMessage)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
