package nota

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
)

// NotaService define o contrato que o Handler espera da camada de Serviço.
type NotaService interface {
	InserirNota(ctx context.Context, req domain.LancarNotaRequest) error
	EditarNota(ctx context.Context, req domain.EditarNotaRequest) error
	DeletarNota(ctx context.Context, id int64) error
	ListarNotasAluno(ctx context.Context, idAlunoTurma int64) ([]domain.NotaDTO, error)
}

// Handler agrupa todos os métodos de Handler de notas.
type Handler struct {
	Service NotaService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc NotaService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// ListarNotasAlunoHandler lida com a requisição GET /api/nota/listarNotasAluno?idAlunoTurma=.
// @Summary Lista os lançamentos de nota de uma matrícula
// @Tags notas
// @Produce json
// @Param idAlunoTurma query int true "Id da matrícula (AlunoTurma)"
// @Success 200 {array} domain.NotaDTO "Lançamentos da matrícula"
// @Security ApiKeyAuth
// @Router /api/nota/listarNotasAluno [get]
func (h *Handler) ListarNotasAlunoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	idAlunoTurma, err := strconv.ParseInt(r.URL.Query().Get("idAlunoTurma"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idAlunoTurma deve ser um inteiro."), http.StatusOK)
		return
	}

	notas, err := h.Service.ListarNotasAluno(r.Context(), idAlunoTurma)
	h.handleServiceResponse(w, r, notas, err, http.StatusOK)
}

// LancarHandler lida com a requisição POST /api/nota/lancar.
// @Summary Lança uma nota para uma matrícula
// @Description Falha com 400 se a matrícula informada não existe.
// @Tags notas
// @Accept json
// @Produce json
// @Param nota body domain.LancarNotaRequest true "Dados do lançamento"
// @Success 200 "Nota lançada"
// @Failure 400 {object} domain.ErrorResponse "Matrícula inexistente"
// @Security ApiKeyAuth
// @Router /api/nota/lancar [post]
func (h *Handler) LancarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.LancarNotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	err := h.Service.InserirNota(r.Context(), req)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}

// EditarHandler lida com a requisição PUT /api/nota/editar.
// @Summary Edita um lançamento de nota
// @Description Sobrescreve valor e descrição; o timestamp do lançamento original é preservado.
// @Tags notas
// @Accept json
// @Produce json
// @Param nota body domain.EditarNotaRequest true "Novos dados do lançamento"
// @Success 200 "Nota editada"
// @Failure 400 {object} domain.ErrorResponse "Lançamento não encontrado"
// @Security ApiKeyAuth
// @Router /api/nota/editar [put]
func (h *Handler) EditarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.EditarNotaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	err := h.Service.EditarNota(r.Context(), req)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}

// DeletarHandler lida com a requisição DELETE /api/nota/deletar?idNota=.
// @Summary Remove um lançamento de nota
// @Tags notas
// @Produce json
// @Param idNota query int true "Id do lançamento"
// @Success 200 "Nota removida"
// @Failure 400 {object} domain.ErrorResponse "Lançamento não encontrado"
// @Security ApiKeyAuth
// @Router /api/nota/deletar [delete]
func (h *Handler) DeletarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("idNota"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idNota deve ser um inteiro."), http.StatusOK)
		return
	}

	err = h.Service.DeletarNota(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}
