package turma

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

// TurmaService define o contrato que o Handler espera da camada de Serviço.
type TurmaService interface {
	CriarTurma(ctx context.Context, req domain.CriarTurmaRequest) (int64, error)
	EditarTurma(ctx context.Context, req domain.EditarTurmaRequest) error
	DeletarTurma(ctx context.Context, id int64) error
	ListarTurmas(ctx context.Context, filtro domain.ListarTurmaFiltro) (domain.PaginacaoResult[domain.TurmaDTO], error)
	ObterTurmaPorID(ctx context.Context, id int64) (domain.TurmaDTO, error)
	VincularAluno(ctx context.Context, req domain.VincularAlunoRequest) error
}

// Handler agrupa todos os métodos de Handler de turmas.
type Handler struct {
	Service TurmaService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc TurmaService, log logger.Logger) *Handler {
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

// ListarHandler lida com a requisição POST /api/turma/listar.
// @Summary Lista turmas paginadas conforme filtro recebido
// @Description Cada item traz o nome do professor e a quantidade de alunos matriculados.
// @Tags turmas
// @Accept json
// @Produce json
// @Param filtro body domain.ListarTurmaFiltro true "Filtro de listagem"
// @Success 200 {object} domain.PaginacaoResult[domain.TurmaDTO] "Página de turmas"
// @Security ApiKeyAuth
// @Router /api/turma/listar [post]
func (h *Handler) ListarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var filtro domain.ListarTurmaFiltro
	if err := json.NewDecoder(r.Body).Decode(&filtro); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resultado, err := h.Service.ListarTurmas(r.Context(), filtro)
	h.handleServiceResponse(w, r, resultado, err, http.StatusOK)
}

// ObterHandler lida com a requisição GET /api/turma/obter?idTurma=.
// @Summary Busca o detalhe de uma turma pelo id
// @Tags turmas
// @Produce json
// @Param idTurma query int true "Id da turma"
// @Success 200 {object} domain.TurmaDTO "Turma encontrada"
// @Failure 404 {object} domain.ErrorResponse "Turma não encontrada"
// @Security ApiKeyAuth
// @Router /api/turma/obter [get]
func (h *Handler) ObterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("idTurma"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idTurma deve ser um inteiro."), http.StatusOK)
		return
	}

	turma, err := h.Service.ObterTurmaPorID(r.Context(), id)
	h.handleServiceResponse(w, r, turma, err, http.StatusOK)
}

// CriarHandler lida com a requisição POST /api/turma/criar.
// @Summary Cria uma turma
// @Description Data de início é o momento da criação; a data de fim nasce vazia. Apenas admins.
// @Tags turmas
// @Accept json
// @Produce json
// @Param turma body domain.CriarTurmaRequest true "Dados da turma"
// @Success 200 {object} map[string]int64 "Id da turma criada"
// @Security ApiKeyAuth
// @Router /api/turma/criar [post]
func (h *Handler) CriarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CriarTurmaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	id, err := h.Service.CriarTurma(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, map[string]int64{"idTurma": id}, nil, http.StatusOK)
}

// EditarHandler lida com a requisição PUT /api/turma/editar.
// @Summary Edita uma turma
// @Description Sobrescreve nome, professor responsável e data de fim. Apenas admins.
// @Tags turmas
// @Accept json
// @Produce json
// @Param turma body domain.EditarTurmaRequest true "Novos dados da turma"
// @Success 200 "Turma editada"
// @Failure 400 {object} domain.ErrorResponse "Turma não encontrada"
// @Security ApiKeyAuth
// @Router /api/turma/editar [put]
func (h *Handler) EditarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.EditarTurmaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	err := h.Service.EditarTurma(r.Context(), req)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}

// DeletarHandler lida com a requisição DELETE /api/turma/deletar?idTurma=.
// @Summary Remove uma turma
// @Description Falha enquanto houver alunos matriculados na turma. Apenas admins.
// @Tags turmas
// @Produce json
// @Param idTurma query int true "Id da turma"
// @Success 200 "Turma removida"
// @Failure 400 {object} domain.ErrorResponse "Turma com alunos vinculados"
// @Security ApiKeyAuth
// @Router /api/turma/deletar [delete]
func (h *Handler) DeletarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("idTurma"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idTurma deve ser um inteiro."), http.StatusOK)
		return
	}

	err = h.Service.DeletarTurma(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}

// VincularAlunoHandler lida com a requisição POST /api/turma/vincularAluno.
// @Summary Vincula ou desvincula um aluno de uma turma pelo RA
// @Description Idempotente: repetir a mesma chamada não altera o estado. Apenas admins.
// @Tags turmas
// @Accept json
// @Produce json
// @Param vinculo body domain.VincularAlunoRequest true "RA do aluno, turma e flag de desvínculo"
// @Success 200 "Vínculo atualizado"
// @Failure 400 {object} domain.ErrorResponse "RA desconhecido"
// @Security ApiKeyAuth
// @Router /api/turma/vincularAluno [post]
func (h *Handler) VincularAlunoHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.VincularAlunoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	err := h.Service.VincularAluno(r.Context(), req)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}
