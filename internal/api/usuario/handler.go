package usuario

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

// UsuarioService define o contrato que o Handler espera da camada de Serviço.
type UsuarioService interface {
	CriarUsuario(ctx context.Context, req domain.CriarUsuarioRequest) (domain.Usuario, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error)
	ListarUsuarios(ctx context.Context, filtro domain.ListarUsuarioFiltro) (domain.PaginacaoResult[domain.UsuarioDTO], error)
	ListarProfessores(ctx context.Context) ([]domain.UsuarioDTO, error)
	ObterUsuarioPorID(ctx context.Context, id int64) (domain.UsuarioDTO, error)
	EditarUsuario(ctx context.Context, req domain.EditarUsuarioRequest) error
	DeletarUsuario(ctx context.Context, id int64) error
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UsuarioService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UsuarioService, log logger.Logger) *Handler {
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

// LoginHandler lida com a requisição POST /api/usuario/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe login (email ou RA) e senha, verifica a validade e emite um token.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais do usuário"
// @Success 200 {object} domain.LoginResponse "Token emitido"
// @Failure 401 {object} domain.ErrorResponse "Login ou senha inválidos"
// @Router /api/usuario/login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resposta, err := h.Service.Login(r.Context(), req)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	// Falha de autenticação é um resultado normal, não uma exceção: vira 401
	// sem distinguir identificador desconhecido de senha incorreta.
	if resposta == nil {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Login ou senha inválidos"), http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, resposta, nil, http.StatusOK)
}

// CreateHandler lida com a requisição POST /api/usuario/create.
// @Summary Cria um usuário
// @Description Cria um usuário com senha hasheada; o RA é derivado após a criação. Apenas admins.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param usuario body domain.CriarUsuarioRequest true "Dados do usuário"
// @Success 200 "Usuário criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Security ApiKeyAuth
// @Router /api/usuario/create [post]
func (h *Handler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CriarUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	if _, err := h.Service.CriarUsuario(r.Context(), req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, nil, nil, http.StatusOK)
}

// ListarHandler lida com a requisição POST /api/usuario/listar.
// @Summary Lista usuários paginados conforme filtro recebido
// @Tags usuarios
// @Accept json
// @Produce json
// @Param filtro body domain.ListarUsuarioFiltro true "Filtro de listagem"
// @Success 200 {object} domain.PaginacaoResult[domain.UsuarioDTO] "Página de usuários"
// @Security ApiKeyAuth
// @Router /api/usuario/listar [post]
func (h *Handler) ListarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var filtro domain.ListarUsuarioFiltro
	if err := json.NewDecoder(r.Body).Decode(&filtro); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	resultado, err := h.Service.ListarUsuarios(r.Context(), filtro)
	h.handleServiceResponse(w, r, resultado, err, http.StatusOK)
}

// ListarProfessoresHandler lida com a requisição GET /api/usuario/listarProfessores.
// @Summary Lista todos os professores do sistema
// @Tags usuarios
// @Produce json
// @Success 200 {array} domain.UsuarioDTO "Lista de professores"
// @Security ApiKeyAuth
// @Router /api/usuario/listarProfessores [get]
func (h *Handler) ListarProfessoresHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	professores, err := h.Service.ListarProfessores(r.Context())
	h.handleServiceResponse(w, r, professores, err, http.StatusOK)
}

// ObterUsuarioHandler lida com a requisição GET /api/usuario/obterusuario?idUsuario=.
// @Summary Busca um usuário pelo id
// @Tags usuarios
// @Produce json
// @Param idUsuario query int true "Id do usuário"
// @Success 200 {object} domain.UsuarioDTO "Usuário encontrado"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Security ApiKeyAuth
// @Router /api/usuario/obterusuario [get]
func (h *Handler) ObterUsuarioHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("idUsuario"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idUsuario deve ser um inteiro."), http.StatusOK)
		return
	}

	usuario, err := h.Service.ObterUsuarioPorID(r.Context(), id)
	h.handleServiceResponse(w, r, usuario, err, http.StatusOK)
}

// EditarHandler lida com a requisição PUT /api/usuario/editar.
// @Summary Edita um usuário
// @Description Sobrescreve nome, email e CPF; a senha só muda quando informada. Apenas admins.
// @Tags usuarios
// @Accept json
// @Produce json
// @Param usuario body domain.EditarUsuarioRequest true "Novos dados do usuário"
// @Success 200 "Usuário editado"
// @Failure 400 {object} domain.ErrorResponse "Usuário não encontrado"
// @Security ApiKeyAuth
// @Router /api/usuario/editar [put]
func (h *Handler) EditarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.EditarUsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload JSON inválido."), http.StatusOK)
		return
	}

	err := h.Service.EditarUsuario(r.Context(), req)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}

// DeletarHandler lida com a requisição DELETE /api/usuario/deletar?idUsuario=.
// @Summary Remove um usuário
// @Description Falha com 400 e a mensagem da regra de negócio se o usuário ainda tiver vínculos com turmas.
// @Tags usuarios
// @Produce json
// @Param idUsuario query int true "Id do usuário"
// @Success 200 "Usuário removido"
// @Failure 400 {object} domain.ErrorResponse "Usuário com vínculos"
// @Security ApiKeyAuth
// @Router /api/usuario/deletar [delete]
func (h *Handler) DeletarHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("idUsuario"), 10, 64)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O parâmetro idUsuario deve ser um inteiro."), http.StatusOK)
		return
	}

	err = h.Service.DeletarUsuario(r.Context(), id)
	h.handleServiceResponse(w, r, nil, err, http.StatusOK)
}
