package domain

import (
	"context"
	"time"
)

// Usuario representa a entidade de usuário no sistema (aluno, professor ou admin).
type Usuario struct {
	ID        int64       `json:"id"`
	Nome      string      `json:"nome"`
	Email     string      `json:"email"`
	CPF       string      `json:"cpf"`
	RA        string      `json:"ra"` // Registro Acadêmico: derivado na criação, nunca informado pelo cliente
	SenhaHash string      `json:"-"`  // Oculta o hash da senha no JSON de resposta
	Tipo      TipoUsuario `json:"tipoUsuario"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TipoUsuario é um tipo string para representar o papel do usuário no sistema.
type TipoUsuario string

// Constantes para os papéis de usuário
const (
	TipoAdmin     TipoUsuario = "Admin"
	TipoProfessor TipoUsuario = "Professor"
	TipoAluno     TipoUsuario = "Aluno"
)

// UsuarioDTO é a projeção de usuário devolvida em listagens e consultas.
type UsuarioDTO struct {
	IDUsuario int64       `json:"idUsuario"`
	Nome      string      `json:"nome"`
	Email     string      `json:"email"`
	CPF       string      `json:"cpf,omitempty"`
	RA        string      `json:"ra"`
	Tipo      TipoUsuario `json:"tipoUsuario"`
}

// CriarUsuarioRequest representa o payload de entrada para a criação de usuário.
type CriarUsuarioRequest struct {
	Nome  string      `json:"nome"`
	Email string      `json:"email"`
	CPF   string      `json:"cpf"`
	Tipo  TipoUsuario `json:"tipoUsuario"`
	Senha string      `json:"senha"`
}

// EditarUsuarioRequest representa o payload de entrada para a edição de usuário.
// Senha vazia significa "manter a senha atual".
type EditarUsuarioRequest struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
	Senha string `json:"senha,omitempty"`
}

// ListarUsuarioFiltro define os parâmetros de busca e paginação da listagem de usuários.
type ListarUsuarioFiltro struct {
	NrPagina    int          `json:"nrPagina"`
	QtRegistros int          `json:"qtRegistros"`
	Tipo        *TipoUsuario `json:"tipoUsuario,omitempty"`
	Ordenacao   Ordenacao    `json:"ordenacao"`
	Pesquisa    string       `json:"pesquisa,omitempty"`
	IDTurma     *int64       `json:"idTurma,omitempty"`
}

// LoginRequest representa o payload de entrada para o login.
// Login aceita o email ou o RA do usuário.
type LoginRequest struct {
	Login string `json:"login"`
	Senha string `json:"senha"`
}

// LoginResponse é o retorno de um login bem sucedido.
type LoginResponse struct {
	IDUsuario int64       `json:"idUsuario"`
	Token     string      `json:"token"`
	Nome      string      `json:"nome"`
	Email     string      `json:"email"`
	CPF       string      `json:"cpf"`
	Tipo      TipoUsuario `json:"tipoUsuario"`
}

// VinculoInfo resume os vínculos de um usuário com turmas (matrículas como
// aluno e turmas lecionadas como professor). Usado pela regra de deleção.
type VinculoInfo struct {
	Matriculas       int
	TurmasLecionadas int
}

// UsuarioRepository define o contrato de persistência para a entidade Usuario.
type UsuarioRepository interface {
	Save(ctx context.Context, usuario Usuario) (Usuario, error)
	UpdateRA(ctx context.Context, id int64, ra string) error
	FindByID(ctx context.Context, id int64) (Usuario, error)
	FindByLogin(ctx context.Context, login string) (Usuario, error)
	FindAll(ctx context.Context, filtro ListarUsuarioFiltro) ([]UsuarioDTO, int, error)
	FindProfessores(ctx context.Context) ([]UsuarioDTO, error)
	Update(ctx context.Context, usuario Usuario) error
	Delete(ctx context.Context, id int64) error
	CountVinculos(ctx context.Context, id int64) (VinculoInfo, error)
}

// UsuarioService define o contrato de lógica de negócio para a entidade Usuario.
type UsuarioService interface {
	CriarUsuario(ctx context.Context, req CriarUsuarioRequest) (Usuario, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ListarUsuarios(ctx context.Context, filtro ListarUsuarioFiltro) (PaginacaoResult[UsuarioDTO], error)
	ListarProfessores(ctx context.Context) ([]UsuarioDTO, error)
	ObterUsuarioPorID(ctx context.Context, id int64) (UsuarioDTO, error)
	EditarUsuario(ctx context.Context, req EditarUsuarioRequest) error
	DeletarUsuario(ctx context.Context, id int64) error
}
