package usuarioservice_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
	"classhub/internal/pkg/token"
	"classhub/internal/service/usuarioservice"
)

// MockUsuarioRepository é uma implementação mock da interface UsuarioRepository
type MockUsuarioRepository struct {
	mock.Mock
}

func (m *MockUsuarioRepository) Save(ctx context.Context, usuario domain.Usuario) (domain.Usuario, error) {
	args := m.Called(ctx, usuario)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) UpdateRA(ctx context.Context, id int64, ra string) error {
	args := m.Called(ctx, id, ra)
	return args.Error(0)
}

func (m *MockUsuarioRepository) FindByID(ctx context.Context, id int64) (domain.Usuario, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) FindByLogin(ctx context.Context, login string) (domain.Usuario, error) {
	args := m.Called(ctx, login)
	return args.Get(0).(domain.Usuario), args.Error(1)
}

func (m *MockUsuarioRepository) FindAll(ctx context.Context, filtro domain.ListarUsuarioFiltro) ([]domain.UsuarioDTO, int, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.UsuarioDTO), args.Int(1), args.Error(2)
}

func (m *MockUsuarioRepository) FindProfessores(ctx context.Context) ([]domain.UsuarioDTO, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.UsuarioDTO), args.Error(1)
}

func (m *MockUsuarioRepository) Update(ctx context.Context, usuario domain.Usuario) error {
	args := m.Called(ctx, usuario)
	return args.Error(0)
}

func (m *MockUsuarioRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsuarioRepository) CountVinculos(ctx context.Context, id int64) (domain.VinculoInfo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.VinculoInfo), args.Error(1)
}

func newTokenService() *token.Service {
	return token.NewService("segredo-de-teste", time.Hour)
}

func hashSenha(t *testing.T, senha string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.MinCost)
	assert.NoError(t, err)
	return string(hash)
}

// TestCriarUsuario_Aluno_DerivaRA testa que o RA de um aluno é derivado do ano
// corrente e do id com três dígitos.
func TestCriarUsuario_Aluno_DerivaRA(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	salvo := domain.Usuario{
		ID:    42,
		Nome:  "Maria Silva",
		Email: "maria@escola.com",
		Tipo:  domain.TipoAluno,
	}
	raEsperado := fmt.Sprintf("%d%03d", time.Now().Year(), 42)

	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("domain.Usuario")).
		Return(salvo, nil)
	mockRepo.On("UpdateRA", mock.AnythingOfType("context.backgroundCtx"), int64(42), raEsperado).
		Return(nil)

	req := domain.CriarUsuarioRequest{
		Nome:  "Maria Silva",
		Email: "maria@escola.com",
		Tipo:  domain.TipoAluno,
		Senha: "senha123",
	}

	result, err := svc.CriarUsuario(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, raEsperado, result.RA)
	mockRepo.AssertExpectations(t)
}

// TestCriarUsuario_Professor_RAReplicaEmail testa que papéis não-aluno recebem
// o próprio email como RA.
func TestCriarUsuario_Professor_RAReplicaEmail(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	salvo := domain.Usuario{
		ID:    7,
		Nome:  "João Souza",
		Email: "joao@escola.com",
		Tipo:  domain.TipoProfessor,
	}

	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.AnythingOfType("domain.Usuario")).
		Return(salvo, nil)
	mockRepo.On("UpdateRA", mock.AnythingOfType("context.backgroundCtx"), int64(7), "joao@escola.com").
		Return(nil)

	req := domain.CriarUsuarioRequest{
		Nome:  "João Souza",
		Email: "joao@escola.com",
		Tipo:  domain.TipoProfessor,
		Senha: "senha123",
	}

	result, err := svc.CriarUsuario(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, "joao@escola.com", result.RA)
	mockRepo.AssertExpectations(t)
}

// TestCriarUsuario_Fail_CamposObrigatorios testa a validação de campos obrigatórios.
func TestCriarUsuario_Fail_CamposObrigatorios(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	req := domain.CriarUsuarioRequest{
		Nome:  "",
		Email: "maria@escola.com",
		Tipo:  domain.TipoAluno,
		Senha: "senha123",
	}

	_, err := svc.CriarUsuario(context.Background(), req)

	assert.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestLogin_Success testa um login bem-sucedido com emissão de token JWT.
func TestLogin_Success(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	usuario := domain.Usuario{
		ID:        10,
		Nome:      "Maria Silva",
		Email:     "maria@escola.com",
		RA:        "2026010",
		SenhaHash: hashSenha(t, "senha123"),
		Tipo:      domain.TipoAluno,
	}

	mockRepo.On("FindByLogin", mock.AnythingOfType("context.backgroundCtx"), "2026010").
		Return(usuario, nil)

	result, err := svc.Login(context.Background(), domain.LoginRequest{Login: "2026010", Senha: "senha123"})

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, int64(10), result.IDUsuario)
	assert.Equal(t, domain.TipoAluno, result.Tipo)
	mockRepo.AssertExpectations(t)
}

// TestLogin_SenhaIncorreta testa que senha errada resulta em (nil, nil),
// sem distinguir a causa da falha.
func TestLogin_SenhaIncorreta(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	usuario := domain.Usuario{
		ID:        10,
		Email:     "maria@escola.com",
		RA:        "2026010",
		SenhaHash: hashSenha(t, "senha123"),
		Tipo:      domain.TipoAluno,
	}

	mockRepo.On("FindByLogin", mock.AnythingOfType("context.backgroundCtx"), "maria@escola.com").
		Return(usuario, nil)

	result, err := svc.Login(context.Background(), domain.LoginRequest{Login: "maria@escola.com", Senha: "errada"})

	assert.NoError(t, err)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

// TestLogin_UsuarioDesconhecido testa que um login inexistente resulta em (nil, nil).
func TestLogin_UsuarioDesconhecido(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	mockRepo.On("FindByLogin", mock.AnythingOfType("context.backgroundCtx"), "naoexiste@escola.com").
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado"))

	result, err := svc.Login(context.Background(), domain.LoginRequest{Login: "naoexiste@escola.com", Senha: "senha123"})

	assert.NoError(t, err)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

// TestLogin_RAVazio testa que um usuário ainda sem RA gravado não autentica.
func TestLogin_RAVazio(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	usuario := domain.Usuario{
		ID:        11,
		Email:     "pedro@escola.com",
		RA:        "",
		SenhaHash: hashSenha(t, "senha123"),
		Tipo:      domain.TipoAluno,
	}

	mockRepo.On("FindByLogin", mock.AnythingOfType("context.backgroundCtx"), "pedro@escola.com").
		Return(usuario, nil)

	result, err := svc.Login(context.Background(), domain.LoginRequest{Login: "pedro@escola.com", Senha: "senha123"})

	assert.NoError(t, err)
	assert.Nil(t, result)
	mockRepo.AssertExpectations(t)
}

// TestListarUsuarios_NormalizaPaginacao testa os valores padrão de página e
// tamanho quando o filtro chega zerado.
func TestListarUsuarios_NormalizaPaginacao(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	esperado := domain.ListarUsuarioFiltro{NrPagina: 1, QtRegistros: 10}
	mockRepo.On("FindAll", mock.AnythingOfType("context.backgroundCtx"), esperado).
		Return([]domain.UsuarioDTO{}, 0, nil)

	result, err := svc.ListarUsuarios(context.Background(), domain.ListarUsuarioFiltro{NrPagina: 0, QtRegistros: -5})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.PaginaAtual)
	assert.Equal(t, 10, result.TamanhoPagina)
	assert.Equal(t, 0, result.TotalItens)
	assert.Equal(t, 0, result.TotalPaginas)
	mockRepo.AssertExpectations(t)
}

// TestDeletarUsuario_Fail_ComVinculo testa o bloqueio de deleção de usuário com vínculos.
func TestDeletarUsuario_Fail_ComVinculo(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(5)).
		Return(domain.Usuario{ID: 5, Tipo: domain.TipoAluno}, nil)
	mockRepo.On("CountVinculos", mock.AnythingOfType("context.backgroundCtx"), int64(5)).
		Return(domain.VinculoInfo{Matriculas: 1}, nil)

	err := svc.DeletarUsuario(context.Background(), 5)

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Não é possivel remover o usuário, será necessário remover seu vinculo com suas turmas primeiro.", err.Error())
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestDeletarUsuario_Success_SemVinculo testa que um usuário sem nenhum vínculo
// é sempre deletável.
func TestDeletarUsuario_Success_SemVinculo(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(5)).
		Return(domain.Usuario{ID: 5, Tipo: domain.TipoProfessor}, nil)
	mockRepo.On("CountVinculos", mock.AnythingOfType("context.backgroundCtx"), int64(5)).
		Return(domain.VinculoInfo{}, nil)
	mockRepo.On("Delete", mock.AnythingOfType("context.backgroundCtx"), int64(5)).
		Return(nil)

	err := svc.DeletarUsuario(context.Background(), 5)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestDeletarUsuario_Fail_NaoEncontrado testa a mensagem para id inexistente.
func TestDeletarUsuario_Fail_NaoEncontrado(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado"))

	err := svc.DeletarUsuario(context.Background(), 99)

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Usuário não encontrado.", err.Error())
	mockRepo.AssertExpectations(t)
}

// TestEditarUsuario_Fail_NaoEncontrado testa a edição de um usuário inexistente.
func TestEditarUsuario_Fail_NaoEncontrado(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(domain.Usuario{}, apperror.NewNotFoundError("Usuário não encontrado"))

	err := svc.EditarUsuario(context.Background(), domain.EditarUsuarioRequest{ID: 99, Nome: "Novo Nome"})

	assert.Error(t, err)
	assert.Equal(t, "Usuário não encontrado.", err.Error())
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestEditarUsuario_SenhaVazia_MantemHash testa que a senha atual é preservada
// quando nenhuma senha nova é informada.
func TestEditarUsuario_SenhaVazia_MantemHash(t *testing.T) {
	mockRepo := new(MockUsuarioRepository)
	mockLogger := logger.NewLogger("debug")

	svc := usuarioservice.NewService(mockRepo, newTokenService(), mockLogger)

	hashAtual := hashSenha(t, "senha123")
	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(3)).
		Return(domain.Usuario{ID: 3, Nome: "Antigo", SenhaHash: hashAtual}, nil)
	mockRepo.On("Update", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(u domain.Usuario) bool {
		return u.SenhaHash == hashAtual && u.Nome == "Novo Nome"
	})).Return(nil)

	err := svc.EditarUsuario(context.Background(), domain.EditarUsuarioRequest{ID: 3, Nome: "Novo Nome"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}
