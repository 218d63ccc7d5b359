package turmaservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
	"classhub/internal/service/turmaservice"
)

// MockTurmaRepository é uma implementação mock da interface TurmaRepository
type MockTurmaRepository struct {
	mock.Mock
}

func (m *MockTurmaRepository) Save(ctx context.Context, turma domain.Turma) (domain.Turma, error) {
	args := m.Called(ctx, turma)
	return args.Get(0).(domain.Turma), args.Error(1)
}

func (m *MockTurmaRepository) FindByID(ctx context.Context, id int64) (domain.TurmaDTO, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TurmaDTO), args.Error(1)
}

func (m *MockTurmaRepository) FindAll(ctx context.Context, filtro domain.ListarTurmaFiltro) ([]domain.TurmaDTO, int, error) {
	args := m.Called(ctx, filtro)
	return args.Get(0).([]domain.TurmaDTO), args.Int(1), args.Error(2)
}

func (m *MockTurmaRepository) Update(ctx context.Context, turma domain.Turma) error {
	args := m.Called(ctx, turma)
	return args.Error(0)
}

func (m *MockTurmaRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTurmaRepository) CountAlunos(ctx context.Context, idTurma int64) (int, error) {
	args := m.Called(ctx, idTurma)
	return args.Int(0), args.Error(1)
}

func (m *MockTurmaRepository) FindRaw(ctx context.Context, id int64) (domain.Turma, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Turma), args.Error(1)
}

func (m *MockTurmaRepository) FindAlunoIDByRA(ctx context.Context, ra string) (int64, error) {
	args := m.Called(ctx, ra)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTurmaRepository) FindMatricula(ctx context.Context, idAluno, idTurma int64) (domain.AlunoTurma, error) {
	args := m.Called(ctx, idAluno, idTurma)
	return args.Get(0).(domain.AlunoTurma), args.Error(1)
}

func (m *MockTurmaRepository) SaveMatricula(ctx context.Context, matricula domain.AlunoTurma) (domain.AlunoTurma, error) {
	args := m.Called(ctx, matricula)
	return args.Get(0).(domain.AlunoTurma), args.Error(1)
}

func (m *MockTurmaRepository) DeleteMatricula(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestCriarTurma_Success testa a criação de turma com data de início preenchida.
func TestCriarTurma_Success(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(tm domain.Turma) bool {
		return tm.Nome == "Matemática 101" && tm.IDProfessor == 2 && !tm.DtInicio.IsZero() && tm.DtFim == nil
	})).Return(domain.Turma{ID: 1, Nome: "Matemática 101", IDProfessor: 2, DtInicio: time.Now()}, nil)

	id, err := svc.CriarTurma(context.Background(), domain.CriarTurmaRequest{Nome: "Matemática 101", IDProfessor: 2})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), id)
	mockRepo.AssertExpectations(t)
}

// TestDeletarTurma_Fail_ComAlunos testa o bloqueio da deleção quando há matrículas.
func TestDeletarTurma_Fail_ComAlunos(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindRaw", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(domain.Turma{ID: 1, Nome: "Matemática 101"}, nil)
	mockRepo.On("CountAlunos", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(3, nil)

	err := svc.DeletarTurma(context.Background(), 1)

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Existem alunos vinculados a turma, favor remove-los antes de efetuar a deleção", err.Error())
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestDeletarTurma_Success_SemAlunos testa a deleção de uma turma vazia.
func TestDeletarTurma_Success_SemAlunos(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindRaw", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(domain.Turma{ID: 1, Nome: "Matemática 101"}, nil)
	mockRepo.On("CountAlunos", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(0, nil)
	mockRepo.On("Delete", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(nil)

	err := svc.DeletarTurma(context.Background(), 1)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestDeletarTurma_Fail_NaoEncontrada testa a mensagem para turma inexistente.
func TestDeletarTurma_Fail_NaoEncontrada(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindRaw", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(domain.Turma{}, apperror.NewNotFoundError("Turma não encontrada"))

	err := svc.DeletarTurma(context.Background(), 99)

	assert.Error(t, err)
	assert.Equal(t, "Turma não encontrada", err.Error())
	mockRepo.AssertExpectations(t)
}

// TestListarTurmas_Paginacao testa os metadados de paginação: 2 itens no total
// com páginas de tamanho 1 resultam em 2 páginas.
func TestListarTurmas_Paginacao(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	filtro := domain.ListarTurmaFiltro{NrPagina: 1, QtRegistros: 1}
	mockRepo.On("FindAll", mock.AnythingOfType("context.backgroundCtx"), filtro).
		Return([]domain.TurmaDTO{{IDTurma: 1, Nome: "Matemática 101"}}, 2, nil)

	result, err := svc.ListarTurmas(context.Background(), filtro)

	assert.NoError(t, err)
	assert.Len(t, result.Itens, 1)
	assert.Equal(t, 1, result.PaginaAtual)
	assert.Equal(t, 1, result.TamanhoPagina)
	assert.Equal(t, 2, result.TotalItens)
	assert.Equal(t, 2, result.TotalPaginas)
	mockRepo.AssertExpectations(t)
}

// TestVincularAluno_Fail_RADesconhecido testa que um RA inexistente é um erro
// explícito e nenhuma matrícula é criada.
func TestVincularAluno_Fail_RADesconhecido(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindAlunoIDByRA", mock.AnythingOfType("context.backgroundCtx"), "2026999").
		Return(int64(0), apperror.NewNotFoundError("Aluno com RA '2026999' não encontrado"))

	err := svc.VincularAluno(context.Background(), domain.VincularAlunoRequest{IDTurma: 1, RAAluno: "2026999"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Aluno com RA '2026999' não encontrado", err.Error())
	mockRepo.AssertNotCalled(t, "SaveMatricula", mock.Anything, mock.Anything)
}

// TestVincularAluno_Success_NovaMatricula testa o vínculo de um aluno ainda não matriculado.
func TestVincularAluno_Success_NovaMatricula(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindAlunoIDByRA", mock.AnythingOfType("context.backgroundCtx"), "2026042").
		Return(int64(42), nil)
	mockRepo.On("FindMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(42), int64(1)).
		Return(domain.AlunoTurma{}, apperror.NewNotFoundError("Matrícula não encontrada"))
	mockRepo.On("SaveMatricula", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(mat domain.AlunoTurma) bool {
		return mat.IDAluno == 42 && mat.IDTurma == 1
	})).Return(domain.AlunoTurma{ID: 10, IDAluno: 42, IDTurma: 1}, nil)

	err := svc.VincularAluno(context.Background(), domain.VincularAlunoRequest{IDTurma: 1, RAAluno: "2026042"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestVincularAluno_Success_Desvincular testa a remoção de uma matrícula existente.
func TestVincularAluno_Success_Desvincular(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindAlunoIDByRA", mock.AnythingOfType("context.backgroundCtx"), "2026042").
		Return(int64(42), nil)
	mockRepo.On("FindMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(42), int64(1)).
		Return(domain.AlunoTurma{ID: 10, IDAluno: 42, IDTurma: 1}, nil)
	mockRepo.On("DeleteMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(10)).
		Return(nil)

	err := svc.VincularAluno(context.Background(), domain.VincularAlunoRequest{IDTurma: 1, RAAluno: "2026042", FlDesvincular: true})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestVincularAluno_NoOp_JaMatriculado testa a idempotência: vincular um aluno
// já matriculado não cria uma segunda matrícula.
func TestVincularAluno_NoOp_JaMatriculado(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindAlunoIDByRA", mock.AnythingOfType("context.backgroundCtx"), "2026042").
		Return(int64(42), nil)
	mockRepo.On("FindMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(42), int64(1)).
		Return(domain.AlunoTurma{ID: 10, IDAluno: 42, IDTurma: 1}, nil)

	err := svc.VincularAluno(context.Background(), domain.VincularAlunoRequest{IDTurma: 1, RAAluno: "2026042"})

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "SaveMatricula", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "DeleteMatricula", mock.Anything, mock.Anything)
}

// TestVincularAluno_NoOp_DesvincularNaoMatriculado testa a idempotência do desvínculo.
func TestVincularAluno_NoOp_DesvincularNaoMatriculado(t *testing.T) {
	mockRepo := new(MockTurmaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := turmaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindAlunoIDByRA", mock.AnythingOfType("context.backgroundCtx"), "2026042").
		Return(int64(42), nil)
	mockRepo.On("FindMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(42), int64(1)).
		Return(domain.AlunoTurma{}, apperror.NewNotFoundError("Matrícula não encontrada"))

	err := svc.VincularAluno(context.Background(), domain.VincularAlunoRequest{IDTurma: 1, RAAluno: "2026042", FlDesvincular: true})

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "SaveMatricula", mock.Anything, mock.Anything)
	mockRepo.AssertNotCalled(t, "DeleteMatricula", mock.Anything, mock.Anything)
}
