package notaservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
	"classhub/internal/service/notaservice"
)

// MockNotaRepository é uma implementação mock da interface NotaRepository
type MockNotaRepository struct {
	mock.Mock
}

func (m *MockNotaRepository) Save(ctx context.Context, nota domain.Nota) (domain.Nota, error) {
	args := m.Called(ctx, nota)
	return args.Get(0).(domain.Nota), args.Error(1)
}

func (m *MockNotaRepository) FindByID(ctx context.Context, id int64) (domain.Nota, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Nota), args.Error(1)
}

func (m *MockNotaRepository) FindByMatricula(ctx context.Context, idAlunoTurma int64) ([]domain.NotaDTO, error) {
	args := m.Called(ctx, idAlunoTurma)
	return args.Get(0).([]domain.NotaDTO), args.Error(1)
}

func (m *MockNotaRepository) Update(ctx context.Context, nota domain.Nota) error {
	args := m.Called(ctx, nota)
	return args.Error(0)
}

func (m *MockNotaRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotaRepository) MatriculaExists(ctx context.Context, idAlunoTurma int64) (bool, error) {
	args := m.Called(ctx, idAlunoTurma)
	return args.Bool(0), args.Error(1)
}

// TestInserirNota_Success testa o lançamento de nota para uma matrícula existente.
func TestInserirNota_Success(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("MatriculaExists", mock.AnythingOfType("context.backgroundCtx"), int64(10)).
		Return(true, nil)
	mockRepo.On("Save", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(n domain.Nota) bool {
		return n.IDAlunoTurma == 10 && n.Valor == 8.5 && n.Descricao == "Prova Final" && !n.DtLancamento.IsZero()
	})).Return(domain.Nota{ID: 1, IDAlunoTurma: 10, Valor: 8.5, Descricao: "Prova Final", DtLancamento: time.Now()}, nil)

	err := svc.InserirNota(context.Background(), domain.LancarNotaRequest{IDAlunoTurma: 10, Nota: 8.5, Descricao: "Prova Final"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestInserirNota_Fail_MatriculaInexistente testa a rejeição de nota para
// matrícula inexistente.
func TestInserirNota_Fail_MatriculaInexistente(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("MatriculaExists", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(false, nil)

	err := svc.InserirNota(context.Background(), domain.LancarNotaRequest{IDAlunoTurma: 99, Nota: 7.0, Descricao: "Trabalho"})

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Aluno não está matriculado na turma especificada", err.Error())
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestEditarNota_PreservaDtLancamento testa que a edição sobrescreve valor e
// descrição sem alterar o timestamp original.
func TestEditarNota_PreservaDtLancamento(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	lancamento := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(domain.Nota{ID: 1, IDAlunoTurma: 10, Valor: 8.5, Descricao: "Prova Final", DtLancamento: lancamento}, nil)
	mockRepo.On("Update", mock.AnythingOfType("context.backgroundCtx"), mock.MatchedBy(func(n domain.Nota) bool {
		return n.ID == 1 && n.Valor == 9.0 && n.Descricao == "Prova Final (revisada)" && n.DtLancamento.Equal(lancamento)
	})).Return(nil)

	err := svc.EditarNota(context.Background(), domain.EditarNotaRequest{IDNota: 1, Nota: 9.0, Descricao: "Prova Final (revisada)"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestEditarNota_Fail_NaoEncontrada testa a edição de um lançamento inexistente.
func TestEditarNota_Fail_NaoEncontrada(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(domain.Nota{}, apperror.NewNotFoundError("Nota não encontrada"))

	err := svc.EditarNota(context.Background(), domain.EditarNotaRequest{IDNota: 99, Nota: 5.0})

	assert.Error(t, err)
	assert.IsType(t, &apperror.DomainError{}, err)
	assert.Equal(t, "Lançamento de nota não encontrada", err.Error())
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// TestDeletarNota_Fail_NaoEncontrada testa a deleção de um lançamento inexistente.
func TestDeletarNota_Fail_NaoEncontrada(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(99)).
		Return(domain.Nota{}, apperror.NewNotFoundError("Nota não encontrada"))

	err := svc.DeletarNota(context.Background(), 99)

	assert.Error(t, err)
	assert.Equal(t, "Lançamento de nota não encontrada", err.Error())
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// TestDeletarNota_Success testa a deleção de um lançamento existente.
func TestDeletarNota_Success(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindByID", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(domain.Nota{ID: 1, IDAlunoTurma: 10}, nil)
	mockRepo.On("Delete", mock.AnythingOfType("context.backgroundCtx"), int64(1)).
		Return(nil)

	err := svc.DeletarNota(context.Background(), 1)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestListarNotasAluno testa a listagem antes e depois de um lançamento.
func TestListarNotasAluno(t *testing.T) {
	mockRepo := new(MockNotaRepository)
	mockLogger := logger.NewLogger("debug")

	svc := notaservice.NewService(mockRepo, mockLogger)

	mockRepo.On("FindByMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(10)).
		Return([]domain.NotaDTO{}, nil).Once()

	notas, err := svc.ListarNotasAluno(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, notas)

	lancada := domain.NotaDTO{IDNota: 1, Nota: 8.5, Descricao: "Prova Final", DtLancamento: time.Now()}
	mockRepo.On("FindByMatricula", mock.AnythingOfType("context.backgroundCtx"), int64(10)).
		Return([]domain.NotaDTO{lancada}, nil).Once()

	notas, err = svc.ListarNotasAluno(context.Background(), 10)
	assert.NoError(t, err)
	assert.Len(t, notas, 1)
	assert.Equal(t, 8.5, notas[0].Nota)
	assert.Equal(t, "Prova Final", notas[0].Descricao)
	mockRepo.AssertExpectations(t)
}
