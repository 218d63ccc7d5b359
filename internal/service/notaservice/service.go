package notaservice

import (
	"context"
	"errors"
	"time"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
)

// Mensagens de regra de negócio do serviço de nota.
const (
	msgMatriculaInexistente = "Aluno não está matriculado na turma especificada"
	msgNotaNaoEncontrada    = "Lançamento de nota não encontrada"
)

// Service implementa a interface domain.NotaService.
type Service struct {
	repo   domain.NotaRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do serviço de notas.
func NewService(repo domain.NotaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// InserirNota lança uma nota para uma matrícula existente, carimbada com o
// momento atual.
func (s *Service) InserirNota(ctx context.Context, req domain.LancarNotaRequest) error {
	exists, err := s.repo.MatriculaExists(ctx, req.IDAlunoTurma)
	if err != nil {
		return err
	}
	if !exists {
		return apperror.NewDomainError(msgMatriculaInexistente)
	}

	nota := domain.Nota{
		IDAlunoTurma: req.IDAlunoTurma,
		Valor:        req.Nota,
		Descricao:    req.Descricao,
		DtLancamento: time.Now(),
	}

	if _, err := s.repo.Save(ctx, nota); err != nil {
		s.logger.Error("Falha ao lançar nota no repositório.", err)
		return err
	}

	s.logger.Info("Nota lançada com sucesso.", map[string]interface{}{"id_aluno_turma": req.IDAlunoTurma, "valor": req.Nota})
	return nil
}

// EditarNota sobrescreve valor e descrição de um lançamento existente,
// preservando o timestamp original.
func (s *Service) EditarNota(ctx context.Context, req domain.EditarNotaRequest) error {
	nota, err := s.repo.FindByID(ctx, req.IDNota)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgNotaNaoEncontrada)
		}
		return err
	}

	nota.Valor = req.Nota
	nota.Descricao = req.Descricao

	if err := s.repo.Update(ctx, nota); err != nil {
		s.logger.Error("Falha ao atualizar nota no repositório.", err)
		return err
	}

	s.logger.Info("Nota editada com sucesso.", map[string]interface{}{"nota_id": nota.ID})
	return nil
}

// DeletarNota remove um lançamento existente.
func (s *Service) DeletarNota(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgNotaNaoEncontrada)
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar nota no repositório.", err)
		return err
	}

	s.logger.Info("Nota deletada com sucesso.", map[string]interface{}{"nota_id": id})
	return nil
}

// ListarNotasAluno lista os lançamentos de uma matrícula, em ordem de lançamento.
func (s *Service) ListarNotasAluno(ctx context.Context, idAlunoTurma int64) ([]domain.NotaDTO, error) {
	notas, err := s.repo.FindByMatricula(ctx, idAlunoTurma)
	if err != nil {
		s.logger.Error("Falha ao listar notas no repositório.", err)
		return nil, err
	}
	return notas, nil
}
