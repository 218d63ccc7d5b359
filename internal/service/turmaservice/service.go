package turmaservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
)

// Mensagens de regra de negócio do serviço de turma.
const (
	msgTurmaNaoEncontrada = "Turma não encontrada"
	msgTurmaComAlunos     = "Existem alunos vinculados a turma, favor remove-los antes de efetuar a deleção"
)

// Service implementa a interface domain.TurmaService.
type Service struct {
	repo   domain.TurmaRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do serviço de turmas.
func NewService(repo domain.TurmaRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CriarTurma cria uma turma com data de início agora e sem data de fim.
func (s *Service) CriarTurma(ctx context.Context, req domain.CriarTurmaRequest) (int64, error) {
	s.logger.Debug("Iniciando criação de turma no serviço.", map[string]interface{}{"nome": req.Nome, "id_professor": req.IDProfessor})

	if strings.TrimSpace(req.Nome) == "" {
		return 0, apperror.NewValidationError("O nome da turma não pode ser vazio.")
	}

	turma := domain.Turma{
		Nome:        req.Nome,
		IDProfessor: req.IDProfessor,
		DtInicio:    time.Now(),
		DtFim:       nil,
	}

	turma, err := s.repo.Save(ctx, turma)
	if err != nil {
		s.logger.Error("Falha ao criar turma no repositório.", err)
		return 0, err
	}

	s.logger.Info("Turma criada com sucesso.", map[string]interface{}{"turma_id": turma.ID, "nome": turma.Nome})
	return turma.ID, nil
}

// EditarTurma sobrescreve nome, professor responsável e data de fim.
func (s *Service) EditarTurma(ctx context.Context, req domain.EditarTurmaRequest) error {
	turma, err := s.repo.FindRaw(ctx, req.IDTurma)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgTurmaNaoEncontrada)
		}
		return err
	}

	turma.Nome = req.Nome
	turma.IDProfessor = req.IDProfessor
	turma.DtFim = req.DtFim

	if err := s.repo.Update(ctx, turma); err != nil {
		s.logger.Error("Falha ao atualizar turma no repositório.", err)
		return err
	}

	s.logger.Info("Turma editada com sucesso.", map[string]interface{}{"turma_id": turma.ID})
	return nil
}

// DeletarTurma remove uma turma, desde que não haja alunos matriculados.
func (s *Service) DeletarTurma(ctx context.Context, id int64) error {
	if _, err := s.repo.FindRaw(ctx, id); err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgTurmaNaoEncontrada)
		}
		return err
	}

	qtdAlunos, err := s.repo.CountAlunos(ctx, id)
	if err != nil {
		return err
	}

	if qtdAlunos > 0 {
		s.logger.Debug("Deleção de turma bloqueada por matrículas.", map[string]interface{}{"turma_id": id, "qtd_alunos": qtdAlunos})
		return apperror.NewDomainError(msgTurmaComAlunos)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar turma no repositório.", err)
		return err
	}

	s.logger.Info("Turma deletada com sucesso.", map[string]interface{}{"turma_id": id})
	return nil
}

// ListarTurmas lista turmas paginadas segundo o filtro, com página e tamanho
// de página normalizados para o mínimo de 1 (padrão 1/10).
func (s *Service) ListarTurmas(ctx context.Context, filtro domain.ListarTurmaFiltro) (domain.PaginacaoResult[domain.TurmaDTO], error) {
	if filtro.NrPagina < 1 {
		filtro.NrPagina = 1
	}
	if filtro.QtRegistros < 1 {
		filtro.QtRegistros = 10
	}

	turmas, total, err := s.repo.FindAll(ctx, filtro)
	if err != nil {
		s.logger.Error("Falha ao listar turmas no repositório.", err)
		return domain.PaginacaoResult[domain.TurmaDTO]{}, err
	}

	return domain.NovaPaginacao(turmas, filtro.NrPagina, filtro.QtRegistros, total), nil
}

// ObterTurmaPorID busca o detalhe de uma turma, com nome do professor e
// quantidade de alunos matriculados.
func (s *Service) ObterTurmaPorID(ctx context.Context, id int64) (domain.TurmaDTO, error) {
	turma, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.TurmaDTO{}, err
	}
	return turma, nil
}

// VincularAluno vincula ou desvincula um aluno (identificado pelo RA) de uma
// turma. Um RA desconhecido é um erro explícito, nunca uma matrícula fantasma.
// Chamadas repetidas com os mesmos argumentos são no-ops.
func (s *Service) VincularAluno(ctx context.Context, req domain.VincularAlunoRequest) error {
	idAluno, err := s.repo.FindAlunoIDByRA(ctx, req.RAAluno)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(fmt.Sprintf("Aluno com RA '%s' não encontrado", req.RAAluno))
		}
		return err
	}

	matricula, err := s.repo.FindMatricula(ctx, idAluno, req.IDTurma)
	matriculado := err == nil
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if !errors.As(err, &notFoundErr) {
			return err
		}
	}

	switch {
	case !matriculado && !req.FlDesvincular:
		_, err := s.repo.SaveMatricula(ctx, domain.AlunoTurma{
			IDAluno:     idAluno,
			IDTurma:     req.IDTurma,
			DtMatricula: time.Now(),
		})
		if err != nil {
			s.logger.Error("Falha ao vincular aluno à turma.", err)
			return err
		}
		s.logger.Info("Aluno vinculado à turma.", map[string]interface{}{"id_aluno": idAluno, "id_turma": req.IDTurma})

	case matriculado && req.FlDesvincular:
		if err := s.repo.DeleteMatricula(ctx, matricula.ID); err != nil {
			s.logger.Error("Falha ao desvincular aluno da turma.", err)
			return err
		}
		s.logger.Info("Aluno desvinculado da turma.", map[string]interface{}{"id_aluno": idAluno, "id_turma": req.IDTurma})

	default:
		// Já está no estado desejado.
	}

	return nil
}
