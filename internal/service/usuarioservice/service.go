package usuarioservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
	"classhub/internal/pkg/token"
)

// Mensagens de regra de negócio do serviço de usuário.
const (
	msgUsuarioComVinculo    = "Não é possivel remover o usuário, será necessário remover seu vinculo com suas turmas primeiro."
	msgUsuarioNaoEncontrado = "Usuário não encontrado."
)

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID int64, nome string, role string) (string, error)
	ValidateToken(tokenString string) (*token.CustomClaims, error)
}

// Service implementa a interface domain.UsuarioService.
type Service struct {
	repo     domain.UsuarioRepository
	tokenSvc TokenService
	logger   logger.Logger
}

// NewService cria uma nova instância do serviço de usuário, injetando o
// repositório e o serviço de tokens.
func NewService(repo domain.UsuarioRepository, tokenSvc TokenService, logger logger.Logger) *Service {
	return &Service{
		repo:     repo,
		tokenSvc: tokenSvc,
		logger:   logger,
	}
}

// CriarUsuario cria um usuário com a senha hasheada e deriva o RA em uma
// segunda escrita: alunos recebem `{ano}{id com zeros à esquerda}`, os demais
// papéis recebem o próprio email.
func (s *Service) CriarUsuario(ctx context.Context, req domain.CriarUsuarioRequest) (domain.Usuario, error) {
	s.logger.Debug("Iniciando criação de usuário no serviço.", map[string]interface{}{"email": req.Email, "tipo": req.Tipo})

	if strings.TrimSpace(req.Nome) == "" || strings.TrimSpace(req.Email) == "" || req.Senha == "" {
		return domain.Usuario{}, apperror.NewValidationError("Nome, email e senha são obrigatórios.")
	}

	switch req.Tipo {
	case domain.TipoAdmin, domain.TipoProfessor, domain.TipoAluno:
	default:
		return domain.Usuario{}, apperror.NewValidationError("Tipo de usuário inválido.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Senha), bcrypt.DefaultCost)
	if err != nil {
		return domain.Usuario{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	usuario := domain.Usuario{
		Nome:      req.Nome,
		Email:     req.Email,
		CPF:       req.CPF,
		Tipo:      req.Tipo,
		SenhaHash: string(hashedPassword),
		RA:        "",
	}

	usuario, err = s.repo.Save(ctx, usuario)
	if err != nil {
		s.logger.Error("Falha ao criar usuário no repositório.", err)
		return domain.Usuario{}, err
	}

	// O RA depende do id sequencial gerado pelo banco, então só pode ser
	// derivado depois do INSERT.
	if usuario.Tipo == domain.TipoAluno {
		usuario.RA = fmt.Sprintf("%d%03d", time.Now().Year(), usuario.ID)
	} else {
		usuario.RA = usuario.Email
	}

	if err := s.repo.UpdateRA(ctx, usuario.ID, usuario.RA); err != nil {
		s.logger.Error("Falha ao gravar RA do usuário.", err)
		return domain.Usuario{}, err
	}

	s.logger.Info("Usuário criado com sucesso.", map[string]interface{}{"user_id": usuario.ID, "ra": usuario.RA})
	return usuario, nil
}

// Login autentica pelo email ou RA e emite um JWT. Retorna (nil, nil) quando a
// autenticação falha: identificador desconhecido, RA ainda não gravado ou
// senha incorreta são indistinguíveis para o chamador, evitando enumeração de
// usuários.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	if req.Login == "" || req.Senha == "" {
		return nil, nil
	}

	usuario, err := s.repo.FindByLogin(ctx, req.Login)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return nil, nil
		}
		return nil, err
	}

	if usuario.RA == "" {
		return nil, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usuario.SenhaHash), []byte(req.Senha)); err != nil {
		return nil, nil
	}

	tokenString, err := s.tokenSvc.GenerateToken(usuario.ID, usuario.Nome, string(usuario.Tipo))
	if err != nil {
		return nil, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login realizado com sucesso.", map[string]interface{}{"user_id": usuario.ID})
	return &domain.LoginResponse{
		IDUsuario: usuario.ID,
		Token:     tokenString,
		Nome:      usuario.Nome,
		Email:     usuario.Email,
		CPF:       usuario.CPF,
		Tipo:      usuario.Tipo,
	}, nil
}

// ListarUsuarios lista usuários paginados segundo o filtro, com página e
// tamanho de página normalizados para o mínimo de 1 (padrão 1/10).
func (s *Service) ListarUsuarios(ctx context.Context, filtro domain.ListarUsuarioFiltro) (domain.PaginacaoResult[domain.UsuarioDTO], error) {
	if filtro.NrPagina < 1 {
		filtro.NrPagina = 1
	}
	if filtro.QtRegistros < 1 {
		filtro.QtRegistros = 10
	}

	usuarios, total, err := s.repo.FindAll(ctx, filtro)
	if err != nil {
		s.logger.Error("Falha ao listar usuários no repositório.", err)
		return domain.PaginacaoResult[domain.UsuarioDTO]{}, err
	}

	return domain.NovaPaginacao(usuarios, filtro.NrPagina, filtro.QtRegistros, total), nil
}

// ListarProfessores lista todos os usuários com papel de professor.
func (s *Service) ListarProfessores(ctx context.Context) ([]domain.UsuarioDTO, error) {
	professores, err := s.repo.FindProfessores(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar professores no repositório.", err)
		return nil, err
	}
	return professores, nil
}

// ObterUsuarioPorID busca um usuário pelo id.
func (s *Service) ObterUsuarioPorID(ctx context.Context, id int64) (domain.UsuarioDTO, error) {
	usuario, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.UsuarioDTO{}, err
	}

	return domain.UsuarioDTO{
		IDUsuario: usuario.ID,
		Nome:      usuario.Nome,
		Email:     usuario.Email,
		CPF:       usuario.CPF,
		RA:        usuario.RA,
		Tipo:      usuario.Tipo,
	}, nil
}

// EditarUsuario sobrescreve nome, email e CPF. A senha só é re-hasheada e
// sobrescrita quando uma nova senha é informada.
func (s *Service) EditarUsuario(ctx context.Context, req domain.EditarUsuarioRequest) error {
	usuario, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgUsuarioNaoEncontrado)
		}
		return err
	}

	usuario.Nome = req.Nome
	usuario.Email = req.Email
	usuario.CPF = req.CPF

	if req.Senha != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Senha), bcrypt.DefaultCost)
		if err != nil {
			return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
		}
		usuario.SenhaHash = string(hashedPassword)
	}

	if err := s.repo.Update(ctx, usuario); err != nil {
		s.logger.Error("Falha ao atualizar usuário no repositório.", err)
		return err
	}

	s.logger.Info("Usuário editado com sucesso.", map[string]interface{}{"user_id": usuario.ID})
	return nil
}

// DeletarUsuario remove um usuário, desde que ele não tenha nenhuma matrícula
// nem nenhuma turma lecionada. Um usuário sem vínculo algum é sempre deletável.
func (s *Service) DeletarUsuario(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return apperror.NewDomainError(msgUsuarioNaoEncontrado)
		}
		return err
	}

	vinculos, err := s.repo.CountVinculos(ctx, id)
	if err != nil {
		return err
	}

	if vinculos.Matriculas > 0 || vinculos.TurmasLecionadas > 0 {
		s.logger.Debug("Deleção de usuário bloqueada por vínculos.", map[string]interface{}{
			"user_id":           id,
			"matriculas":        vinculos.Matriculas,
			"turmas_lecionadas": vinculos.TurmasLecionadas,
		})
		return apperror.NewDomainError(msgUsuarioComVinculo)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar usuário no repositório.", err)
		return err
	}

	s.logger.Info("Usuário deletado com sucesso.", map[string]interface{}{"user_id": id})
	return nil
}
