package usuariorepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classhub/internal/domain"
	apperror "classhub/internal/errors"
	"classhub/internal/pkg/logger"
)

// UsuarioRepository implementa a interface domain.UsuarioRepository sobre PostgreSQL.
type UsuarioRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUsuarioRepository cria uma nova instância do UsuarioRepository, injetando o DB.
func NewUsuarioRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UsuarioRepository {
	return &UsuarioRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const usuarioColumns = `id, nome, email, cpf, ra, senha_hash, tipo_usuario, created_at, updated_at`

// Save insere um novo usuário no banco de dados e devolve a entidade com o id gerado.
// O RA é gravado vazio aqui; a derivação acontece no serviço, que chama UpdateRA em seguida.
func (r *UsuarioRepository) Save(ctx context.Context, usuario domain.Usuario) (domain.Usuario, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": usuario.Email})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	usuario.CreatedAt = time.Now()
	usuario.UpdatedAt = usuario.CreatedAt

	const insertSQL = `INSERT INTO usuarios (nome, email, cpf, ra, senha_hash, tipo_usuario, created_at, updated_at)
                       VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                       RETURNING id`

	err := r.DB.QueryRowContext(
		ctxTimeout,
		insertSQL,
		usuario.Nome,
		usuario.Email,
		usuario.CPF,
		usuario.RA,
		usuario.SenhaHash,
		usuario.Tipo,
		usuario.CreatedAt,
		usuario.UpdatedAt,
	).Scan(&usuario.ID)

	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.Usuario{}, apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": usuario.ID, "email": usuario.Email})
	return usuario, nil
}

// UpdateRA grava o RA derivado após a criação (segunda escrita da criação de usuário).
func (r *UsuarioRepository) UpdateRA(ctx context.Context, id int64, ra string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE usuarios SET ra = $1, updated_at = $2 WHERE id = $3`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL, ra, time.Now(), id)
	if err != nil {
		r.logger.Error("Falha ao gravar RA do usuário no DB.", err)
		return apperror.NewDBError("Falha ao gravar RA do usuário", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", id))
	}
	return nil
}

// FindByID busca um usuário pelo id.
func (r *UsuarioRepository) FindByID(ctx context.Context, id int64) (domain.Usuario, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE id = $1`

	return r.scanUsuario(r.DB.QueryRowContext(ctxTimeout, query, id), fmt.Sprintf("Usuário com id %d não encontrado", id))
}

// FindByLogin busca um usuário pelo e-mail ou pelo RA. Usado na autenticação.
func (r *UsuarioRepository) FindByLogin(ctx context.Context, login string) (domain.Usuario, error) {
	r.logger.Debug("Iniciando FindByLogin de usuário no repositório.", map[string]interface{}{"login_attempt": login})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + usuarioColumns + ` FROM usuarios WHERE email = $1 OR ra = $1`

	return r.scanUsuario(r.DB.QueryRowContext(ctxTimeout, query, login), fmt.Sprintf("Usuário com login '%s' não encontrado", login))
}

// scanUsuario mapeia a linha para a struct Usuario, traduzindo sql.ErrNoRows em NotFoundError.
func (r *UsuarioRepository) scanUsuario(row *sql.Row, notFoundMsg string) (domain.Usuario, error) {
	var u domain.Usuario
	err := row.Scan(
		&u.ID,
		&u.Nome,
		&u.Email,
		&u.CPF,
		&u.RA,
		&u.SenhaHash,
		&u.Tipo,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Usuario{}, apperror.NewNotFoundError(notFoundMsg)
		}
		r.logger.Error("Falha ao buscar usuário no DB.", err)
		return domain.Usuario{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	return u, nil
}

// FindAll busca usuários paginados segundo o filtro, devolvendo também o total
// de registros antes da paginação.
func (r *UsuarioRepository) FindAll(ctx context.Context, filtro domain.ListarUsuarioFiltro) ([]domain.UsuarioDTO, int, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	where := ` WHERE 1=1`
	args := []interface{}{}

	if filtro.IDTurma != nil {
		// Usuário pertence à turma como aluno matriculado ou como professor responsável.
		args = append(args, *filtro.IDTurma)
		n := len(args)
		where += fmt.Sprintf(` AND (EXISTS (SELECT 1 FROM aluno_turma at WHERE at.id_aluno = u.id AND at.id_turma = $%d)
                 OR EXISTS (SELECT 1 FROM turmas t WHERE t.id_professor = u.id AND t.id = $%d))`, n, n)
	}

	if filtro.Pesquisa != "" {
		args = append(args, filtro.Pesquisa+"%")
		where += fmt.Sprintf(` AND u.nome LIKE $%d`, len(args))
	}

	if filtro.Tipo != nil {
		args = append(args, *filtro.Tipo)
		where += fmt.Sprintf(` AND u.tipo_usuario = $%d`, len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM usuarios u` + where
	if err := r.DB.QueryRowContext(ctxTimeout, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar usuários", err)
	}

	direction := "ASC"
	if filtro.Ordenacao == domain.OrdenacaoDescendente {
		direction = "DESC"
	}

	args = append(args, filtro.QtRegistros, (filtro.NrPagina-1)*filtro.QtRegistros)
	query := fmt.Sprintf(`SELECT u.id, u.nome, u.email, u.ra, u.tipo_usuario FROM usuarios u%s
              ORDER BY u.nome %s LIMIT $%d OFFSET $%d`, where, direction, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, 0, apperror.NewDBError("Falha ao listar usuários", err)
	}
	defer rows.Close()

	usuarios := []domain.UsuarioDTO{}
	for rows.Next() {
		var dto domain.UsuarioDTO
		if err := rows.Scan(&dto.IDUsuario, &dto.Nome, &dto.Email, &dto.RA, &dto.Tipo); err != nil {
			return nil, 0, apperror.NewDBError("Falha ao mapear usuário", err)
		}
		usuarios = append(usuarios, dto)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperror.NewDBError("Falha ao percorrer usuários", err)
	}

	return usuarios, total, nil
}

// FindProfessores lista todos os usuários com papel de professor.
func (r *UsuarioRepository) FindProfessores(ctx context.Context) ([]domain.UsuarioDTO, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT id, nome, email, ra, tipo_usuario FROM usuarios WHERE tipo_usuario = $1 ORDER BY nome`

	rows, err := r.DB.QueryContext(ctxTimeout, query, domain.TipoProfessor)
	if err != nil {
		r.logger.Error("Falha ao listar professores no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar professores", err)
	}
	defer rows.Close()

	professores := []domain.UsuarioDTO{}
	for rows.Next() {
		var dto domain.UsuarioDTO
		if err := rows.Scan(&dto.IDUsuario, &dto.Nome, &dto.Email, &dto.RA, &dto.Tipo); err != nil {
			return nil, apperror.NewDBError("Falha ao mapear professor", err)
		}
		professores = append(professores, dto)
	}
	return professores, rows.Err()
}

// Update sobrescreve nome, email, cpf e hash de senha de um usuário existente.
func (r *UsuarioRepository) Update(ctx context.Context, usuario domain.Usuario) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const updateSQL = `UPDATE usuarios SET nome = $1, email = $2, cpf = $3, senha_hash = $4, updated_at = $5 WHERE id = $6`

	result, err := r.DB.ExecContext(ctxTimeout, updateSQL,
		usuario.Nome, usuario.Email, usuario.CPF, usuario.SenhaHash, time.Now(), usuario.ID)
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return apperror.NewDBError("Falha ao atualizar usuário", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", usuario.ID))
	}

	r.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": usuario.ID})
	return nil
}

// Delete remove um usuário. A verificação de vínculos é responsabilidade do serviço.
func (r *UsuarioRepository) Delete(ctx context.Context, id int64) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM usuarios WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar usuário no DB.", err)
		return apperror.NewDBError("Falha ao deletar usuário", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com id %d não encontrado", id))
	}

	r.logger.Info("Usuário deletado com sucesso.", map[string]interface{}{"user_id": id})
	return nil
}

// CountVinculos conta as matrículas e as turmas lecionadas de um usuário,
// insumos da regra que bloqueia a deleção enquanto houver vínculo.
func (r *UsuarioRepository) CountVinculos(ctx context.Context, id int64) (domain.VinculoInfo, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `SELECT
        (SELECT COUNT(*) FROM aluno_turma WHERE id_aluno = $1),
        (SELECT COUNT(*) FROM turmas WHERE id_professor = $1)`

	var info domain.VinculoInfo
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&info.Matriculas, &info.TurmasLecionadas)
	if err != nil {
		r.logger.Error("Falha ao contar vínculos do usuário no DB.", err)
		return domain.VinculoInfo{}, apperror.NewDBError("Falha ao contar vínculos do usuário", err)
	}
	return info, nil
}
